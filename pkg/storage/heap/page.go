package heap

import (
	"bytes"
	"io"

	"github.com/sasha-s/go-deadlock"

	"minnow/pkg/concurrency/transaction"
	"minnow/pkg/errs"
	"minnow/pkg/storage/disk"
	"minnow/pkg/tuple"
)

// HeapPage is a fixed-size slotted page: a header bitmap of occupied
// slots followed by a fixed array of tuple slots sized from the
// schema. Bit 0 of header byte 0 covers slot 0.
//
// Layout:
//
//	[header: ceil(numSlots/8) bytes][slot 0][slot 1]...[padding]
type HeapPage struct {
	pid      *HeapPageID
	td       *tuple.TupleDescription
	numSlots int
	header   []byte
	tuples   []*tuple.Tuple
	dirtier  *transaction.TransactionID
	mu       deadlock.RWMutex
}

// SlotsPerPage returns how many tuples of the given schema fit on one
// page, accounting for the one header bit each slot costs.
func SlotsPerPage(td *tuple.TupleDescription) int {
	return (disk.PageSize * 8) / (td.Size()*8 + 1)
}

func headerSize(numSlots int) int {
	return (numSlots + 7) / 8
}

// NewHeapPage deserializes a page from its on-disk form.
func NewHeapPage(pid *HeapPageID, data []byte, td *tuple.TupleDescription) (*HeapPage, error) {
	if len(data) != disk.PageSize {
		return nil, errs.Db("invalid page data size: expected %d, got %d", disk.PageSize, len(data))
	}

	hp := &HeapPage{
		pid:      pid,
		td:       td,
		numSlots: SlotsPerPage(td),
	}
	hp.header = make([]byte, headerSize(hp.numSlots))
	copy(hp.header, data[:len(hp.header)])
	hp.tuples = make([]*tuple.Tuple, hp.numSlots)

	r := bytes.NewReader(data[len(hp.header):])
	for i := 0; i < hp.numSlots; i++ {
		if !hp.slotUsed(i) {
			// Skip over the dead slot bytes.
			if _, err := r.Seek(int64(td.Size()), io.SeekCurrent); err != nil {
				return nil, errs.WrapDb(err, "corrupt page %s", pid)
			}
			continue
		}

		t, err := tuple.ReadTuple(td, r)
		if err != nil {
			return nil, errs.WrapDb(err, "failed to read slot %d of %s", i, pid)
		}
		t.RecordID = tuple.NewRecordID(pid, i)
		hp.tuples[i] = t
	}

	return hp, nil
}

// NewEmptyHeapPage creates a page with every slot free.
func NewEmptyHeapPage(pid *HeapPageID, td *tuple.TupleDescription) (*HeapPage, error) {
	return NewHeapPage(pid, make([]byte, disk.PageSize), td)
}

func (hp *HeapPage) GetID() tuple.PageID {
	return hp.pid
}

func (hp *HeapPage) NumSlots() int {
	return hp.numSlots
}

func (hp *HeapPage) slotUsed(i int) bool {
	return hp.header[i/8]&(1<<(i%8)) != 0
}

func (hp *HeapPage) setSlot(i int, used bool) {
	if used {
		hp.header[i/8] |= 1 << (i % 8)
	} else {
		hp.header[i/8] &^= 1 << (i % 8)
	}
}

// NumEmptySlots returns how many slots are free for insertion.
func (hp *HeapPage) NumEmptySlots() int {
	hp.mu.RLock()
	defer hp.mu.RUnlock()

	n := 0
	for i := 0; i < hp.numSlots; i++ {
		if !hp.slotUsed(i) {
			n++
		}
	}
	return n
}

// AddTuple places t into the first free slot and stamps its RecordID.
func (hp *HeapPage) AddTuple(t *tuple.Tuple) error {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	if !t.TupleDesc.Equals(hp.td) {
		return errs.Db("tuple schema does not match page schema")
	}

	for i := 0; i < hp.numSlots; i++ {
		if hp.slotUsed(i) {
			continue
		}
		hp.setSlot(i, true)
		t.RecordID = tuple.NewRecordID(hp.pid, i)
		hp.tuples[i] = t
		return nil
	}

	return errs.Db("no empty slots on %s", hp.pid)
}

// DeleteTuple clears the slot named by t's RecordID.
func (hp *HeapPage) DeleteTuple(t *tuple.Tuple) error {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	rid := t.RecordID
	if rid == nil {
		return errs.Db("cannot delete a tuple without a record id")
	}
	if !rid.PID.Equals(hp.pid) {
		return errs.Db("tuple belongs to %s, not %s", rid.PID, hp.pid)
	}
	if rid.Slot < 0 || rid.Slot >= hp.numSlots || !hp.slotUsed(rid.Slot) {
		return errs.Db("slot %d of %s is not occupied", rid.Slot, hp.pid)
	}

	hp.setSlot(rid.Slot, false)
	hp.tuples[rid.Slot] = nil
	t.RecordID = nil
	return nil
}

// Tuples returns the occupied slots in slot order.
func (hp *HeapPage) Tuples() []*tuple.Tuple {
	hp.mu.RLock()
	defer hp.mu.RUnlock()

	out := make([]*tuple.Tuple, 0, hp.numSlots)
	for i := 0; i < hp.numSlots; i++ {
		if hp.slotUsed(i) {
			out = append(out, hp.tuples[i])
		}
	}
	return out
}

func (hp *HeapPage) IsDirty() *transaction.TransactionID {
	hp.mu.RLock()
	defer hp.mu.RUnlock()
	return hp.dirtier
}

func (hp *HeapPage) MarkDirty(dirty bool, tid *transaction.TransactionID) {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	if dirty {
		hp.dirtier = tid
	} else {
		hp.dirtier = nil
	}
}

// GetPageData serializes the page: header bitmap, then every slot in
// order with free slots zero-filled, padded to the page size.
func (hp *HeapPage) GetPageData() []byte {
	hp.mu.RLock()
	defer hp.mu.RUnlock()

	data := make([]byte, disk.PageSize)
	copy(data, hp.header)

	var buf bytes.Buffer
	tupleSize := hp.td.Size()
	for i := 0; i < hp.numSlots; i++ {
		buf.Reset()
		if !hp.slotUsed(i) {
			continue
		}
		if err := hp.tuples[i].Serialize(&buf); err != nil {
			continue
		}
		copy(data[len(hp.header)+i*tupleSize:], buf.Bytes())
	}

	return data
}
