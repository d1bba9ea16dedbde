package memory

import (
	"github.com/sasha-s/go-deadlock"

	"minnow/pkg/catalog"
	"minnow/pkg/concurrency/transaction"
	"minnow/pkg/errs"
	"minnow/pkg/primitives"
	"minnow/pkg/storage/heap"
	"minnow/pkg/storage/page"
	"minnow/pkg/tuple"
)

// Permissions aliases the storage-layer access mode so callers above
// the storage layer only import this package.
type Permissions = heap.Permissions

const (
	ReadOnly  = heap.ReadOnly
	ReadWrite = heap.ReadWrite
)

// PageStore is the page buffer shared by every transaction. Pages are
// pinned by (table, page) identity with an access permission; dirty
// pages are written back when their transaction completes. Eviction is
// delegated to the surrounding system and not implemented here.
//
// A transaction that has been aborted externally sees TxnAborted from
// every subsequent call, which is how cancellation reaches the
// operator tree.
type PageStore struct {
	mu      deadlock.Mutex
	cat     *catalog.Catalog
	pages   map[tuple.PageKey]page.Page
	aborted map[int64]bool
}

func NewPageStore(cat *catalog.Catalog) *PageStore {
	return &PageStore{
		cat:     cat,
		pages:   make(map[tuple.PageKey]page.Page),
		aborted: make(map[int64]bool),
	}
}

// GetPage pins the page identified by pid on behalf of tid. The page
// is served from the buffer when cached, otherwise read through the
// table's heap file.
func (ps *PageStore) GetPage(tid *transaction.TransactionID, pid tuple.PageID, perm Permissions) (page.Page, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if err := ps.checkAlive(tid); err != nil {
		return nil, err
	}

	if p, ok := ps.pages[pid.Key()]; ok {
		return p, nil
	}

	file, err := ps.cat.GetDbFile(pid.GetTableID())
	if err != nil {
		return nil, err
	}

	hpid, ok := pid.(*heap.HeapPageID)
	if !ok {
		return nil, errs.Db("%s is not a heap page id", pid)
	}

	hp, err := file.ReadPage(hpid)
	if err != nil {
		return nil, err
	}
	ps.pages[pid.Key()] = hp
	return hp, nil
}

func (ps *PageStore) checkAlive(tid *transaction.TransactionID) error {
	if tid != nil && ps.aborted[tid.ID()] {
		return errs.Abort("%s was aborted", tid)
	}
	return nil
}

// InsertTuple adds t to the table, growing the file by a page when no
// existing page has a free slot. Returns the pages dirtied. IO
// failures surface as TxnAborted, since a half-applied insert leaves
// the transaction unfit to continue.
func (ps *PageStore) InsertTuple(tid *transaction.TransactionID, tableID primitives.TableID, t *tuple.Tuple) ([]page.Page, error) {
	ps.mu.Lock()
	err := ps.checkAlive(tid)
	ps.mu.Unlock()
	if err != nil {
		return nil, err
	}

	file, err := ps.cat.GetDbFile(tableID)
	if err != nil {
		return nil, err
	}

	numPages, err := file.NumPages()
	if err != nil {
		return nil, errs.WrapAbort(err, "insert failed reading table size")
	}

	for pageNo := 0; pageNo < numPages; pageNo++ {
		pid := NewPageID(tableID, pageNo)
		p, err := ps.GetPage(tid, pid, ReadWrite)
		if err != nil {
			return nil, err
		}

		hp := p.(*heap.HeapPage)
		if hp.NumEmptySlots() == 0 {
			continue
		}
		if err := hp.AddTuple(t); err != nil {
			return nil, err
		}
		hp.MarkDirty(true, tid)
		return []page.Page{hp}, nil
	}

	// Every page is full; grow the file.
	if _, err := file.AppendEmptyPage(); err != nil {
		return nil, errs.WrapAbort(err, "insert failed growing table")
	}

	pid := NewPageID(tableID, numPages)
	p, err := ps.GetPage(tid, pid, ReadWrite)
	if err != nil {
		return nil, err
	}

	hp := p.(*heap.HeapPage)
	if err := hp.AddTuple(t); err != nil {
		return nil, err
	}
	hp.MarkDirty(true, tid)
	return []page.Page{hp}, nil
}

// DeleteTuple removes t from the page named by its RecordID and
// returns the dirtied page.
func (ps *PageStore) DeleteTuple(tid *transaction.TransactionID, t *tuple.Tuple) (page.Page, error) {
	if t.RecordID == nil {
		return nil, errs.Db("cannot delete a tuple without a record id")
	}

	p, err := ps.GetPage(tid, t.RecordID.PID, ReadWrite)
	if err != nil {
		return nil, err
	}

	hp, ok := p.(*heap.HeapPage)
	if !ok {
		return nil, errs.Db("%s is not a heap page", t.RecordID.PID)
	}
	if err := hp.DeleteTuple(t); err != nil {
		return nil, err
	}
	hp.MarkDirty(true, tid)
	return hp, nil
}

// TransactionComplete flushes every page tid dirtied and clears their
// dirty marks.
func (ps *PageStore) TransactionComplete(tid *transaction.TransactionID) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for _, p := range ps.pages {
		dirtier := p.IsDirty()
		if dirtier == nil || !dirtier.Equals(tid) {
			continue
		}
		if err := ps.flushLocked(p); err != nil {
			return err
		}
		p.MarkDirty(false, nil)
	}
	delete(ps.aborted, tid.ID())
	return nil
}

// AbortTransaction marks tid aborted and discards its dirty pages so
// later reads see the on-disk state. Every subsequent call by tid
// fails with TxnAborted.
func (ps *PageStore) AbortTransaction(tid *transaction.TransactionID) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.aborted[tid.ID()] = true
	for key, p := range ps.pages {
		dirtier := p.IsDirty()
		if dirtier != nil && dirtier.Equals(tid) {
			delete(ps.pages, key)
		}
	}
}

// FlushAllPages writes every dirty page back to its table file.
func (ps *PageStore) FlushAllPages() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for _, p := range ps.pages {
		if p.IsDirty() == nil {
			continue
		}
		if err := ps.flushLocked(p); err != nil {
			return err
		}
		p.MarkDirty(false, nil)
	}
	return nil
}

func (ps *PageStore) flushLocked(p page.Page) error {
	file, err := ps.cat.GetDbFile(p.GetID().GetTableID())
	if err != nil {
		return err
	}
	hp, ok := p.(*heap.HeapPage)
	if !ok {
		return errs.Db("%s is not a heap page", p.GetID())
	}
	return file.WritePage(hp)
}

// NewPageID builds a heap page id. It exists so layers above storage
// can name pages without importing the heap package directly.
func NewPageID(tableID primitives.TableID, pageNo int) tuple.PageID {
	return heap.NewHeapPageID(tableID, pageNo)
}
