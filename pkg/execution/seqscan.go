package execution

import (
	"minnow/pkg/catalog"
	"minnow/pkg/errs"
	"minnow/pkg/concurrency/transaction"
	"minnow/pkg/memory"
	"minnow/pkg/primitives"
	"minnow/pkg/storage/heap"
	"minnow/pkg/tuple"
)

// SeqScan reads every tuple of a table in storage order, pinning each
// page read-only through the page store. Its schema is the table's
// schema with every field renamed to "alias.field", which is how
// downstream name resolution distinguishes self-joined tables.
type SeqScan struct {
	base    *BaseIterator
	tid     *transaction.TransactionID
	tableID primitives.TableID
	alias   string
	cat     *catalog.Catalog
	pool    *memory.PageStore
	td      *tuple.TupleDescription
	iter    *heap.FileIterator
}

func NewSeqScan(tid *transaction.TransactionID, tableID primitives.TableID, alias string, cat *catalog.Catalog, pool *memory.PageStore) (*SeqScan, error) {
	td, err := cat.GetTupleDesc(tableID)
	if err != nil {
		return nil, err
	}

	names := make([]string, td.NumFields())
	for i := range names {
		name, err := td.FieldName(i)
		if err != nil {
			return nil, err
		}
		names[i] = alias + "." + name
	}
	scanTd, err := tuple.NewTupleDesc(td.Types, names)
	if err != nil {
		return nil, err
	}

	ss := &SeqScan{
		tid:     tid,
		tableID: tableID,
		alias:   alias,
		cat:     cat,
		pool:    pool,
		td:      scanTd,
	}
	ss.base = NewBaseIterator(ss.readNext)
	return ss, nil
}

func (ss *SeqScan) Alias() string {
	return ss.alias
}

func (ss *SeqScan) TableID() primitives.TableID {
	return ss.tableID
}

// Open snapshots the table's page count; pages appended while the scan
// runs are not visible to it.
func (ss *SeqScan) Open() error {
	file, err := ss.cat.GetDbFile(ss.tableID)
	if err != nil {
		return err
	}

	ss.iter = heap.NewFileIterator(ss.tid, file, ss.pool)
	if err := ss.iter.Open(); err != nil {
		return err
	}
	ss.base.MarkOpened()
	return nil
}

func (ss *SeqScan) readNext() (*tuple.Tuple, error) {
	ok, err := ss.iter.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	t, err := ss.iter.Next()
	if err != nil {
		return nil, err
	}

	// Re-home the tuple under the scan's aliased schema. The field
	// values are shared; the tuple and its field slice are new.
	out := tuple.NewTuple(ss.td)
	for i := 0; i < ss.td.NumFields(); i++ {
		f, err := t.GetField(i)
		if err != nil {
			return nil, err
		}
		if err := out.SetField(i, f); err != nil {
			return nil, err
		}
	}
	out.RecordID = t.RecordID
	return out, nil
}

func (ss *SeqScan) HasNext() (bool, error) {
	return ss.base.HasNext()
}

func (ss *SeqScan) Next() (*tuple.Tuple, error) {
	return ss.base.Next()
}

func (ss *SeqScan) Rewind() error {
	if ss.iter == nil {
		return errs.Db("cannot rewind a scan that is not open")
	}
	if err := ss.iter.Rewind(); err != nil {
		return err
	}
	ss.base.ClearCache()
	return nil
}

func (ss *SeqScan) Close() error {
	if ss.iter != nil {
		ss.iter.Close()
		ss.iter = nil
	}
	return ss.base.Close()
}

func (ss *SeqScan) GetTupleDesc() *tuple.TupleDescription {
	return ss.td
}
