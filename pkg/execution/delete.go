package execution

import (
	"minnow/pkg/concurrency/transaction"
	"minnow/pkg/errs"
	"minnow/pkg/memory"
	"minnow/pkg/tuple"
	"minnow/pkg/types"
)

// Delete drains its child on the first pull after Open, removing every
// tuple it yields from the page named by the tuple's RecordID, and
// emits exactly one result row holding the count. The result schema
// mirrors Insert's single "inserted" column.
type Delete struct {
	base  *BaseIterator
	tid   *transaction.TransactionID
	child DbIterator
	pool  *memory.PageStore
	td    *tuple.TupleDescription
	done  bool
}

func NewDelete(tid *transaction.TransactionID, child DbIterator, pool *memory.PageStore) (*Delete, error) {
	if child == nil {
		return nil, errNilArg("child operator")
	}

	td, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"inserted"})
	if err != nil {
		return nil, err
	}

	d := &Delete{tid: tid, child: child, pool: pool, td: td}
	d.base = NewBaseIterator(d.readNext)
	return d, nil
}

func (d *Delete) readNext() (*tuple.Tuple, error) {
	if d.done {
		return nil, nil
	}
	d.done = true

	count := int32(0)
	for {
		ok, err := d.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		t, err := d.child.Next()
		if err != nil {
			return nil, err
		}

		if _, err := d.pool.DeleteTuple(d.tid, t); err != nil {
			if errs.IsTxnAborted(err) {
				return nil, err
			}
			return nil, errs.WrapAbort(err, "delete failed")
		}
		count++
	}

	result := tuple.NewTuple(d.td)
	if err := result.SetField(0, types.NewIntField(count)); err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Delete) Open() error {
	if err := d.child.Open(); err != nil {
		return err
	}
	d.done = false
	d.base.MarkOpened()
	return nil
}

func (d *Delete) HasNext() (bool, error) {
	return d.base.HasNext()
}

func (d *Delete) Next() (*tuple.Tuple, error) {
	return d.base.Next()
}

func (d *Delete) Rewind() error {
	if err := d.child.Rewind(); err != nil {
		return err
	}
	d.done = false
	d.base.ClearCache()
	return nil
}

func (d *Delete) Close() error {
	cerr := closeChild(d.child)
	if err := d.base.Close(); err != nil {
		return err
	}
	return cerr
}

func (d *Delete) GetTupleDesc() *tuple.TupleDescription {
	return d.td
}
