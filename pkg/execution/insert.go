package execution

import (
	"minnow/pkg/concurrency/transaction"
	"minnow/pkg/errs"
	"minnow/pkg/memory"
	"minnow/pkg/primitives"
	"minnow/pkg/tuple"
	"minnow/pkg/types"
)

// Insert drains its child on the first pull after Open, inserting
// every tuple into the target table through the page store, and emits
// exactly one result row holding the count. Further pulls report end
// of stream until the operator is reopened.
type Insert struct {
	base    *BaseIterator
	tid     *transaction.TransactionID
	child   DbIterator
	tableID primitives.TableID
	pool    *memory.PageStore
	td      *tuple.TupleDescription
	done    bool
}

func NewInsert(tid *transaction.TransactionID, child DbIterator, tableID primitives.TableID, pool *memory.PageStore) (*Insert, error) {
	if child == nil {
		return nil, errNilArg("child operator")
	}

	td, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"inserted"})
	if err != nil {
		return nil, err
	}

	ins := &Insert{tid: tid, child: child, tableID: tableID, pool: pool, td: td}
	ins.base = NewBaseIterator(ins.readNext)
	return ins, nil
}

func (ins *Insert) readNext() (*tuple.Tuple, error) {
	if ins.done {
		return nil, nil
	}
	ins.done = true

	count := int32(0)
	for {
		ok, err := ins.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		t, err := ins.child.Next()
		if err != nil {
			return nil, err
		}

		if _, err := ins.pool.InsertTuple(ins.tid, ins.tableID, t); err != nil {
			if errs.IsTxnAborted(err) {
				return nil, err
			}
			return nil, errs.WrapAbort(err, "insert failed")
		}
		count++
	}

	result := tuple.NewTuple(ins.td)
	if err := result.SetField(0, types.NewIntField(count)); err != nil {
		return nil, err
	}
	return result, nil
}

func (ins *Insert) Open() error {
	if err := ins.child.Open(); err != nil {
		return err
	}
	ins.done = false
	ins.base.MarkOpened()
	return nil
}

func (ins *Insert) HasNext() (bool, error) {
	return ins.base.HasNext()
}

func (ins *Insert) Next() (*tuple.Tuple, error) {
	return ins.base.Next()
}

func (ins *Insert) Rewind() error {
	if err := ins.child.Rewind(); err != nil {
		return err
	}
	ins.done = false
	ins.base.ClearCache()
	return nil
}

func (ins *Insert) Close() error {
	cerr := closeChild(ins.child)
	if err := ins.base.Close(); err != nil {
		return err
	}
	return cerr
}

func (ins *Insert) GetTupleDesc() *tuple.TupleDescription {
	return ins.td
}
