package join

import (
	"minnow/pkg/errs"
	"minnow/pkg/execution"
	"minnow/pkg/tuple"
)

func errNil(what string) error {
	return errs.Db("%s cannot be nil", what)
}

func combinedDesc(outer, inner execution.DbIterator) (*tuple.TupleDescription, error) {
	otd := outer.GetTupleDesc()
	itd := inner.GetTupleDesc()
	if otd == nil || itd == nil {
		return nil, errs.Db("join children must expose schemas")
	}
	return tuple.Combine(otd, itd), nil
}

// closeQuietly closes a child during unwind, keeping only a
// transaction abort alive.
func closeQuietly(child execution.DbIterator) error {
	if child == nil {
		return nil
	}
	if err := child.Close(); err != nil && errs.IsTxnAborted(err) {
		return err
	}
	return nil
}
