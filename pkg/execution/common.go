package execution

import (
	"minnow/pkg/errs"
)

func errNilArg(what string) error {
	return errs.Db("%s cannot be nil", what)
}

// closeChild closes a child operator during unwind. Close failures are
// swallowed unless the transaction was aborted, which must keep
// propagating.
func closeChild(child DbIterator) error {
	if child == nil {
		return nil
	}
	if err := child.Close(); err != nil && errs.IsTxnAborted(err) {
		return err
	}
	return nil
}
