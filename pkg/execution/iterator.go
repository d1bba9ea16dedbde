package execution

import (
	"minnow/pkg/errs"
	"minnow/pkg/tuple"
)

// DbIterator is the contract every operator in the execution tree
// implements: a pull-based iterator over tuples.
//
// Next is only legal between Open and Close and after HasNext has
// reported true; calling it on an exhausted iterator fails with
// errs.ErrNoSuchElement. HasNext is idempotent. Rewind restarts
// iteration and is only legal on an open iterator. Close is
// idempotent and must close children even when Open failed partway.
type DbIterator interface {
	Open() error

	HasNext() (bool, error)

	Next() (*tuple.Tuple, error)

	Rewind() error

	Close() error

	GetTupleDesc() *tuple.TupleDescription
}

// ReadNextFunc produces the next tuple of an operator, or nil at end
// of stream.
type ReadNextFunc func() (*tuple.Tuple, error)

// BaseIterator carries the lookahead state machine shared by every
// operator: closed, open, open-with-lookahead, exhausted. Concrete
// operators supply a ReadNextFunc and delegate HasNext/Next here.
type BaseIterator struct {
	nextTuple *tuple.Tuple
	opened    bool
	readNext  ReadNextFunc
}

func NewBaseIterator(readNext ReadNextFunc) *BaseIterator {
	return &BaseIterator{readNext: readNext}
}

// HasNext reports whether another tuple is available, caching one
// tuple of lookahead. Repeated calls without an intervening Next
// return the same answer.
func (it *BaseIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, errs.Db("iterator not opened")
	}

	if it.nextTuple == nil {
		t, err := it.readNext()
		if err != nil {
			return false, err
		}
		it.nextTuple = t
	}
	return it.nextTuple != nil, nil
}

// Next returns the cached lookahead tuple if present, otherwise pulls
// one. An exhausted stream fails with errs.ErrNoSuchElement.
func (it *BaseIterator) Next() (*tuple.Tuple, error) {
	if !it.opened {
		return nil, errs.Db("iterator not opened")
	}

	if it.nextTuple == nil {
		t, err := it.readNext()
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, errs.WrapDb(errs.ErrNoSuchElement, "iterator exhausted")
		}
		it.nextTuple = t
	}

	t := it.nextTuple
	it.nextTuple = nil
	return t, nil
}

// MarkOpened flips the iterator into the open state and drops any
// stale lookahead.
func (it *BaseIterator) MarkOpened() {
	it.opened = true
	it.nextTuple = nil
}

// ClearCache drops the lookahead tuple; Rewind implementations call it
// after resetting their source.
func (it *BaseIterator) ClearCache() {
	it.nextTuple = nil
}

func (it *BaseIterator) Close() error {
	it.nextTuple = nil
	it.opened = false
	return nil
}
