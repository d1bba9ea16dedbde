package execution

import (
	"minnow/pkg/tuple"
)

// Filter passes through the child tuples that satisfy its predicate.
type Filter struct {
	base      *BaseIterator
	predicate *Predicate
	child     DbIterator
}

func NewFilter(predicate *Predicate, child DbIterator) (*Filter, error) {
	if predicate == nil {
		return nil, errNilArg("predicate")
	}
	if child == nil {
		return nil, errNilArg("child operator")
	}

	f := &Filter{predicate: predicate, child: child}
	f.base = NewBaseIterator(f.readNext)
	return f, nil
}

func (f *Filter) readNext() (*tuple.Tuple, error) {
	for {
		ok, err := f.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}

		t, err := f.child.Next()
		if err != nil {
			return nil, err
		}

		passes, err := f.predicate.Filter(t)
		if err != nil {
			return nil, err
		}
		if passes {
			return t, nil
		}
	}
}

func (f *Filter) Open() error {
	if err := f.child.Open(); err != nil {
		return err
	}
	f.base.MarkOpened()
	return nil
}

func (f *Filter) HasNext() (bool, error) {
	return f.base.HasNext()
}

func (f *Filter) Next() (*tuple.Tuple, error) {
	return f.base.Next()
}

func (f *Filter) Rewind() error {
	if err := f.child.Rewind(); err != nil {
		return err
	}
	f.base.ClearCache()
	return nil
}

func (f *Filter) Close() error {
	cerr := closeChild(f.child)
	if err := f.base.Close(); err != nil {
		return err
	}
	return cerr
}

// GetTupleDesc returns the child schema unchanged; filtering does not
// reshape tuples.
func (f *Filter) GetTupleDesc() *tuple.TupleDescription {
	return f.child.GetTupleDesc()
}
