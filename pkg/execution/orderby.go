package execution

import (
	"sort"

	"minnow/pkg/errs"
	"minnow/pkg/primitives"
	"minnow/pkg/tuple"
)

// OrderBy materializes its entire input at Open and sorts it stably by
// one field. It is a pipeline breaker bounded only by the child's
// cardinality; there is no spill. Rewind resets the cursor without
// re-sorting.
type OrderBy struct {
	base      *BaseIterator
	child     DbIterator
	sortField int
	ascending bool
	sorted    []*tuple.Tuple
	cursor    int
}

func NewOrderBy(sortField int, ascending bool, child DbIterator) (*OrderBy, error) {
	if child == nil {
		return nil, errNilArg("child operator")
	}

	td := child.GetTupleDesc()
	if sortField < 0 || sortField >= td.NumFields() {
		return nil, errs.Db("sort field %d out of bounds for schema %s", sortField, td)
	}

	o := &OrderBy{child: child, sortField: sortField, ascending: ascending}
	o.base = NewBaseIterator(o.readNext)
	return o, nil
}

func (o *OrderBy) Open() error {
	if err := o.child.Open(); err != nil {
		return err
	}
	if err := o.materialize(); err != nil {
		closeChild(o.child)
		return err
	}
	o.cursor = 0
	o.base.MarkOpened()
	return nil
}

func (o *OrderBy) materialize() error {
	o.sorted = o.sorted[:0]
	for {
		ok, err := o.child.HasNext()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		t, err := o.child.Next()
		if err != nil {
			return err
		}
		o.sorted = append(o.sorted, t)
	}

	var sortErr error
	sort.SliceStable(o.sorted, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		fi, err := o.sorted[i].GetField(o.sortField)
		if err != nil {
			sortErr = err
			return false
		}
		fj, err := o.sorted[j].GetField(o.sortField)
		if err != nil {
			sortErr = err
			return false
		}

		less, err := fi.Compare(primitives.LessThan, fj)
		if err != nil {
			sortErr = err
			return false
		}
		if o.ascending {
			return less
		}
		greater, err := fi.Compare(primitives.GreaterThan, fj)
		if err != nil {
			sortErr = err
			return false
		}
		return greater
	})
	return sortErr
}

func (o *OrderBy) readNext() (*tuple.Tuple, error) {
	if o.cursor >= len(o.sorted) {
		return nil, nil
	}
	t := o.sorted[o.cursor]
	o.cursor++
	return t, nil
}

func (o *OrderBy) HasNext() (bool, error) {
	return o.base.HasNext()
}

func (o *OrderBy) Next() (*tuple.Tuple, error) {
	return o.base.Next()
}

// Rewind walks the already-sorted vector again; the child is not
// rescanned.
func (o *OrderBy) Rewind() error {
	o.cursor = 0
	o.base.ClearCache()
	return nil
}

func (o *OrderBy) Close() error {
	o.sorted = nil
	cerr := closeChild(o.child)
	if err := o.base.Close(); err != nil {
		return err
	}
	return cerr
}

func (o *OrderBy) GetTupleDesc() *tuple.TupleDescription {
	return o.child.GetTupleDesc()
}
