package join

import (
	"minnow/pkg/execution"
	"minnow/pkg/tuple"
)

// NestedLoopJoin evaluates an arbitrary join predicate by iterating
// the inner child once per outer tuple. The inner child is rewound
// between outer tuples, which every operator in this engine supports.
// Cost is O(|outer| * |inner|).
type NestedLoopJoin struct {
	base      *execution.BaseIterator
	predicate *JoinPredicate
	outer     execution.DbIterator
	inner     execution.DbIterator
	td        *tuple.TupleDescription
	current   *tuple.Tuple
}

func NewNestedLoopJoin(predicate *JoinPredicate, outer, inner execution.DbIterator) (*NestedLoopJoin, error) {
	td, err := combinedDesc(outer, inner)
	if err != nil {
		return nil, err
	}

	j := &NestedLoopJoin{predicate: predicate, outer: outer, inner: inner, td: td}
	j.base = execution.NewBaseIterator(j.readNext)
	return j, nil
}

func (j *NestedLoopJoin) Open() error {
	if err := j.outer.Open(); err != nil {
		return err
	}
	if err := j.inner.Open(); err != nil {
		closeQuietly(j.outer)
		return err
	}
	j.current = nil
	j.base.MarkOpened()
	return nil
}

func (j *NestedLoopJoin) readNext() (*tuple.Tuple, error) {
	for {
		if j.current == nil {
			ok, err := j.outer.HasNext()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
			j.current, err = j.outer.Next()
			if err != nil {
				return nil, err
			}
		}

		for {
			ok, err := j.inner.HasNext()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}

			innerTuple, err := j.inner.Next()
			if err != nil {
				return nil, err
			}

			matches, err := j.predicate.Filter(j.current, innerTuple)
			if err != nil {
				return nil, err
			}
			if matches {
				return tuple.CombineTuples(j.current, innerTuple)
			}
		}

		// Inner exhausted for this outer tuple; restart it and advance.
		if err := j.inner.Rewind(); err != nil {
			return nil, err
		}
		j.current = nil
	}
}

func (j *NestedLoopJoin) HasNext() (bool, error) {
	return j.base.HasNext()
}

func (j *NestedLoopJoin) Next() (*tuple.Tuple, error) {
	return j.base.Next()
}

func (j *NestedLoopJoin) Rewind() error {
	if err := j.outer.Rewind(); err != nil {
		return err
	}
	if err := j.inner.Rewind(); err != nil {
		return err
	}
	j.current = nil
	j.base.ClearCache()
	return nil
}

func (j *NestedLoopJoin) Close() error {
	j.current = nil
	oerr := closeQuietly(j.outer)
	ierr := closeQuietly(j.inner)
	if err := j.base.Close(); err != nil {
		return err
	}
	if oerr != nil {
		return oerr
	}
	return ierr
}

func (j *NestedLoopJoin) GetTupleDesc() *tuple.TupleDescription {
	return j.td
}
