package join

import (
	"minnow/pkg/errs"
	"minnow/pkg/execution"
	"minnow/pkg/primitives"
	"minnow/pkg/tuple"
)

// HashJoin joins on equality by draining the outer child into an
// in-memory hash table at Open, then streaming the inner child as the
// probe side. Exactly one merged tuple comes out per (outer, inner)
// pair with equal keys, outer fields first.
//
// Rewind restarts the probe side only; the build table survives until
// Close.
type HashJoin struct {
	base      *execution.BaseIterator
	predicate *JoinPredicate
	outer     execution.DbIterator
	inner     execution.DbIterator
	td        *tuple.TupleDescription
	table     map[string][]*tuple.Tuple
	matches   matchBuffer
	built     bool
}

func NewHashJoin(predicate *JoinPredicate, outer, inner execution.DbIterator) (*HashJoin, error) {
	if predicate.Op() != primitives.Equals {
		return nil, errs.Db("hash join requires an equality predicate, got %s", predicate.Op())
	}

	td, err := combinedDesc(outer, inner)
	if err != nil {
		return nil, err
	}

	j := &HashJoin{predicate: predicate, outer: outer, inner: inner, td: td}
	j.base = execution.NewBaseIterator(j.readNext)
	return j, nil
}

// Open builds the hash table from the outer child, closes it, and
// leaves the inner child open for probing.
func (j *HashJoin) Open() error {
	if err := j.outer.Open(); err != nil {
		return err
	}
	if err := j.build(); err != nil {
		closeQuietly(j.outer)
		return err
	}
	if err := closeQuietly(j.outer); err != nil {
		return err
	}

	if err := j.inner.Open(); err != nil {
		return err
	}
	j.base.MarkOpened()
	return nil
}

func (j *HashJoin) build() error {
	j.table = make(map[string][]*tuple.Tuple)
	keyField := j.predicate.Field1()

	for {
		ok, err := j.outer.HasNext()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		t, err := j.outer.Next()
		if err != nil {
			return err
		}

		f, err := t.GetField(keyField)
		if err != nil {
			return err
		}
		if f == nil {
			continue
		}

		key := f.String()
		j.table[key] = append(j.table[key], t)
	}

	j.built = true
	return nil
}

func (j *HashJoin) readNext() (*tuple.Tuple, error) {
	if t := j.matches.next(); t != nil {
		return t, nil
	}

	probeField := j.predicate.Field2()
	for {
		ok, err := j.inner.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}

		innerTuple, err := j.inner.Next()
		if err != nil {
			return nil, err
		}

		f, err := innerTuple.GetField(probeField)
		if err != nil {
			return nil, err
		}
		if f == nil {
			continue
		}

		outers, hit := j.table[f.String()]
		if !hit {
			continue
		}

		if len(outers) == 1 {
			return tuple.CombineTuples(outers[0], innerTuple)
		}

		if err := j.matches.fill(outers, innerTuple); err != nil {
			return nil, err
		}
		return j.matches.next(), nil
	}
}

func (j *HashJoin) HasNext() (bool, error) {
	return j.base.HasNext()
}

func (j *HashJoin) Next() (*tuple.Tuple, error) {
	return j.base.Next()
}

// Rewind restarts the probe side; the build table is preserved.
func (j *HashJoin) Rewind() error {
	if !j.built {
		return errs.Db("cannot rewind a hash join that is not open")
	}
	if err := j.inner.Rewind(); err != nil {
		return err
	}
	j.matches.clear()
	j.base.ClearCache()
	return nil
}

func (j *HashJoin) Close() error {
	j.table = nil
	j.built = false
	j.matches.clear()

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

func (j *HashJoin) GetTupleDesc() *tuple.TupleDescription {
	return j.td
}
