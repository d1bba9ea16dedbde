package execution

import (
	"fmt"
	"testing"

	"minnow/pkg/tuple"
	"minnow/pkg/types"
)

// sliceIterator is a DbIterator over a fixed tuple slice, used as the
// child operator in tests.
type sliceIterator struct {
	tuples []*tuple.Tuple
	td     *tuple.TupleDescription
	index  int
	isOpen bool
}

func newSliceIterator(td *tuple.TupleDescription, tuples []*tuple.Tuple) *sliceIterator {
	return &sliceIterator{tuples: tuples, td: td, index: -1}
}

func (m *sliceIterator) Open() error {
	m.isOpen = true
	m.index = -1
	return nil
}

func (m *sliceIterator) HasNext() (bool, error) {
	if !m.isOpen {
		return false, fmt.Errorf("iterator not open")
	}
	return m.index+1 < len(m.tuples), nil
}

func (m *sliceIterator) Next() (*tuple.Tuple, error) {
	if !m.isOpen {
		return nil, fmt.Errorf("iterator not open")
	}
	m.index++
	if m.index >= len(m.tuples) {
		return nil, fmt.Errorf("no more tuples")
	}
	return m.tuples[m.index], nil
}

func (m *sliceIterator) Rewind() error {
	if !m.isOpen {
		return fmt.Errorf("iterator not open")
	}
	m.index = -1
	return nil
}

func (m *sliceIterator) Close() error {
	m.isOpen = false
	return nil
}

func (m *sliceIterator) GetTupleDesc() *tuple.TupleDescription {
	return m.td
}

func singleIntDesc(t *testing.T, name string) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{name})
	if err != nil {
		t.Fatalf("NewTupleDesc failed: %v", err)
	}
	return td
}

func intTuples(t *testing.T, td *tuple.TupleDescription, values ...int32) []*tuple.Tuple {
	t.Helper()
	out := make([]*tuple.Tuple, 0, len(values))
	for _, v := range values {
		tup := tuple.NewTuple(td)
		if err := tup.SetField(0, types.NewIntField(v)); err != nil {
			t.Fatalf("SetField failed: %v", err)
		}
		out = append(out, tup)
	}
	return out
}

func drainInts(t *testing.T, it DbIterator) []int32 {
	t.Helper()
	var got []int32
	for {
		ok, err := it.HasNext()
		if err != nil {
			t.Fatalf("HasNext failed: %v", err)
		}
		if !ok {
			break
		}
		tup, err := it.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		f, err := tup.GetField(0)
		if err != nil {
			t.Fatalf("GetField failed: %v", err)
		}
		got = append(got, f.(*types.IntField).Value)
	}
	return got
}

func equalInts(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
