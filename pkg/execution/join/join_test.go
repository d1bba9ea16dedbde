package join

import (
	"fmt"
	"sort"
	"testing"

	"minnow/pkg/execution"
	"minnow/pkg/primitives"
	"minnow/pkg/tuple"
	"minnow/pkg/types"
)

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

func pairDesc(t *testing.T, n1, n2 string) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTupleDesc(
		[]types.Type{types.IntType, types.IntType},
		[]string{n1, n2},
	)
	if err != nil {
		t.Fatalf("NewTupleDesc failed: %v", err)
	}
	return td
}

func pairTuples(t *testing.T, td *tuple.TupleDescription, rows [][2]int32) []*tuple.Tuple {
	t.Helper()
	out := make([]*tuple.Tuple, 0, len(rows))
	for _, r := range rows {
		tup := tuple.NewTuple(td)
		if err := tup.SetField(0, types.NewIntField(r[0])); err != nil {
			t.Fatalf("SetField failed: %v", err)
		}
		if err := tup.SetField(1, types.NewIntField(r[1])); err != nil {
			t.Fatalf("SetField failed: %v", err)
		}
		out = append(out, tup)
	}
	return out
}

// tableA and tableB are the relations the join scenarios share:
// A(id, x) = {(1,10),(2,20),(2,21),(3,30)}
// B(id, y) = {(2,200),(2,201),(4,400)}
func tableA(t *testing.T) *sliceIterator {
	td := pairDesc(t, "a.id", "a.x")
	return newSliceIterator(td, pairTuples(t, td, [][2]int32{{1, 10}, {2, 20}, {2, 21}, {3, 30}}))
}

func tableB(t *testing.T) *sliceIterator {
	td := pairDesc(t, "b.id", "b.y")
	return newSliceIterator(td, pairTuples(t, td, [][2]int32{{2, 200}, {2, 201}, {4, 400}}))
}

func drainRows(t *testing.T, it execution.DbIterator) [][4]int32 {
	t.Helper()
	var out [][4]int32
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

		var row [4]int32
		for i := 0; i < 4; i++ {
			f, err := tup.GetField(i)
			if err != nil {
				t.Fatalf("GetField failed: %v", err)
			}
			row[i] = f.(*types.IntField).Value
		}
		out = append(out, row)
	}
	return out
}

func sortRows(rows [][4]int32) {
	sort.Slice(rows, func(i, j int) bool {
		for k := 0; k < 4; k++ {
			if rows[i][k] != rows[j][k] {
				return rows[i][k] < rows[j][k]
			}
		}
		return false
	})
}

func equalRowSets(a, b [][4]int32) bool {
	if len(a) != len(b) {
		return false
	}
	sortRows(a)
	sortRows(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestJoinDispatch(t *testing.T) {
	eq, err := NewJoinPredicate(0, 0, primitives.Equals)
	if err != nil {
		t.Fatalf("NewJoinPredicate failed: %v", err)
	}
	j, err := NewJoin(eq, tableA(t), tableB(t))
	if err != nil {
		t.Fatalf("NewJoin failed: %v", err)
	}
	if _, ok := j.(*HashJoin); !ok {
		t.Errorf("equality predicate should dispatch to HashJoin, got %T", j)
	}

	lt, _ := NewJoinPredicate(0, 0, primitives.LessThan)
	j, err = NewJoin(lt, tableA(t), tableB(t))
	if err != nil {
		t.Fatalf("NewJoin failed: %v", err)
	}
	if _, ok := j.(*NestedLoopJoin); !ok {
		t.Errorf("non-equality predicate should dispatch to NestedLoopJoin, got %T", j)
	}
}

func TestHashJoinEquiJoin(t *testing.T) {
	pred, _ := NewJoinPredicate(0, 0, primitives.Equals)
	j, err := NewJoin(pred, tableA(t), tableB(t))
	if err != nil {
		t.Fatalf("NewJoin failed: %v", err)
	}
	if err := j.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer j.Close()

	want := [][4]int32{
		{2, 20, 2, 200},
		{2, 20, 2, 201},
		{2, 21, 2, 200},
		{2, 21, 2, 201},
	}
	got := drainRows(t, j)
	if !equalRowSets(got, want) {
		t.Errorf("A join B on id = %v, want %v", got, want)
	}
}

func TestNestedLoopLessThan(t *testing.T) {
	pred, _ := NewJoinPredicate(0, 0, primitives.LessThan)
	j, err := NewJoin(pred, tableA(t), tableB(t))
	if err != nil {
		t.Fatalf("NewJoin failed: %v", err)
	}
	if err := j.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer j.Close()

	want := [][4]int32{
		{1, 10, 2, 200},
		{1, 10, 2, 201},
		{1, 10, 4, 400},
		{2, 20, 4, 400},
		{2, 21, 4, 400},
		{3, 30, 4, 400},
	}
	got := drainRows(t, j)
	if !equalRowSets(got, want) {
		t.Errorf("A join B on a.id < b.id = %v, want %v", got, want)
	}
}

// Both strategies agree on equijoins.
func TestHashAndNestedLoopAgreeOnEquality(t *testing.T) {
	pred, _ := NewJoinPredicate(0, 0, primitives.Equals)

	hj, err := NewHashJoin(pred, tableA(t), tableB(t))
	if err != nil {
		t.Fatalf("NewHashJoin failed: %v", err)
	}
	if err := hj.Open(); err != nil {
		t.Fatalf("hash Open failed: %v", err)
	}
	defer hj.Close()
	hashRows := drainRows(t, hj)

	nl, err := NewNestedLoopJoin(pred, tableA(t), tableB(t))
	if err != nil {
		t.Fatalf("NewNestedLoopJoin failed: %v", err)
	}
	if err := nl.Open(); err != nil {
		t.Fatalf("nested Open failed: %v", err)
	}
	defer nl.Close()
	nestedRows := drainRows(t, nl)

	if !equalRowSets(hashRows, nestedRows) {
		t.Errorf("strategies disagree: hash=%v nested=%v", hashRows, nestedRows)
	}
}

func TestJoinEmptySides(t *testing.T) {
	emptyTd := pairDesc(t, "e.id", "e.v")
	empty := func() *sliceIterator { return newSliceIterator(emptyTd, nil) }

	cases := []struct {
		name         string
		outer, inner execution.DbIterator
	}{
		{"empty outer", empty(), tableB(t)},
		{"empty inner", tableA(t), empty()},
		{"both empty", empty(), empty()},
	}

	for _, op := range []primitives.Predicate{primitives.Equals, primitives.LessThan} {
		for _, tc := range cases {
			t.Run(fmt.Sprintf("%s %s", tc.name, op), func(t *testing.T) {
				pred, _ := NewJoinPredicate(0, 0, op)
				j, err := NewJoin(pred, tc.outer, tc.inner)
				if err != nil {
					t.Fatalf("NewJoin failed: %v", err)
				}
				if err := j.Open(); err != nil {
					t.Fatalf("Open failed: %v", err)
				}
				defer j.Close()

				ok, err := j.HasNext()
				if err != nil {
					t.Fatalf("HasNext failed: %v", err)
				}
				if ok {
					t.Error("join over an empty side produced output")
				}
			})
		}
	}
}

func TestHashJoinRewindKeepsBuildTable(t *testing.T) {
	pred, _ := NewJoinPredicate(0, 0, primitives.Equals)
	outer := tableA(t)
	j, err := NewHashJoin(pred, outer, tableB(t))
	if err != nil {
		t.Fatalf("NewHashJoin failed: %v", err)
	}
	if err := j.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer j.Close()

	first := drainRows(t, j)

	// The build side was drained and closed at Open; poisoning it
	// proves rewind does not touch it.
	outer.tuples = nil

	if err := j.Rewind(); err != nil {
		t.Fatalf("Rewind failed: %v", err)
	}
	second := drainRows(t, j)

	if !equalRowSets(first, second) {
		t.Errorf("rewind changed join output: %v then %v", first, second)
	}
}

func TestJoinSchemaIsMerged(t *testing.T) {
	pred, _ := NewJoinPredicate(0, 0, primitives.Equals)
	j, err := NewJoin(pred, tableA(t), tableB(t))
	if err != nil {
		t.Fatalf("NewJoin failed: %v", err)
	}

	td := j.GetTupleDesc()
	if td.NumFields() != 4 {
		t.Fatalf("merged schema has %d fields, want 4", td.NumFields())
	}
	names := []string{"a.id", "a.x", "b.id", "b.y"}
	for i, want := range names {
		if got, _ := td.FieldName(i); got != want {
			t.Errorf("merged field %d is %q, want %q", i, got, want)
		}
	}
}

func TestNestedLoopRewind(t *testing.T) {
	pred, _ := NewJoinPredicate(0, 0, primitives.LessThan)
	j, err := NewNestedLoopJoin(pred, tableA(t), tableB(t))
	if err != nil {
		t.Fatalf("NewNestedLoopJoin failed: %v", err)
	}
	if err := j.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer j.Close()

	first := drainRows(t, j)
	if err := j.Rewind(); err != nil {
		t.Fatalf("Rewind failed: %v", err)
	}
	second := drainRows(t, j)

	if !equalRowSets(first, second) {
		t.Errorf("rewind changed join output: %v then %v", first, second)
	}
}
