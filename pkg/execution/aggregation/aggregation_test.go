package aggregation

import (
	"fmt"
	"sort"
	"testing"

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

// groupedInput builds T(g STRING, v INT) = {("a",1),("a",3),("b",5),("b",7),("b",9)}.
func groupedInput(t *testing.T) (*tuple.TupleDescription, []*tuple.Tuple) {
	t.Helper()
	td, err := tuple.NewTupleDesc(
		[]types.Type{types.StringType, types.IntType},
		[]string{"g", "v"},
	)
	if err != nil {
		t.Fatalf("NewTupleDesc failed: %v", err)
	}

	rows := []struct {
		g string
		v int32
	}{
		{"a", 1}, {"a", 3}, {"b", 5}, {"b", 7}, {"b", 9},
	}

	out := make([]*tuple.Tuple, 0, len(rows))
	for _, r := range rows {
		tup := tuple.NewTuple(td)
		if err := tup.SetField(0, types.NewStringField(r.g)); err != nil {
			t.Fatalf("SetField failed: %v", err)
		}
		if err := tup.SetField(1, types.NewIntField(r.v)); err != nil {
			t.Fatalf("SetField failed: %v", err)
		}
		out = append(out, tup)
	}
	return td, out
}

func drainGroups(t *testing.T, a *Aggregate) map[string]int32 {
	t.Helper()
	got := make(map[string]int32)
	for {
		ok, err := a.HasNext()
		if err != nil {
			t.Fatalf("HasNext failed: %v", err)
		}
		if !ok {
			break
		}
		tup, err := a.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		g, _ := tup.GetField(0)
		v, _ := tup.GetField(1)
		got[g.String()] = v.(*types.IntField).Value
	}
	return got
}

func drainSingle(t *testing.T, a *Aggregate) int32 {
	t.Helper()
	ok, err := a.HasNext()
	if err != nil {
		t.Fatalf("HasNext failed: %v", err)
	}
	if !ok {
		t.Fatal("ungrouped aggregate produced no output")
	}
	tup, err := a.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	v, _ := tup.GetField(0)

	if more, _ := a.HasNext(); more {
		t.Fatal("ungrouped aggregate produced more than one row")
	}
	return v.(*types.IntField).Value
}

func TestGroupedAvgUsesIntegerDivision(t *testing.T) {
	td, rows := groupedInput(t)

	a, err := NewAggregate(newSliceIterator(td, rows), 1, 0, Avg)
	if err != nil {
		t.Fatalf("NewAggregate failed: %v", err)
	}
	if err := a.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	got := drainGroups(t, a)
	if got["a"] != 2 || got["b"] != 7 {
		t.Errorf("AVG(v) group by g = %v, want a=2 b=7 (integer division)", got)
	}
}

func TestGroupedOps(t *testing.T) {
	tests := []struct {
		op   AggregateOp
		a, b int32
	}{
		{Min, 1, 5},
		{Max, 3, 9},
		{Sum, 4, 21},
		{Count, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			td, rows := groupedInput(t)
			a, err := NewAggregate(newSliceIterator(td, rows), 1, 0, tt.op)
			if err != nil {
				t.Fatalf("NewAggregate failed: %v", err)
			}
			if err := a.Open(); err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer a.Close()

			got := drainGroups(t, a)
			if got["a"] != tt.a || got["b"] != tt.b {
				t.Errorf("%v = %v, want a=%d b=%d", tt.op, got, tt.a, tt.b)
			}
		})
	}
}

func TestUngroupedAggregate(t *testing.T) {
	td, rows := groupedInput(t)

	a, err := NewAggregate(newSliceIterator(td, rows), 1, NoGrouping, Sum)
	if err != nil {
		t.Fatalf("NewAggregate failed: %v", err)
	}
	if err := a.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	if out := a.GetTupleDesc(); out.NumFields() != 1 || out.Types[0] != types.IntType {
		t.Fatalf("ungrouped schema is %s, want single INT", out)
	}
	if got := drainSingle(t, a); got != 25 {
		t.Errorf("SUM(v) = %d, want 25", got)
	}
}

func TestAvgOfSingleElementGroup(t *testing.T) {
	td, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"v"})
	if err != nil {
		t.Fatalf("NewTupleDesc failed: %v", err)
	}
	row := tuple.NewTuple(td)
	row.SetField(0, types.NewIntField(13))

	a, err := NewAggregate(newSliceIterator(td, []*tuple.Tuple{row}), 0, NoGrouping, Avg)
	if err != nil {
		t.Fatalf("NewAggregate failed: %v", err)
	}
	if err := a.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	if got := drainSingle(t, a); got != 13 {
		t.Errorf("AVG over one element = %d, want the element itself", got)
	}
}

func TestStringAggregatorOnlyCounts(t *testing.T) {
	td, rows := groupedInput(t)

	// Aggregating over the STRING field g, grouped by itself.
	a, err := NewAggregate(newSliceIterator(td, rows), 0, 0, Count)
	if err != nil {
		t.Fatalf("COUNT over strings should work: %v", err)
	}
	if err := a.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	got := drainGroups(t, a)
	if got["a"] != 2 || got["b"] != 3 {
		t.Errorf("COUNT(g) group by g = %v", got)
	}

	for _, op := range []AggregateOp{Min, Max, Sum, Avg} {
		if _, err := NewAggregate(newSliceIterator(td, rows), 0, 0, op); err == nil {
			t.Errorf("%v over a STRING field should be rejected", op)
		}
	}
}

func TestAggregateColumnName(t *testing.T) {
	td, rows := groupedInput(t)

	a, err := NewAggregate(newSliceIterator(td, rows), 1, 0, Avg)
	if err != nil {
		t.Fatalf("NewAggregate failed: %v", err)
	}
	name, err := a.GetTupleDesc().FieldName(1)
	if err != nil {
		t.Fatalf("FieldName failed: %v", err)
	}
	if name != "v(AVG)" {
		t.Errorf("aggregate column named %q, want v(AVG)", name)
	}
}

func TestAggregateRewindReplaysGroups(t *testing.T) {
	td, rows := groupedInput(t)
	src := newSliceIterator(td, rows)

	a, err := NewAggregate(src, 1, 0, Sum)
	if err != nil {
		t.Fatalf("NewAggregate failed: %v", err)
	}
	if err := a.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	first := drainGroups(t, a)

	// The child was drained and closed at Open; a rewind that rescanned
	// it would fail or change the answer.
	src.tuples = nil

	if err := a.Rewind(); err != nil {
		t.Fatalf("Rewind failed: %v", err)
	}
	second := drainGroups(t, a)

	keys := func(m map[string]int32) []string {
		var ks []string
		for k := range m {
			ks = append(ks, k)
		}
		sort.Strings(ks)
		return ks
	}
	if fmt.Sprint(keys(first)) != fmt.Sprint(keys(second)) || first["a"] != second["a"] || first["b"] != second["b"] {
		t.Errorf("rewind changed groups: %v then %v", first, second)
	}
}
