package execution

import (
	"testing"

	"minnow/pkg/tuple"
	"minnow/pkg/types"
)

func twoColDesc(t *testing.T) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTupleDesc(
		[]types.Type{types.IntType, types.StringType},
		[]string{"id", "name"},
	)
	if err != nil {
		t.Fatalf("NewTupleDesc failed: %v", err)
	}
	return td
}

func TestProjectKeepsSelectedFields(t *testing.T) {
	td := twoColDesc(t)
	row := tuple.NewTuple(td)
	row.SetField(0, types.NewIntField(1))
	row.SetField(1, types.NewStringField("one"))

	p, err := NewProject([]int{1}, []types.Type{types.StringType}, newSliceIterator(td, []*tuple.Tuple{row}))
	if err != nil {
		t.Fatalf("NewProject failed: %v", err)
	}
	if err := p.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer p.Close()

	out := p.GetTupleDesc()
	if out.NumFields() != 1 || out.Types[0] != types.StringType {
		t.Fatalf("projected schema is %s", out)
	}
	if name, _ := out.FieldName(0); name != "name" {
		t.Errorf("projected field name %q, want name", name)
	}

	tup, err := p.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	f, _ := tup.GetField(0)
	if !f.Equals(types.NewStringField("one")) {
		t.Errorf("projected value %v", f)
	}
}

func TestProjectReordersFields(t *testing.T) {
	td := twoColDesc(t)
	row := tuple.NewTuple(td)
	row.SetField(0, types.NewIntField(7))
	row.SetField(1, types.NewStringField("seven"))

	p, err := NewProject([]int{1, 0}, []types.Type{types.StringType, types.IntType},
		newSliceIterator(td, []*tuple.Tuple{row}))
	if err != nil {
		t.Fatalf("NewProject failed: %v", err)
	}
	if err := p.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer p.Close()

	tup, err := p.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	f0, _ := tup.GetField(0)
	f1, _ := tup.GetField(1)
	if !f0.Equals(types.NewStringField("seven")) || !f1.Equals(types.NewIntField(7)) {
		t.Errorf("reordered tuple is (%v, %v)", f0, f1)
	}
}

func TestProjectTypeMismatchFails(t *testing.T) {
	td := twoColDesc(t)
	_, err := NewProject([]int{0}, []types.Type{types.StringType}, newSliceIterator(td, nil))
	if err == nil {
		t.Error("expected type mismatch error")
	}
}

func TestProjectOutOfBoundsFails(t *testing.T) {
	td := twoColDesc(t)
	_, err := NewProject([]int{5}, []types.Type{types.IntType}, newSliceIterator(td, nil))
	if err == nil {
		t.Error("expected out-of-bounds error")
	}
}
