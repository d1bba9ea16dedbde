package tuple

import (
	"io"
	"strings"

	"minnow/pkg/errs"
	"minnow/pkg/types"
)

// Tuple is a row conforming to a schema: a dense array of fields, one
// per schema position, plus the optional storage location.
type Tuple struct {
	TupleDesc *TupleDescription
	fields    []types.Field
	RecordID  *RecordID
}

func NewTuple(td *TupleDescription) *Tuple {
	return &Tuple{
		TupleDesc: td,
		fields:    make([]types.Field, td.NumFields()),
	}
}

// SetField stores a field at position i. The field's type must match
// the schema type at that position.
func (t *Tuple) SetField(i int, f types.Field) error {
	if i < 0 || i >= len(t.fields) {
		return errs.Db("field index %d out of bounds [0, %d)", i, len(t.fields))
	}

	expected := t.TupleDesc.Types[i]
	if f.Type() != expected {
		return errs.Db("field type mismatch at index %d: expected %v, got %v", i, expected, f.Type())
	}

	t.fields[i] = f
	return nil
}

func (t *Tuple) GetField(i int) (types.Field, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, errs.Db("field index %d out of bounds [0, %d)", i, len(t.fields))
	}
	return t.fields[i], nil
}

// Serialize writes every field in schema order.
func (t *Tuple) Serialize(w io.Writer) error {
	for i, f := range t.fields {
		if f == nil {
			return errs.Db("cannot serialize tuple with unset field %d", i)
		}
		if err := f.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// ReadTuple deserializes one tuple of the given schema from r.
func ReadTuple(td *TupleDescription, r io.Reader) (*Tuple, error) {
	t := NewTuple(td)
	for i, ft := range td.Types {
		f, err := types.ReadField(ft, r)
		if err != nil {
			return nil, err
		}
		t.fields[i] = f
	}
	return t, nil
}

// CombineTuples concatenates two tuples into one, first tuple's fields
// first. The result carries no RecordID.
func CombineTuples(t1, t2 *Tuple) (*Tuple, error) {
	if t1 == nil || t2 == nil {
		return nil, errs.Db("cannot combine nil tuples")
	}

	merged := NewTuple(Combine(t1.TupleDesc, t2.TupleDesc))
	copy(merged.fields, t1.fields)
	copy(merged.fields[len(t1.fields):], t2.fields)
	return merged, nil
}

func (t *Tuple) String() string {
	parts := make([]string, 0, len(t.fields))
	for _, f := range t.fields {
		if f == nil {
			parts = append(parts, "null")
			continue
		}
		parts = append(parts, f.String())
	}
	return strings.Join(parts, "\t")
}
