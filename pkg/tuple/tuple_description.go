package tuple

import (
	"fmt"
	"strings"

	"minnow/pkg/errs"
	"minnow/pkg/types"
)

// TupleDescription is the schema of a tuple: the ordered types and
// names of its fields. Field names are optional and may carry an
// "alias.field" qualifier once a scan has renamed them.
type TupleDescription struct {
	Types      []types.Type
	FieldNames []string
}

// NewTupleDesc creates a schema from field types and optional names.
// fieldNames may be nil; if present its length must match fieldTypes.
func NewTupleDesc(fieldTypes []types.Type, fieldNames []string) (*TupleDescription, error) {
	if len(fieldTypes) < 1 {
		return nil, errs.Db("schema must have at least one field")
	}

	tc := make([]types.Type, len(fieldTypes))
	copy(tc, fieldTypes)

	var nc []string
	if fieldNames != nil {
		if len(fieldNames) != len(fieldTypes) {
			return nil, errs.Db("field names length %d does not match field types length %d",
				len(fieldNames), len(fieldTypes))
		}
		nc = make([]string, len(fieldNames))
		copy(nc, fieldNames)
	}

	return &TupleDescription{Types: tc, FieldNames: nc}, nil
}

func (td *TupleDescription) NumFields() int {
	return len(td.Types)
}

// TypeAtIndex returns the type of the ith field.
func (td *TupleDescription) TypeAtIndex(i int) (types.Type, error) {
	if i < 0 || i >= len(td.Types) {
		return 0, errs.Db("field index %d out of bounds [0, %d)", i, len(td.Types))
	}
	return td.Types[i], nil
}

// FieldName returns the name of the ith field, or "" when the schema
// carries no names.
func (td *TupleDescription) FieldName(i int) (string, error) {
	if i < 0 || i >= len(td.Types) {
		return "", errs.Db("field index %d out of bounds [0, %d)", i, len(td.Types))
	}
	if td.FieldNames == nil {
		return "", nil
	}
	return td.FieldNames[i], nil
}

// NameToIndex resolves a field name to its index, returning the first
// match. An exact match wins; failing that, names are matched on their
// unqualified part, so "id" finds "t1.id" and "t1.id" finds "id".
func (td *TupleDescription) NameToIndex(name string) (int, error) {
	if td.FieldNames == nil {
		return 0, errs.WrapDb(errs.ErrNoSuchElement, "schema has no field names")
	}

	for i, n := range td.FieldNames {
		if n == name {
			return i, nil
		}
	}

	base := unqualified(name)
	for i, n := range td.FieldNames {
		if unqualified(n) == base {
			return i, nil
		}
	}

	return 0, errs.WrapDb(errs.ErrNoSuchElement, "no field named %q", name)
}

func unqualified(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Size returns the number of bytes a tuple of this schema occupies on
// disk.
func (td *TupleDescription) Size() int {
	size := 0
	for _, t := range td.Types {
		size += t.Size()
	}
	return size
}

// Combine concatenates two schemas, the way a join concatenates its
// input tuples.
func Combine(td1, td2 *TupleDescription) *TupleDescription {
	ts := make([]types.Type, 0, len(td1.Types)+len(td2.Types))
	ts = append(ts, td1.Types...)
	ts = append(ts, td2.Types...)

	var names []string
	if td1.FieldNames != nil || td2.FieldNames != nil {
		names = make([]string, 0, len(ts))
		names = append(names, td1.namesOrEmpty()...)
		names = append(names, td2.namesOrEmpty()...)
	}

	return &TupleDescription{Types: ts, FieldNames: names}
}

func (td *TupleDescription) namesOrEmpty() []string {
	if td.FieldNames != nil {
		return td.FieldNames
	}
	return make([]string, len(td.Types))
}

// Equals reports schema equality: same field count and types in the
// same order. Names are not compared.
func (td *TupleDescription) Equals(other *TupleDescription) bool {
	if other == nil || len(td.Types) != len(other.Types) {
		return false
	}
	for i, t := range td.Types {
		if t != other.Types[i] {
			return false
		}
	}
	return true
}

func (td *TupleDescription) String() string {
	parts := make([]string, 0, len(td.Types))
	for i, t := range td.Types {
		name := "null"
		if td.FieldNames != nil && td.FieldNames[i] != "" {
			name = td.FieldNames[i]
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", t, name))
	}
	return strings.Join(parts, ",")
}
