package types

import (
	"io"
	"strconv"

	"minnow/pkg/errs"
)

// ReadField deserializes a field of the given type from r.
func ReadField(t Type, r io.Reader) (Field, error) {
	switch t {
	case IntType:
		return readIntField(r)
	case StringType:
		return readStringField(r)
	default:
		return nil, errs.Db("cannot deserialize unknown type %v", t)
	}
}

// ParseField converts the string form of a constant into a field of
// the given type. Filters carry their constants as strings.
func ParseField(t Type, s string) (Field, error) {
	switch t {
	case IntType:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, errs.Db("invalid integer constant %q", s)
		}
		return NewIntField(int32(v)), nil
	case StringType:
		return NewStringField(s), nil
	default:
		return nil, errs.Db("cannot parse constant of unknown type %v", t)
	}
}
