package types

import (
	"encoding/binary"
	"io"
	"strings"

	"minnow/pkg/errs"
	"minnow/pkg/primitives"
)

// StringField is a fixed-maximum-length string field. Values longer
// than StringLen are truncated at construction.
type StringField struct {
	Value string
}

func NewStringField(value string) *StringField {
	if len(value) > StringLen {
		value = value[:StringLen]
	}
	return &StringField{Value: value}
}

// Serialize writes a 4-byte length followed by the string body
// right-padded with zero bytes to StringLen.
func (f *StringField) Serialize(w io.Writer) error {
	buf := make([]byte, 4+StringLen)
	binary.BigEndian.PutUint32(buf, uint32(len(f.Value)))
	copy(buf[4:], f.Value)
	_, err := w.Write(buf)
	return err
}

func (f *StringField) Compare(op primitives.Predicate, other Field) (bool, error) {
	o, ok := other.(*StringField)
	if !ok {
		return false, errs.Db("cannot compare STRING with %v", other.Type())
	}

	c := strings.Compare(f.Value, o.Value)
	switch op {
	case primitives.Equals:
		return c == 0, nil
	case primitives.NotEqual:
		return c != 0, nil
	case primitives.LessThan:
		return c < 0, nil
	case primitives.LessThanOrEqual:
		return c <= 0, nil
	case primitives.GreaterThan:
		return c > 0, nil
	case primitives.GreaterThanOrEqual:
		return c >= 0, nil
	default:
		return false, errs.Db("unknown predicate %v", op)
	}
}

func (f *StringField) Type() Type {
	return StringType
}

func (f *StringField) String() string {
	return f.Value
}

func (f *StringField) Equals(other Field) bool {
	o, ok := other.(*StringField)
	return ok && f.Value == o.Value
}

func readStringField(r io.Reader) (*StringField, error) {
	buf := make([]byte, 4+StringLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(buf)
	if n > StringLen {
		return nil, errs.Db("corrupt string field: length %d exceeds %d", n, StringLen)
	}
	return &StringField{Value: string(buf[4 : 4+n])}, nil
}
