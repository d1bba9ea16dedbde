package types

import (
	"bytes"
	"testing"

	"minnow/pkg/primitives"
)

func TestIntFieldCompare(t *testing.T) {
	five := NewIntField(5)

	tests := []struct {
		name  string
		op    primitives.Predicate
		other int32
		want  bool
	}{
		{"equals true", primitives.Equals, 5, true},
		{"equals false", primitives.Equals, 6, false},
		{"not equal", primitives.NotEqual, 6, true},
		{"less than", primitives.LessThan, 6, true},
		{"less than false", primitives.LessThan, 5, false},
		{"less or equal", primitives.LessThanOrEqual, 5, true},
		{"greater than", primitives.GreaterThan, 4, true},
		{"greater or equal", primitives.GreaterThanOrEqual, 5, true},
		{"greater or equal false", primitives.GreaterThanOrEqual, 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := five.Compare(tt.op, NewIntField(tt.other))
			if err != nil {
				t.Fatalf("Compare failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("5 %v %d = %v, want %v", tt.op, tt.other, got, tt.want)
			}
		})
	}
}

func TestCompareAcrossTypesFails(t *testing.T) {
	i := NewIntField(1)
	s := NewStringField("1")

	if _, err := i.Compare(primitives.Equals, s); err == nil {
		t.Error("expected error comparing INT with STRING")
	}
	if _, err := s.Compare(primitives.Equals, i); err == nil {
		t.Error("expected error comparing STRING with INT")
	}
	if i.Equals(s) {
		t.Error("fields of different types must not be equal")
	}
}

func TestStringFieldOrdering(t *testing.T) {
	a := NewStringField("apple")
	b := NewStringField("banana")

	lt, err := a.Compare(primitives.LessThan, b)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !lt {
		t.Error("apple should be less than banana")
	}
}

func TestStringFieldTruncation(t *testing.T) {
	long := make([]byte, StringLen+10)
	for i := range long {
		long[i] = 'x'
	}

	f := NewStringField(string(long))
	if len(f.Value) != StringLen {
		t.Errorf("expected truncation to %d, got %d", StringLen, len(f.Value))
	}
}

func TestFieldSerializeRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	in := NewIntField(-42)
	if err := in.Serialize(&buf); err != nil {
		t.Fatalf("serialize int: %v", err)
	}
	if buf.Len() != IntType.Size() {
		t.Fatalf("int field wrote %d bytes, want %d", buf.Len(), IntType.Size())
	}

	out, err := ReadField(IntType, &buf)
	if err != nil {
		t.Fatalf("read int: %v", err)
	}
	if !in.Equals(out) {
		t.Errorf("round trip changed value: %v != %v", in, out)
	}

	buf.Reset()
	sf := NewStringField("hello")
	if err := sf.Serialize(&buf); err != nil {
		t.Fatalf("serialize string: %v", err)
	}
	if buf.Len() != StringType.Size() {
		t.Fatalf("string field wrote %d bytes, want %d", buf.Len(), StringType.Size())
	}

	sout, err := ReadField(StringType, &buf)
	if err != nil {
		t.Fatalf("read string: %v", err)
	}
	if !sf.Equals(sout) {
		t.Errorf("round trip changed value: %q != %q", sf, sout)
	}
}

func TestParseField(t *testing.T) {
	f, err := ParseField(IntType, "17")
	if err != nil {
		t.Fatalf("parse int: %v", err)
	}
	if !f.Equals(NewIntField(17)) {
		t.Errorf("parsed %v, want 17", f)
	}

	if _, err := ParseField(IntType, "abc"); err == nil {
		t.Error("expected error parsing non-numeric int constant")
	}

	s, err := ParseField(StringType, "abc")
	if err != nil {
		t.Fatalf("parse string: %v", err)
	}
	if !s.Equals(NewStringField("abc")) {
		t.Errorf("parsed %v, want abc", s)
	}
}
