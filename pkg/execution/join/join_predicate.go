package join

import (
	"fmt"

	"minnow/pkg/errs"
	"minnow/pkg/primitives"
	"minnow/pkg/tuple"
)

// JoinPredicate compares a field of the outer tuple with a field of
// the inner tuple under one operator.
type JoinPredicate struct {
	field1 int
	field2 int
	op     primitives.Predicate
}

func NewJoinPredicate(field1, field2 int, op primitives.Predicate) (*JoinPredicate, error) {
	if field1 < 0 || field2 < 0 {
		return nil, errs.Db("join field indexes cannot be negative: %d, %d", field1, field2)
	}
	return &JoinPredicate{field1: field1, field2: field2, op: op}, nil
}

// Filter evaluates the predicate over an (outer, inner) tuple pair.
func (jp *JoinPredicate) Filter(outer, inner *tuple.Tuple) (bool, error) {
	if outer == nil || inner == nil {
		return false, errs.Db("join predicate evaluated on nil tuple")
	}

	f1, err := outer.GetField(jp.field1)
	if err != nil {
		return false, err
	}
	f2, err := inner.GetField(jp.field2)
	if err != nil {
		return false, err
	}
	return f1.Compare(jp.op, f2)
}

func (jp *JoinPredicate) Field1() int {
	return jp.field1
}

func (jp *JoinPredicate) Field2() int {
	return jp.field2
}

func (jp *JoinPredicate) Op() primitives.Predicate {
	return jp.op
}

func (jp *JoinPredicate) String() string {
	return fmt.Sprintf("outer[%d] %s inner[%d]", jp.field1, jp.op, jp.field2)
}
