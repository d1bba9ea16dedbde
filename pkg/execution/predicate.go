package execution

import (
	"fmt"

	"minnow/pkg/primitives"
	"minnow/pkg/tuple"
	"minnow/pkg/types"
)

// Predicate compares one field of a tuple against a constant.
type Predicate struct {
	field   int
	op      primitives.Predicate
	operand types.Field
}

func NewPredicate(field int, op primitives.Predicate, operand types.Field) *Predicate {
	return &Predicate{field: field, op: op, operand: operand}
}

// Filter reports whether t satisfies the predicate.
func (p *Predicate) Filter(t *tuple.Tuple) (bool, error) {
	f, err := t.GetField(p.field)
	if err != nil {
		return false, err
	}
	return f.Compare(p.op, p.operand)
}

func (p *Predicate) Field() int {
	return p.field
}

func (p *Predicate) Op() primitives.Predicate {
	return p.op
}

func (p *Predicate) Operand() types.Field {
	return p.operand
}

func (p *Predicate) String() string {
	return fmt.Sprintf("f[%d] %s %s", p.field, p.op, p.operand)
}
