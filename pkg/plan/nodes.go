package plan

import (
	pair "github.com/notEpsilon/go-pair"

	"minnow/pkg/execution"
	"minnow/pkg/primitives"
)

// ScanNode is one base table access in the logical plan, under its
// alias. The same table may appear several times under different
// aliases (self-joins).
type ScanNode struct {
	TableID primitives.TableID
	Alias   string
}

// FilterNode restricts one alias by comparing a field against a
// constant. The constant is carried as a string and parsed against the
// field's type when the physical plan is built.
type FilterNode struct {
	Alias         string
	FieldName     string
	QualifiedName string
	Op            primitives.Predicate
	Constant      string
}

// JoinNode is a join between two aliases, or between an alias and a
// subplan when SubPlan is set. For subplan joins T2Alias and F2Name
// are empty and the join field of the subplan is the first field of
// its result.
type JoinNode struct {
	T1Alias     string
	T2Alias     string
	F1Name      string
	F2Name      string
	F1Qualified string
	F2Qualified string
	Op          primitives.Predicate
	SubPlan     execution.DbIterator
}

// IsSubplanJoin reports whether the inner side is a subplan rather
// than a base table.
func (j *JoinNode) IsSubplanJoin() bool {
	return j.SubPlan != nil
}

// SwapInnerOuter returns the node with its two sides exchanged and the
// operator mirrored (GT and LT, GE and LE trade places). Subplan joins
// cannot swap: the base table stays on the outside, so callers must
// check IsSubplanJoin first.
func (j *JoinNode) SwapInnerOuter() *JoinNode {
	return &JoinNode{
		T1Alias:     j.T2Alias,
		T2Alias:     j.T1Alias,
		F1Name:      j.F2Name,
		F2Name:      j.F1Name,
		F1Qualified: j.F2Qualified,
		F2Qualified: j.F1Qualified,
		Op:          j.Op.Swap(),
	}
}

// AliasPair is the unordered pair of aliases this join touches, with
// the lexicographically smaller alias first. Two joins are considered
// the same join exactly when their alias pairs match, regardless of
// which side is written first and of the field names involved.
func (j *JoinNode) AliasPair() pair.Pair[string, string] {
	if j.T2Alias < j.T1Alias {
		return pair.Pair[string, string]{First: j.T2Alias, Second: j.T1Alias}
	}
	return pair.Pair[string, string]{First: j.T1Alias, Second: j.T2Alias}
}

// Equals reports whether the two nodes join the same unordered alias
// pair.
func (j *JoinNode) Equals(other *JoinNode) bool {
	if other == nil {
		return false
	}
	return j.AliasPair() == other.AliasPair()
}

func (j *JoinNode) String() string {
	if j.IsSubplanJoin() {
		return j.T1Alias + ":<subplan>"
	}
	return j.T1Alias + ":" + j.T2Alias
}

// SelectListNode is one output column: a qualified field, optionally
// wrapped in an aggregate.
type SelectListNode struct {
	QualifiedName string
	AggOp         string // "" when the column is not aggregated
}
