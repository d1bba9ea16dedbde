// Package join holds the engine's two join strategies and the
// dispatcher that picks between them. An equality predicate gets the
// in-memory hash join; anything else falls back to the nested loop.
// Both emit merged tuples outer-fields-first and expose the combined
// schema of their children.
package join

import (
	"minnow/pkg/execution"
	"minnow/pkg/primitives"
)

// NewJoin builds the join operator for the predicate: a HashJoin for
// equality, a NestedLoopJoin otherwise. The outer child feeds the hash
// build side and the nested loop's outer cursor.
func NewJoin(predicate *JoinPredicate, outer, inner execution.DbIterator) (execution.DbIterator, error) {
	if predicate == nil {
		return nil, errNil("predicate")
	}
	if outer == nil {
		return nil, errNil("outer child")
	}
	if inner == nil {
		return nil, errNil("inner child")
	}

	if predicate.Op() == primitives.Equals {
		return NewHashJoin(predicate, outer, inner)
	}
	return NewNestedLoopJoin(predicate, outer, inner)
}
