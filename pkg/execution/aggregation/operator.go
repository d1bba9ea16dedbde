package aggregation

import (
	"fmt"

	"minnow/pkg/errs"
	"minnow/pkg/execution"
	"minnow/pkg/tuple"
	"minnow/pkg/types"
)

// Aggregate is the operator face of an aggregator. It is a pipeline
// breaker: Open fully drains and closes the child, then iteration
// walks the computed groups. Rewind restarts that walk without
// rescanning the child.
//
// The aggregate output column is named "field(OP)" after the child's
// field it folds.
type Aggregate struct {
	base       *execution.BaseIterator
	child      execution.DbIterator
	aggField   int
	groupField int
	op         AggregateOp
	agg        Aggregator
	results    []*tuple.Tuple
	cursor     int
}

func NewAggregate(child execution.DbIterator, aggField, groupField int, op AggregateOp) (*Aggregate, error) {
	if child == nil {
		return nil, errs.Db("child operator cannot be nil")
	}

	childTd := child.GetTupleDesc()
	aggType, err := childTd.TypeAtIndex(aggField)
	if err != nil {
		return nil, err
	}

	groupType := types.IntType
	if groupField != NoGrouping {
		groupType, err = childTd.TypeAtIndex(groupField)
		if err != nil {
			return nil, err
		}
	}

	fieldName, err := childTd.FieldName(aggField)
	if err != nil {
		return nil, err
	}
	resultName := fmt.Sprintf("%s(%s)", fieldName, op)

	var agg Aggregator
	switch aggType {
	case types.IntType:
		agg, err = NewIntAggregator(groupField, groupType, aggField, op, resultName)
	case types.StringType:
		agg, err = NewStringAggregator(groupField, groupType, aggField, op, resultName)
	default:
		err = errs.Db("cannot aggregate over type %v", aggType)
	}
	if err != nil {
		return nil, err
	}

	a := &Aggregate{
		child:      child,
		aggField:   aggField,
		groupField: groupField,
		op:         op,
		agg:        agg,
	}
	a.base = execution.NewBaseIterator(a.readNext)
	return a, nil
}

// Open drains the child into the aggregator and closes it before the
// first group is emitted.
func (a *Aggregate) Open() error {
	if err := a.child.Open(); err != nil {
		return err
	}

	if err := a.drain(); err != nil {
		a.child.Close()
		return err
	}
	if err := a.child.Close(); err != nil && errs.IsTxnAborted(err) {
		return err
	}

	results, err := a.agg.Results()
	if err != nil {
		return err
	}
	a.results = results
	a.cursor = 0
	a.base.MarkOpened()
	return nil
}

func (a *Aggregate) drain() error {
	for {
		ok, err := a.child.HasNext()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		t, err := a.child.Next()
		if err != nil {
			return err
		}
		if err := a.agg.Merge(t); err != nil {
			return err
		}
	}
}

func (a *Aggregate) readNext() (*tuple.Tuple, error) {
	if a.cursor >= len(a.results) {
		return nil, nil
	}
	t := a.results[a.cursor]
	a.cursor++
	return t, nil
}

func (a *Aggregate) HasNext() (bool, error) {
	return a.base.HasNext()
}

func (a *Aggregate) Next() (*tuple.Tuple, error) {
	return a.base.Next()
}

// Rewind restarts iteration over the computed groups.
func (a *Aggregate) Rewind() error {
	if a.results == nil {
		return errs.Db("cannot rewind an aggregate that is not open")
	}
	a.cursor = 0
	a.base.ClearCache()
	return nil
}

func (a *Aggregate) Close() error {
	a.results = nil
	return a.base.Close()
}

// GetTupleDesc returns (groupType, INT) when grouping, (INT) otherwise.
func (a *Aggregate) GetTupleDesc() *tuple.TupleDescription {
	return a.agg.GetTupleDesc()
}
