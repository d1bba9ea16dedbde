package aggregation

import (
	"minnow/pkg/errs"
	"minnow/pkg/tuple"
	"minnow/pkg/types"
)

// IntAggregator folds an integer field under any of the five
// aggregation ops. State is one running int64 per group, plus a count
// per group when averaging; AVG emits sum/count with integer division
// at results time.
type IntAggregator struct {
	groupField int
	groupType  types.Type
	aggField   int
	op         AggregateOp
	td         *tuple.TupleDescription

	results map[string]int64
	counts  map[string]int64
	groups  map[string]types.Field
	order   []string
}

// NewIntAggregator builds an aggregator over an INT field. groupField
// is NoGrouping for an ungrouped aggregate; resultName labels the
// output aggregate column.
func NewIntAggregator(groupField int, groupType types.Type, aggField int, op AggregateOp, resultName string) (*IntAggregator, error) {
	a := &IntAggregator{
		groupField: groupField,
		groupType:  groupType,
		aggField:   aggField,
		op:         op,
		results:    make(map[string]int64),
		counts:     make(map[string]int64),
		groups:     make(map[string]types.Field),
	}

	var err error
	if groupField == NoGrouping {
		a.td, err = tuple.NewTupleDesc([]types.Type{types.IntType}, []string{resultName})
	} else {
		a.td, err = tuple.NewTupleDesc([]types.Type{groupType, types.IntType}, []string{"group", resultName})
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *IntAggregator) GetTupleDesc() *tuple.TupleDescription {
	return a.td
}

func (a *IntAggregator) Merge(t *tuple.Tuple) error {
	key := noGroupKey
	var groupValue types.Field

	if a.groupField != NoGrouping {
		g, err := t.GetField(a.groupField)
		if err != nil {
			return err
		}
		if g.Type() != a.groupType {
			return errs.Db("group field is %v, expected %v", g.Type(), a.groupType)
		}
		key = g.String()
		groupValue = g
	}

	f, err := t.GetField(a.aggField)
	if err != nil {
		return err
	}
	intField, ok := f.(*types.IntField)
	if !ok {
		return errs.Db("aggregate field is %v, expected INT", f.Type())
	}
	v := int64(intField.Value)

	if _, seen := a.results[key]; !seen {
		a.order = append(a.order, key)
		a.groups[key] = groupValue
		switch a.op {
		case Min, Max:
			a.results[key] = v
		case Sum, Avg, Count:
			a.results[key] = 0
		}
	}

	switch a.op {
	case Min:
		if v < a.results[key] {
			a.results[key] = v
		}
	case Max:
		if v > a.results[key] {
			a.results[key] = v
		}
	case Sum:
		a.results[key] += v
	case Avg:
		a.results[key] += v
		a.counts[key]++
	case Count:
		a.results[key]++
	default:
		return errs.Db("unsupported integer aggregation %v", a.op)
	}
	return nil
}

func (a *IntAggregator) Results() ([]*tuple.Tuple, error) {
	out := make([]*tuple.Tuple, 0, len(a.order))
	for _, key := range a.order {
		value := a.results[key]
		if a.op == Avg {
			n := a.counts[key]
			if n == 0 {
				continue
			}
			value /= n
		}

		t := tuple.NewTuple(a.td)
		if a.groupField == NoGrouping {
			if err := t.SetField(0, types.NewIntField(int32(value))); err != nil {
				return nil, err
			}
		} else {
			if err := t.SetField(0, a.groups[key]); err != nil {
				return nil, err
			}
			if err := t.SetField(1, types.NewIntField(int32(value))); err != nil {
				return nil, err
			}
		}
		out = append(out, t)
	}
	return out, nil
}
