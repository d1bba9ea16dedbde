package aggregation

import (
	"minnow/pkg/errs"
	"minnow/pkg/tuple"
	"minnow/pkg/types"
)

// StringAggregator counts string fields per group. COUNT is the only
// aggregation defined over strings; anything else is rejected at
// construction.
type StringAggregator struct {
	groupField int
	groupType  types.Type
	aggField   int
	td         *tuple.TupleDescription

	counts map[string]int64
	groups map[string]types.Field
	order  []string
}

func NewStringAggregator(groupField int, groupType types.Type, aggField int, op AggregateOp, resultName string) (*StringAggregator, error) {
	if op != Count {
		return nil, errs.Db("unsupported string aggregation %v: only COUNT is defined over strings", op)
	}

	a := &StringAggregator{
		groupField: groupField,
		groupType:  groupType,
		aggField:   aggField,
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

func (a *StringAggregator) GetTupleDesc() *tuple.TupleDescription {
	return a.td
}

func (a *StringAggregator) Merge(t *tuple.Tuple) error {
	key := noGroupKey
	var groupValue types.Field

	if a.groupField != NoGrouping {
		g, err := t.GetField(a.groupField)
		if err != nil {
			return err
		}
		key = g.String()
		groupValue = g
	}

	f, err := t.GetField(a.aggField)
	if err != nil {
		return err
	}
	if _, ok := f.(*types.StringField); !ok {
		return errs.Db("aggregate field is %v, expected STRING", f.Type())
	}

	if _, seen := a.counts[key]; !seen {
		a.order = append(a.order, key)
		a.groups[key] = groupValue
	}
	a.counts[key]++
	return nil
}

func (a *StringAggregator) Results() ([]*tuple.Tuple, error) {
	out := make([]*tuple.Tuple, 0, len(a.order))
	for _, key := range a.order {
		t := tuple.NewTuple(a.td)
		if a.groupField == NoGrouping {
			if err := t.SetField(0, types.NewIntField(int32(a.counts[key]))); err != nil {
				return nil, err
			}
		} else {
			if err := t.SetField(0, a.groups[key]); err != nil {
				return nil, err
			}
			if err := t.SetField(1, types.NewIntField(int32(a.counts[key]))); err != nil {
				return nil, err
			}
		}
		out = append(out, t)
	}
	return out, nil
}
