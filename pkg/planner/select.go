// Package planner turns a logical plan into the physical operator
// tree that executes it: scans under filters, joins in optimizer
// order, then aggregation, ordering and projection.
package planner

import (
	"minnow/pkg/concurrency/transaction"
	"minnow/pkg/errs"
	"minnow/pkg/execution"
	"minnow/pkg/execution/aggregation"
	"minnow/pkg/logging"
	"minnow/pkg/memory"
	"minnow/pkg/optimizer"
	"minnow/pkg/optimizer/statistics"
	"minnow/pkg/plan"
	"minnow/pkg/types"
)

// BuildPhysicalPlan converts lp into an operator tree running under
// tid. Statistics drive both filter selectivity bookkeeping and the
// join order.
func BuildPhysicalPlan(tid *transaction.TransactionID, lp *plan.LogicalPlan, stats *statistics.StatsCatalog, pool *memory.PageStore) (execution.DbIterator, error) {
	cat := lp.Catalog()
	log := logging.GetLogger()

	// Every scan starts as a sequential scan with selectivity 1.
	subplans := make(map[string]execution.DbIterator)
	selectivities := make(map[string]float64)
	for _, scan := range lp.Scans() {
		ss, err := execution.NewSeqScan(tid, scan.TableID, scan.Alias, cat, pool)
		if err != nil {
			return nil, err
		}
		subplans[scan.Alias] = ss
		selectivities[scan.Alias] = 1.0
	}

	// Filters stack on their alias's plan and shrink its estimated
	// cardinality.
	for _, fn := range lp.Filters() {
		child, ok := subplans[fn.Alias]
		if !ok {
			return nil, errs.Parse("filter references unknown alias %q", fn.Alias)
		}

		td := child.GetTupleDesc()
		fieldIndex, err := td.NameToIndex(fn.QualifiedName)
		if err != nil {
			return nil, errs.Parse("unknown filter field %q", fn.QualifiedName)
		}
		fieldType, err := td.TypeAtIndex(fieldIndex)
		if err != nil {
			return nil, err
		}
		constant, err := types.ParseField(fieldType, fn.Constant)
		if err != nil {
			return nil, err
		}

		pred := execution.NewPredicate(fieldIndex, fn.Op, constant)
		filtered, err := execution.NewFilter(pred, child)
		if err != nil {
			return nil, err
		}
		subplans[fn.Alias] = filtered

		tableID, err := lp.TableID(fn.Alias)
		if err != nil {
			return nil, err
		}
		tableName, err := cat.GetTableName(tableID)
		if err != nil {
			return nil, err
		}
		ts, err := stats.Get(tableName)
		if err != nil {
			return nil, err
		}
		sel, err := ts.EstimateSelectivity(fieldIndex, fn.Op, constant)
		if err != nil {
			return nil, err
		}
		selectivities[fn.Alias] *= sel
	}

	// Order the joins, then fold them into the subplan map. equivMap
	// tracks which alias stands for an already-joined subtree.
	ordered, err := optimizer.NewJoinOptimizer(lp, lp.Joins()).OrderJoins(stats, selectivities)
	if err != nil {
		return nil, err
	}

	equivMap := make(map[string]string)
	canonical := func(alias string) string {
		if c, ok := equivMap[alias]; ok {
			return c
		}
		return alias
	}

	for _, jn := range ordered {
		leftKey := canonical(jn.T1Alias)
		leftPlan, ok := subplans[leftKey]
		if !ok {
			return nil, errs.Parse("join references unknown alias %q", jn.T1Alias)
		}

		var rightKey string
		var rightPlan execution.DbIterator
		if jn.IsSubplanJoin() {
			rightPlan = jn.SubPlan
		} else {
			rightKey = canonical(jn.T2Alias)
			rightPlan, ok = subplans[rightKey]
			if !ok {
				return nil, errs.Parse("join references unknown alias %q", jn.T2Alias)
			}
		}

		joined, err := optimizer.InstantiateJoin(jn, leftPlan, rightPlan)
		if err != nil {
			return nil, err
		}
		subplans[leftKey] = joined

		if !jn.IsSubplanJoin() {
			delete(subplans, rightKey)
			equivMap[rightKey] = leftKey
			for alias, target := range equivMap {
				if target == rightKey {
					equivMap[alias] = leftKey
				}
			}
		}
	}

	if len(subplans) > 1 {
		return nil, errs.Db("query does not include join expressions joining all tables")
	}

	var node execution.DbIterator
	for _, p := range subplans {
		node = p
	}
	if node == nil {
		return nil, errs.Parse("query references no tables")
	}

	node, outFields, outTypes, err := applyAggregate(lp, node)
	if err != nil {
		return nil, err
	}

	if lp.HasOrderBy() {
		field, asc := lp.OrderBy()
		idx, err := node.GetTupleDesc().NameToIndex(field)
		if err != nil {
			return nil, errs.Parse("unknown ORDER BY field %q", field)
		}
		node, err = execution.NewOrderBy(idx, asc, node)
		if err != nil {
			return nil, err
		}
	}

	log.Debug("physical plan built",
		"scans", len(lp.Scans()),
		"filters", len(lp.Filters()),
		"joins", len(ordered))
	return execution.NewProject(outFields, outTypes, node)
}

// applyAggregate validates the select list against the aggregate
// clause, wraps node in the Aggregate operator when one is present,
// and computes the projection the final Project applies.
func applyAggregate(lp *plan.LogicalPlan, node execution.DbIterator) (execution.DbIterator, []int, []types.Type, error) {
	td := node.GetTupleDesc()
	selectList := lp.SelectList()

	if !lp.HasAggregate() {
		var outFields []int
		var outTypes []types.Type
		for _, sn := range selectList {
			if sn.QualifiedName == "null.*" {
				for i := 0; i < td.NumFields(); i++ {
					outFields = append(outFields, i)
					outTypes = append(outTypes, td.Types[i])
				}
				continue
			}
			idx, err := td.NameToIndex(sn.QualifiedName)
			if err != nil {
				return nil, nil, nil, errs.Parse("unknown select field %q", sn.QualifiedName)
			}
			outFields = append(outFields, idx)
			outTypes = append(outTypes, td.Types[idx])
		}
		return node, outFields, outTypes, nil
	}

	// With aggregation the output is one column (the aggregate) or two
	// (group, aggregate), and the select list must match that shape.
	var outFields []int
	var outTypes []types.Type
	idx := 0
	groupBy := lp.GroupBy()
	if groupBy != "" {
		if len(selectList) == 0 || selectList[0].QualifiedName != groupBy {
			return nil, nil, nil, errs.Parse("the first select field must be the GROUP BY field")
		}
		gIdx, err := td.NameToIndex(groupBy)
		if err != nil {
			return nil, nil, nil, errs.Parse("unknown GROUP BY field %q", groupBy)
		}
		outFields = append(outFields, idx)
		outTypes = append(outTypes, td.Types[gIdx])
		idx++
	}

	if len(selectList) != idx+1 {
		return nil, nil, nil, errs.Parse("with aggregation the select list must have exactly %d fields", idx+1)
	}
	if selectList[idx].AggOp == "" {
		return nil, nil, nil, errs.Parse("select field %d must be an aggregate", idx+1)
	}
	outFields = append(outFields, idx)
	outTypes = append(outTypes, types.IntType)

	opName, aggField := lp.Aggregate()
	op, err := plan.GetAggOp(opName)
	if err != nil {
		return nil, nil, nil, err
	}

	aggIdx, err := td.NameToIndex(aggField)
	if err != nil {
		return nil, nil, nil, errs.Parse("unknown aggregate field %q", aggField)
	}
	groupIdx := aggregation.NoGrouping
	if groupBy != "" {
		groupIdx, err = td.NameToIndex(groupBy)
		if err != nil {
			return nil, nil, nil, errs.Parse("unknown GROUP BY field %q", groupBy)
		}
	}

	agg, err := aggregation.NewAggregate(node, aggIdx, groupIdx, op)
	if err != nil {
		return nil, nil, nil, err
	}
	return agg, outFields, outTypes, nil
}
