// Package optimizer orders the joins of a logical plan with a
// Selinger-style dynamic program over subsets of the join list, priced
// by histogram-backed statistics.
package optimizer

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"minnow/pkg/errs"
	"minnow/pkg/execution"
	"minnow/pkg/execution/join"
	"minnow/pkg/logging"
	"minnow/pkg/optimizer/statistics"
	"minnow/pkg/plan"
	"minnow/pkg/primitives"
)

// JoinOptimizer orders the joins of one logical plan.
type JoinOptimizer struct {
	lp    *plan.LogicalPlan
	joins []*plan.JoinNode
}

func NewJoinOptimizer(lp *plan.LogicalPlan, joins []*plan.JoinNode) *JoinOptimizer {
	return &JoinOptimizer{lp: lp, joins: joins}
}

// costCard is one cached DP answer: the best cost and cardinality for
// a subset of the joins, and the join order achieving it.
type costCard struct {
	cost float64
	card int
	plan []*plan.JoinNode
}

// baseTable is the costed access of one scanned alias: a full scan
// with the alias's filter selectivity already applied to the
// cardinality.
type baseTable struct {
	cost float64
	card int
}

// OrderJoins returns the joins reordered so that executing them in
// sequence (each join's left side being the plan built so far)
// minimizes the estimated cost. selectivities carries the product of
// filter selectivities per alias.
func (jo *JoinOptimizer) OrderJoins(stats *statistics.StatsCatalog, selectivities map[string]float64) ([]*plan.JoinNode, error) {
	if len(jo.joins) == 0 {
		return jo.joins, nil
	}

	cache := make(map[string]*costCard)

	for k := 1; k <= len(jo.joins); k++ {
		for _, subset := range subsetsOfSize(len(jo.joins), k) {
			best, err := jo.bestPlanForSubset(stats, selectivities, subset, cache)
			if err != nil {
				return nil, err
			}
			if best != nil {
				cache[subsetKey(subset)] = best
			}
		}
	}

	full := mapset.NewSet[int]()
	for i := range jo.joins {
		full.Add(i)
	}
	answer := cache[subsetKey(full)]
	if answer == nil {
		return nil, errs.Db("joins do not form a connected plan")
	}

	logging.GetLogger().Debug("join order chosen",
		"joins", len(answer.plan),
		"cost", answer.cost,
		"card", answer.card,
		"order", planString(answer.plan))
	return answer.plan, nil
}

// bestPlanForSubset extends every (subset minus one join) plan by the
// removed join and keeps the cheapest result. Ties break toward the
// lexicographically smaller join order, which keeps plan choice
// deterministic.
func (jo *JoinOptimizer) bestPlanForSubset(stats *statistics.StatsCatalog, selectivities map[string]float64, subset mapset.Set[int], cache map[string]*costCard) (*costCard, error) {
	var best *costCard

	for _, idx := range sortedSlice(subset) {
		rest := subset.Clone()
		rest.Remove(idx)

		cc, err := jo.extendPlan(stats, selectivities, jo.joins[idx], rest, cache)
		if err != nil {
			return nil, err
		}
		if cc == nil {
			continue
		}
		if best == nil || cc.cost < best.cost ||
			(cc.cost == best.cost && planString(cc.plan) < planString(best.plan)) {
			best = cc
		}
	}
	return best, nil
}

// extendPlan prices joining j onto the best plan of rest. With an
// empty rest both orientations of j are priced and the cheaper wins;
// otherwise j is oriented so the existing plan is the outer side.
func (jo *JoinOptimizer) extendPlan(stats *statistics.StatsCatalog, selectivities map[string]float64, j *plan.JoinNode, rest mapset.Set[int], cache map[string]*costCard) (*costCard, error) {
	if rest.Cardinality() == 0 {
		return jo.priceFirstJoin(stats, selectivities, j)
	}

	prev := cache[subsetKey(rest)]
	if prev == nil {
		return nil, nil
	}

	aliases := planAliases(prev.plan)
	t1In := aliases[j.T1Alias]
	t2In := !j.IsSubplanJoin() && aliases[j.T2Alias]

	switch {
	case t1In && t2In:
		// Both sides already joined; j adds nothing here.
		return nil, nil
	case t2In:
		if j.IsSubplanJoin() {
			return nil, nil
		}
		j = j.SwapInnerOuter()
	case !t1In:
		// Disconnected from the plan so far.
		return nil, nil
	}

	inner, err := jo.innerSide(stats, selectivities, j)
	if err != nil {
		return nil, err
	}

	cost := jo.estimateJoinCost(j, prev.card, inner.card, prev.cost, inner.cost)
	card, err := jo.estimateJoinCardinality(j, prev.card, inner.card)
	if err != nil {
		return nil, err
	}

	ordered := make([]*plan.JoinNode, 0, len(prev.plan)+1)
	ordered = append(ordered, prev.plan...)
	ordered = append(ordered, j)
	return &costCard{cost: cost, card: card, plan: ordered}, nil
}

// priceFirstJoin prices a single join as the bottom of the plan,
// considering both side orders.
func (jo *JoinOptimizer) priceFirstJoin(stats *statistics.StatsCatalog, selectivities map[string]float64, j *plan.JoinNode) (*costCard, error) {
	candidates := []*plan.JoinNode{j}
	if !j.IsSubplanJoin() {
		candidates = append(candidates, j.SwapInnerOuter())
	}

	var best *costCard
	for _, cand := range candidates {
		outer, err := jo.lookupBase(stats, selectivities, cand.T1Alias)
		if err != nil {
			return nil, err
		}
		inner, err := jo.innerSide(stats, selectivities, cand)
		if err != nil {
			return nil, err
		}

		cost := jo.estimateJoinCost(cand, outer.card, inner.card, outer.cost, inner.cost)
		card, err := jo.estimateJoinCardinality(cand, outer.card, inner.card)
		if err != nil {
			return nil, err
		}

		cc := &costCard{cost: cost, card: card, plan: []*plan.JoinNode{cand}}
		if best == nil || cc.cost < best.cost ||
			(cc.cost == best.cost && planString(cc.plan) < planString(best.plan)) {
			best = cc
		}
	}
	return best, nil
}

// innerSide is the costed right side of j: a base table, or the
// opaque subplan, which is priced as a cheap single-row inner since
// nothing is known about it.
func (jo *JoinOptimizer) innerSide(stats *statistics.StatsCatalog, selectivities map[string]float64, j *plan.JoinNode) (*baseTable, error) {
	if j.IsSubplanJoin() {
		return &baseTable{cost: 0, card: 1}, nil
	}
	return jo.lookupBase(stats, selectivities, j.T2Alias)
}

func (jo *JoinOptimizer) lookupBase(stats *statistics.StatsCatalog, selectivities map[string]float64, alias string) (*baseTable, error) {
	tableID, err := jo.lp.TableID(alias)
	if err != nil {
		return nil, err
	}
	name, err := jo.lp.Catalog().GetTableName(tableID)
	if err != nil {
		return nil, err
	}
	ts, err := stats.Get(name)
	if err != nil {
		return nil, err
	}

	sel, ok := selectivities[alias]
	if !ok {
		sel = 1.0
	}
	return &baseTable{
		cost: ts.EstimateScanCost(),
		card: ts.EstimateTableCardinality(sel),
	}, nil
}

// estimateJoinCost prices one join given its child costs and
// cardinalities. An equijoin runs as a hash join: build the outer,
// stream the probe. Anything else runs the nested loop.
func (jo *JoinOptimizer) estimateJoinCost(j *plan.JoinNode, card1, card2 int, cost1, cost2 float64) float64 {
	if j.Op == primitives.Equals {
		return cost1 + float64(card1) + cost2
	}
	return cost1 + float64(card1)*cost2 + float64(card1)*float64(card2)
}

// estimateJoinCardinality estimates the output size of one join. An
// equality on a primary key cannot fan out past the other side's
// cardinality; general predicates keep a fixed 0.3 fraction of the
// cross product, never estimating below one row.
func (jo *JoinOptimizer) estimateJoinCardinality(j *plan.JoinNode, card1, card2 int) (int, error) {
	if j.Op != primitives.Equals {
		card := int(0.3 * float64(card1) * float64(card2))
		if card < 1 {
			card = 1
		}
		return card, nil
	}

	t1pk, err := jo.isPrimaryKey(j.T1Alias, j.F1Name)
	if err != nil {
		return 0, err
	}
	t2pk := false
	if !j.IsSubplanJoin() {
		t2pk, err = jo.isPrimaryKey(j.T2Alias, j.F2Name)
		if err != nil {
			return 0, err
		}
	}

	switch {
	case t1pk && t2pk:
		if card1 < card2 {
			return card1, nil
		}
		return card2, nil
	case t1pk:
		return card2, nil
	case t2pk:
		return card1, nil
	default:
		if card1 > card2 {
			return card1, nil
		}
		return card2, nil
	}
}

func (jo *JoinOptimizer) isPrimaryKey(alias, fieldName string) (bool, error) {
	tableID, err := jo.lp.TableID(alias)
	if err != nil {
		return false, err
	}
	pkey, err := jo.lp.Catalog().GetPrimaryKey(tableID)
	if err != nil {
		return false, err
	}
	return pkey != "" && pkey == fieldName, nil
}

// planAliases collects every alias a join order touches.
func planAliases(nodes []*plan.JoinNode) map[string]bool {
	aliases := make(map[string]bool)
	for _, n := range nodes {
		aliases[n.T1Alias] = true
		if !n.IsSubplanJoin() {
			aliases[n.T2Alias] = true
		}
	}
	return aliases
}

func planString(nodes []*plan.JoinNode) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, ",")
}

// InstantiateJoin builds the physical operator for an ordered join
// node over its resolved child plans. The join field indexes are
// looked up in the children's schemas; a subplan's join field is the
// first field of its result.
func InstantiateJoin(j *plan.JoinNode, outer, inner execution.DbIterator) (execution.DbIterator, error) {
	f1, err := outer.GetTupleDesc().NameToIndex(j.F1Qualified)
	if err != nil {
		return nil, err
	}

	f2 := 0
	if !j.IsSubplanJoin() {
		f2, err = inner.GetTupleDesc().NameToIndex(j.F2Qualified)
		if err != nil {
			return nil, err
		}
	}

	pred, err := join.NewJoinPredicate(f1, f2, j.Op)
	if err != nil {
		return nil, err
	}
	return join.NewJoin(pred, outer, inner)
}
