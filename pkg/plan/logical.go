package plan

import (
	"strings"

	"minnow/pkg/catalog"
	"minnow/pkg/errs"
	"minnow/pkg/execution"
	"minnow/pkg/execution/aggregation"
	"minnow/pkg/primitives"
)

// LogicalPlan is a query after parsing and before optimization: scan,
// filter and join nodes, a select list, and at most one aggregate,
// one group-by field and one order-by field. The physical planner
// turns it into an operator tree after the join optimizer orders its
// joins.
type LogicalPlan struct {
	cat      *catalog.Catalog
	scans    []*ScanNode
	filters  []*FilterNode
	joins    []*JoinNode
	aliasMap map[string]primitives.TableID

	selectList []*SelectListNode
	hasAgg     bool
	aggOp      string
	aggField   string
	groupBy    string

	hasOrderBy   bool
	orderByField string
	orderByAsc   bool
}

func NewLogicalPlan(cat *catalog.Catalog) *LogicalPlan {
	return &LogicalPlan{
		cat:      cat,
		aliasMap: make(map[string]primitives.TableID),
	}
}

// TableID resolves a scan alias to the table it names.
func (lp *LogicalPlan) TableID(alias string) (primitives.TableID, error) {
	id, ok := lp.aliasMap[alias]
	if !ok {
		return 0, errs.Parse("alias %q is not a scanned table", alias)
	}
	return id, nil
}

// AddScan registers a base table access under an alias. One scan node
// is needed per alias, even when a table is scanned twice.
func (lp *LogicalPlan) AddScan(tableID primitives.TableID, alias string) error {
	if _, dup := lp.aliasMap[alias]; dup {
		return errs.Parse("duplicate table alias %q", alias)
	}
	lp.scans = append(lp.scans, &ScanNode{TableID: tableID, Alias: alias})
	lp.aliasMap[alias] = tableID
	return nil
}

// AddFilter restricts a field by a constant. The field may be
// qualified or bare; a bare name must be unambiguous across the
// scanned tables.
func (lp *LogicalPlan) AddFilter(field string, op primitives.Predicate, constant string) error {
	qualified, err := lp.disambiguateName(field)
	if err != nil {
		return err
	}

	alias, fieldName := splitQualified(qualified)
	if fieldName == "*" {
		return errs.Parse("invalid field '*' in filter")
	}

	lp.filters = append(lp.filters, &FilterNode{
		Alias:         alias,
		FieldName:     fieldName,
		QualifiedName: qualified,
		Op:            op,
		Constant:      constant,
	})
	return nil
}

// AddJoin joins two fields of two different scanned tables.
func (lp *LogicalPlan) AddJoin(field1, field2 string, op primitives.Predicate) error {
	q1, err := lp.disambiguateName(field1)
	if err != nil {
		return err
	}
	q2, err := lp.disambiguateName(field2)
	if err != nil {
		return err
	}

	a1, f1 := splitQualified(q1)
	a2, f2 := splitQualified(q2)
	if f1 == "*" || f2 == "*" {
		return errs.Parse("cannot join on '*'")
	}
	if a1 == a2 {
		return errs.Parse("cannot join two fields of the same table alias %q", a1)
	}

	lp.joins = append(lp.joins, &JoinNode{
		T1Alias:     a1,
		T2Alias:     a2,
		F1Name:      f1,
		F2Name:      f2,
		F1Qualified: q1,
		F2Qualified: q2,
		Op:          op,
	})
	return nil
}

// AddSubplanJoin joins a field against a subplan; the subplan's join
// field is the first field of its result set.
func (lp *LogicalPlan) AddSubplanJoin(field1 string, subplan execution.DbIterator, op primitives.Predicate) error {
	if subplan == nil {
		return errs.Parse("invalid subquery")
	}

	q1, err := lp.disambiguateName(field1)
	if err != nil {
		return err
	}
	a1, f1 := splitQualified(q1)

	lp.joins = append(lp.joins, &JoinNode{
		T1Alias:     a1,
		F1Name:      f1,
		F1Qualified: q1,
		Op:          op,
		SubPlan:     subplan,
	})
	return nil
}

// AddProjectField appends an output column. aggOp is empty for a plain
// column.
func (lp *LogicalPlan) AddProjectField(field, aggOp string) error {
	qualified, err := lp.disambiguateName(field)
	if err != nil {
		return err
	}
	lp.selectList = append(lp.selectList, &SelectListNode{QualifiedName: qualified, AggOp: aggOp})
	return nil
}

// AddAggregate sets the query's single aggregate: op over afield,
// optionally grouped by gfield.
func (lp *LogicalPlan) AddAggregate(op, afield, gfield string) error {
	qualified, err := lp.disambiguateName(afield)
	if err != nil {
		return err
	}
	lp.aggOp = op
	lp.aggField = qualified

	if gfield != "" {
		grouped, err := lp.disambiguateName(gfield)
		if err != nil {
			return err
		}
		lp.groupBy = grouped
	}
	lp.hasAgg = true
	return nil
}

// AddOrderBy sets the query's single ORDER BY field.
func (lp *LogicalPlan) AddOrderBy(field string, asc bool) error {
	qualified, err := lp.disambiguateName(field)
	if err != nil {
		return err
	}
	if _, f := splitQualified(qualified); f == "*" {
		return errs.Parse("ORDER BY * is not supported")
	}
	lp.orderByField = qualified
	lp.orderByAsc = asc
	lp.hasOrderBy = true
	return nil
}

// disambiguateName resolves a possibly-unqualified field name to
// "alias.field" by searching the scanned tables. "*" and "null.*"
// stand for all fields.
func (lp *LogicalPlan) disambiguateName(name string) (string, error) {
	if name == "*" || name == "null.*" {
		return "null.*", nil
	}

	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return "", errs.Parse("%q is not a valid field reference", name)
	}

	if len(parts) == 2 && parts[0] != "null" {
		alias, field := parts[0], parts[1]
		tableID, ok := lp.aliasMap[alias]
		if !ok {
			return "", errs.Parse("field %q references an unknown table", name)
		}
		if field == "*" {
			return name, nil
		}
		td, err := lp.cat.GetTupleDesc(tableID)
		if err != nil {
			return "", err
		}
		if !hasField(td.FieldNames, field) {
			return "", errs.Parse("field %q does not exist", name)
		}
		return name, nil
	}

	field := parts[len(parts)-1]

	owner := ""
	for _, scan := range lp.scans {
		td, err := lp.cat.GetTupleDesc(scan.TableID)
		if err != nil {
			return "", err
		}
		if hasField(td.FieldNames, field) {
			if owner != "" {
				return "", errs.Parse("field %q appears in multiple tables", field)
			}
			owner = scan.Alias
		}
	}
	if owner == "" {
		return "", errs.Parse("field %q does not exist", field)
	}
	return owner + "." + field, nil
}

func hasField(names []string, field string) bool {
	for _, n := range names {
		if n == field {
			return true
		}
	}
	return false
}

func splitQualified(qualified string) (alias, field string) {
	if i := strings.IndexByte(qualified, '.'); i >= 0 {
		return qualified[:i], qualified[i+1:]
	}
	return "", qualified
}

// GetAggOp maps an aggregate name from the select list to its
// operator.
func GetAggOp(s string) (aggregation.AggregateOp, error) {
	switch strings.ToUpper(s) {
	case "MIN":
		return aggregation.Min, nil
	case "MAX":
		return aggregation.Max, nil
	case "SUM":
		return aggregation.Sum, nil
	case "AVG":
		return aggregation.Avg, nil
	case "COUNT":
		return aggregation.Count, nil
	default:
		return 0, errs.Parse("unknown aggregate %q", s)
	}
}

func (lp *LogicalPlan) Scans() []*ScanNode            { return lp.scans }
func (lp *LogicalPlan) Filters() []*FilterNode        { return lp.filters }
func (lp *LogicalPlan) Joins() []*JoinNode            { return lp.joins }
func (lp *LogicalPlan) SelectList() []*SelectListNode { return lp.selectList }

func (lp *LogicalPlan) HasAggregate() bool                { return lp.hasAgg }
func (lp *LogicalPlan) Aggregate() (op, afield string)    { return lp.aggOp, lp.aggField }
func (lp *LogicalPlan) GroupBy() string                   { return lp.groupBy }
func (lp *LogicalPlan) HasOrderBy() bool                  { return lp.hasOrderBy }
func (lp *LogicalPlan) OrderBy() (field string, asc bool) { return lp.orderByField, lp.orderByAsc }

// Catalog returns the catalog the plan resolves names against.
func (lp *LogicalPlan) Catalog() *catalog.Catalog { return lp.cat }
