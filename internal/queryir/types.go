package queryir

// Query is the complete IR for one analytics question.
type Query struct {
	Intent      string        `json:"intent,omitempty"`
	Projections []Projection  `json:"projections"`
	Filters     *WhereGroup   `json:"filters,omitempty"`
	Having      *HavingGroup  `json:"having,omitempty"`
	GroupBy     []GroupByItem `json:"group_by,omitempty"`
	OrderBy     []OrderByItem `json:"order_by,omitempty"`
	Limit       *int          `json:"limit,omitempty"`
	Offset      *int          `json:"offset,omitempty"`
}

// ProjectionType distinguishes plain entity projections from aggregations.
type ProjectionType string

const (
	ProjectionEntity      ProjectionType = "entity"
	ProjectionAggregation ProjectionType = "aggregation"
)

// AggregateOp is an aggregation function applied to a projected entity.
type AggregateOp string

const (
	AggSum   AggregateOp = "SUM"
	AggCount AggregateOp = "COUNT"
	AggAvg   AggregateOp = "AVG"
	AggMax   AggregateOp = "MAX"
	AggMin   AggregateOp = "MIN"
)

// Projection is one SELECT item.
type Projection struct {
	Type   ProjectionType `json:"type,omitempty"` // empty means entity
	Entity string         `json:"entity"`
	Op     AggregateOp    `json:"op,omitempty"`
	Alias  string         `json:"alias,omitempty"`
}

// IsAggregation reports whether the projection applies an aggregate function.
func (p Projection) IsAggregation() bool {
	return p.Type == ProjectionAggregation
}

// GroupByItem is one GROUP BY entity.
type GroupByItem struct {
	Entity string `json:"entity"`
}

// Direction is an ORDER BY sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrderByItem orders by an entity or by a projection alias.
type OrderByItem struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction,omitempty"` // empty means ASC
}

// Dir returns the effective direction.
func (o OrderByItem) Dir() Direction {
	if o.Direction == "" {
		return Asc
	}
	return o.Direction
}

// LogicalOperator joins the children of a LogicalGroup.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// Operator is a comparison token in a leaf condition. The set is open on the
// wire; the compiler rejects tokens it cannot translate.
type Operator string

const (
	OpEqual       Operator = "EQUAL"
	OpNotEqual    Operator = "NOT_EQUAL"
	OpGreaterThan Operator = "GREATER_THAN"
	OpLessThan    Operator = "LESS_THAN"
	OpGTE         Operator = "GTE"
	OpLTE         Operator = "LTE"
	OpIn          Operator = "IN"
	OpContains    Operator = "CONTAINS"
)

// Condition is the set of leaf types a filter tree may be built from.
type Condition interface {
	WhereCondition | HavingCondition
}

// FilterNode is a node of a filter tree whose leaves are of type C.
//
// This is a sealed interface: only LogicalGroup[C] and C itself implement it.
type FilterNode[C Condition] interface {
	filterNode(C) // Marker method - seals interface and pins the leaf type
}

// LogicalGroup combines ordered children with one uniform operator. Mixed
// operators require nested groups.
type LogicalGroup[C Condition] struct {
	Operator LogicalOperator
	Children []FilterNode[C]
}

func (LogicalGroup[C]) filterNode(C) {}

// WhereCondition compares a semantic entity against a literal.
type WhereCondition struct {
	Entity string
	Op     Operator
	Value  Value
}

func (WhereCondition) filterNode(WhereCondition) {}

// HavingCondition compares a projection alias against a literal. The alias
// is never resolved against the semantic layer.
type HavingCondition struct {
	Alias string
	Op    Operator
	Value Value
}

func (HavingCondition) filterNode(HavingCondition) {}

type (
	WhereNode   = FilterNode[WhereCondition]
	HavingNode  = FilterNode[HavingCondition]
	WhereGroup  = LogicalGroup[WhereCondition]
	HavingGroup = LogicalGroup[HavingCondition]
)

// Where builds a WHERE group.
func Where(op LogicalOperator, children ...WhereNode) *WhereGroup {
	return &WhereGroup{Operator: op, Children: children}
}

// Having builds a HAVING group.
func Having(op LogicalOperator, children ...HavingNode) *HavingGroup {
	return &HavingGroup{Operator: op, Children: children}
}

// Cond builds a WHERE leaf.
func Cond(entity string, op Operator, value Value) WhereCondition {
	return WhereCondition{Entity: entity, Op: op, Value: value}
}

// AliasCond builds a HAVING leaf.
func AliasCond(alias string, op Operator, value Value) HavingCondition {
	return HavingCondition{Alias: alias, Op: op, Value: value}
}

// Walk visits every leaf of the tree rooted at n in depth-first order.
// Group nodes are traversed, not reported.
func Walk[C Condition](n FilterNode[C], visit func(C)) {
	switch node := n.(type) {
	case LogicalGroup[C]:
		for _, child := range node.Children {
			Walk(child, visit)
		}
	case *LogicalGroup[C]:
		if node == nil {
			return
		}
		for _, child := range node.Children {
			Walk(child, visit)
		}
	case C:
		visit(node)
	}
}
