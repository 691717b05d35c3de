package queryir

import (
	"fmt"
	"strings"
)

// Validation error codes (E200-E299)
const (
	ErrMalformedDocument   = "E200" // JSON document could not be decoded
	ErrProjectionNoEntity  = "E201" // projection missing entity
	ErrProjectionType      = "E202" // projection type not entity|aggregation
	ErrAggregationNoOp     = "E203" // aggregation without op
	ErrEmptyGroup          = "E204" // logical group without children
	ErrLogicalOperator     = "E205" // group operator not AND|OR
	ErrConditionNoName     = "E206" // leaf without entity / alias
	ErrOrderDirection      = "E207" // direction not ASC|DESC
	ErrNegativeLimit       = "E208" // negative limit or offset
	ErrOrderByNoField      = "E209" // order_by item missing field
	ErrGroupByNoEntity     = "E210" // group_by item missing entity
	ErrInvalidNumber       = "E211" // number literal is not a decimal
	ErrNilNode             = "E212" // nil child in a filter tree
	ErrConditionNoOperator = "E213" // leaf without op
)

// ValidationError describes one structural problem in a Query.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the structural rules the compiler relies on and returns
// every problem found (it does not fail fast). It does not consult the
// semantic layer and does not judge operator tokens; unknown entities and
// untranslatable operators are compile-time errors.
//
// Validate is a pure function with no side effects.
func Validate(q *Query) []ValidationError {
	v := &validator{}
	if q == nil {
		v.add("query", ErrMalformedDocument, "query is nil")
		return v.errs
	}

	for i, p := range q.Projections {
		field := fmt.Sprintf("projections[%d]", i)
		if strings.TrimSpace(p.Entity) == "" {
			v.add(field+".entity", ErrProjectionNoEntity, "projection entity is required")
		}
		switch p.Type {
		case "", ProjectionEntity:
		case ProjectionAggregation:
			if p.Op == "" {
				v.add(field+".op", ErrAggregationNoOp, "aggregation projection requires op")
			}
		default:
			v.add(field+".type", ErrProjectionType, fmt.Sprintf("invalid projection type %q: must be entity or aggregation", p.Type))
		}
	}

	if q.Filters != nil {
		validateGroup(v, "filters", *q.Filters, func(field string, c WhereCondition) {
			v.leaf(field, c.Entity, "entity", c.Op, c.Value)
		})
	}
	if q.Having != nil {
		validateGroup(v, "having", *q.Having, func(field string, c HavingCondition) {
			v.leaf(field, c.Alias, "entity_alias", c.Op, c.Value)
		})
	}

	for i, g := range q.GroupBy {
		if strings.TrimSpace(g.Entity) == "" {
			v.add(fmt.Sprintf("group_by[%d].entity", i), ErrGroupByNoEntity, "group_by entity is required")
		}
	}

	for i, o := range q.OrderBy {
		field := fmt.Sprintf("order_by[%d]", i)
		if strings.TrimSpace(o.Field) == "" {
			v.add(field+".field", ErrOrderByNoField, "order_by field is required")
		}
		if d := o.Dir(); d != Asc && d != Desc {
			v.add(field+".direction", ErrOrderDirection, fmt.Sprintf("invalid direction %q: must be ASC or DESC", o.Direction))
		}
	}

	if q.Limit != nil && *q.Limit < 0 {
		v.add("limit", ErrNegativeLimit, fmt.Sprintf("limit must be non-negative, got %d", *q.Limit))
	}
	if q.Offset != nil && *q.Offset < 0 {
		v.add("offset", ErrNegativeLimit, fmt.Sprintf("offset must be non-negative, got %d", *q.Offset))
	}

	return v.errs
}

// validator accumulates errors during traversal.
type validator struct {
	errs []ValidationError
}

func (v *validator) add(field, code, message string) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: message, Code: code})
}

func (v *validator) leaf(field, name, key string, op Operator, value Value) {
	if strings.TrimSpace(name) == "" {
		v.add(field+"."+key, ErrConditionNoName, "condition must name an "+key)
	}
	if op == "" {
		v.add(field+".op", ErrConditionNoOperator, "condition op is required")
	}
	v.value(field+".value", value)
}

func (v *validator) value(field string, value Value) {
	switch val := value.(type) {
	case Number:
		if !val.Valid() {
			v.add(field, ErrInvalidNumber, fmt.Sprintf("invalid number literal %q", string(val)))
		}
	case List:
		for i, elem := range val {
			v.value(fmt.Sprintf("%s[%d]", field, i), elem)
		}
	}
}

func validateGroup[C Condition](v *validator, field string, g LogicalGroup[C], leaf func(string, C)) {
	if g.Operator != LogicalAnd && g.Operator != LogicalOr {
		v.add(field+".operator", ErrLogicalOperator, fmt.Sprintf("invalid logical operator %q: must be AND or OR", g.Operator))
	}
	if len(g.Children) == 0 {
		v.add(field+".conditions", ErrEmptyGroup, "logical group must have at least one condition")
	}
	for i, child := range g.Children {
		childField := fmt.Sprintf("%s.conditions[%d]", field, i)
		switch node := child.(type) {
		case LogicalGroup[C]:
			validateGroup(v, childField, node, leaf)
		case *LogicalGroup[C]:
			if node == nil {
				v.add(childField, ErrNilNode, "nil filter node")
				continue
			}
			validateGroup(v, childField, *node, leaf)
		case C:
			leaf(childField, node)
		default:
			v.add(childField, ErrNilNode, "nil filter node")
		}
	}
}
