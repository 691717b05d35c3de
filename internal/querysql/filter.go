package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/semsql/internal/queryir"
)

// sqlOperators maps IR comparison tokens to SQL. Tokens outside this table,
// including relative-time tokens such as LAST_MONTH, are rejected rather
// than guessed at.
var sqlOperators = map[queryir.Operator]string{
	queryir.OpEqual:       "=",
	queryir.OpNotEqual:    "!=",
	queryir.OpGreaterThan: ">",
	queryir.OpLessThan:    "<",
	queryir.OpGTE:         ">=",
	queryir.OpLTE:         "<=",
	queryir.OpIn:          "IN",
	queryir.OpContains:    "LIKE",
}

// renderGroup renders (c1 OP c2 OP ...). leaf renders the tree's leaf type,
// which is where WHERE and HAVING differ.
func renderGroup[C queryir.Condition](g queryir.LogicalGroup[C], leaf func(C) (string, error)) (string, error) {
	if g.Operator != queryir.LogicalAnd && g.Operator != queryir.LogicalOr {
		return "", malformed("invalid logical operator %q", g.Operator)
	}
	if len(g.Children) == 0 {
		return "", malformed("logical group has no conditions")
	}

	parts := make([]string, len(g.Children))
	for i, child := range g.Children {
		s, err := renderNode(child, leaf)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, " "+string(g.Operator)+" ") + ")", nil
}

func renderNode[C queryir.Condition](n queryir.FilterNode[C], leaf func(C) (string, error)) (string, error) {
	switch node := n.(type) {
	case queryir.LogicalGroup[C]:
		return renderGroup(node, leaf)
	case *queryir.LogicalGroup[C]:
		if node == nil {
			return "", malformed("nil filter node")
		}
		return renderGroup(*node, leaf)
	case C:
		return leaf(node)
	default:
		return "", malformed("nil filter node")
	}
}

// renderComparison renders "lhs OP value".
func renderComparison(lhs string, op queryir.Operator, value queryir.Value) (string, error) {
	sqlOp, ok := sqlOperators[op]
	if !ok {
		return "", unsupportedOperator(string(op))
	}

	if op == queryir.OpIn {
		list, ok := value.(queryir.List)
		if !ok || len(list) == 0 {
			return "", &CompileError{
				Code:    ErrCodeMalformedInput,
				Message: "IN requires a non-empty list value",
				Name:    lhs,
			}
		}
	}

	rhs, err := FormatValue(value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", lhs, sqlOp, rhs), nil
}

// whereLeaf resolves the condition's entity against the semantic layer.
func (r resolver) whereLeaf(c queryir.WhereCondition) (string, error) {
	lhs, err := r.resolve(c.Entity)
	if err != nil {
		return "", err
	}
	return renderComparison(lhs, c.Op, c.Value)
}

// havingLeaf quotes the condition's alias verbatim.
func havingLeaf(c queryir.HavingCondition) (string, error) {
	return renderComparison(QuoteIdent(c.Alias), c.Op, c.Value)
}
