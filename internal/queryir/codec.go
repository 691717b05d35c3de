package queryir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Decode parses a JSON query document. Structural problems in the JSON itself
// are reported as a ValidationError with code ErrMalformedDocument; semantic
// problems are left to Validate.
func Decode(data []byte) (*Query, error) {
	var q Query
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, ValidationError{
			Field:   "query",
			Message: err.Error(),
			Code:    ErrMalformedDocument,
		}
	}
	return &q, nil
}

// UnmarshalJSON implements json.Unmarshaler for Query. Limit and offset
// accept any integral JSON number, so 5 and 5.0 decode alike.
func (q *Query) UnmarshalJSON(data []byte) error {
	type plain Query
	var aux struct {
		plain
		Limit  *json.Number `json:"limit"`
		Offset *json.Number `json:"offset"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	limit, err := integral("limit", aux.Limit)
	if err != nil {
		return err
	}
	offset, err := integral("offset", aux.Offset)
	if err != nil {
		return err
	}

	*q = Query(aux.plain)
	q.Limit, q.Offset = limit, offset
	return nil
}

func integral(field string, n *json.Number) (*int, error) {
	if n == nil {
		return nil, nil
	}
	if i, err := strconv.Atoi(n.String()); err == nil {
		return &i, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return nil, fmt.Errorf("%s: %s is not an integer", field, n)
	}
	i := int(f)
	return &i, nil
}

// rawNode is the wire shape shared by groups and leaves. A node is a group
// when it carries "operator" or "conditions".
type rawNode struct {
	Operator    *LogicalOperator  `json:"operator"`
	Conditions  []json.RawMessage `json:"conditions"`
	Entity      string            `json:"entity"`
	EntityAlias string            `json:"entity_alias"`
	Op          Operator          `json:"op"`
	Value       json.RawMessage   `json:"value"`
}

func (rn rawNode) isGroup() bool {
	return rn.Operator != nil || rn.Conditions != nil
}

// UnmarshalJSON implements json.Unmarshaler for LogicalGroup.
// The root of a filter tree must be a group.
func (g *LogicalGroup[C]) UnmarshalJSON(data []byte) error {
	var rn rawNode
	if err := json.Unmarshal(data, &rn); err != nil {
		return err
	}
	if !rn.isGroup() {
		return fmt.Errorf("filter root must be a group with \"operator\" and \"conditions\"")
	}
	group, err := decodeGroup[C](rn)
	if err != nil {
		return err
	}
	*g = group
	return nil
}

// MarshalJSON implements json.Marshaler for LogicalGroup.
func (g LogicalGroup[C]) MarshalJSON() ([]byte, error) {
	children := g.Children
	if children == nil {
		children = []FilterNode[C]{}
	}
	return json.Marshal(struct {
		Operator   LogicalOperator `json:"operator"`
		Conditions []FilterNode[C] `json:"conditions"`
	}{g.Operator, children})
}

// MarshalJSON implements json.Marshaler for WhereCondition.
func (c WhereCondition) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Entity string   `json:"entity"`
		Op     Operator `json:"op"`
		Value  Value    `json:"value"`
	}{c.Entity, c.Op, valueOrNull(c.Value)})
}

// MarshalJSON implements json.Marshaler for HavingCondition.
func (c HavingCondition) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Alias string   `json:"entity_alias"`
		Op    Operator `json:"op"`
		Value Value    `json:"value"`
	}{c.Alias, c.Op, valueOrNull(c.Value)})
}

func valueOrNull(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}

func decodeGroup[C Condition](rn rawNode) (LogicalGroup[C], error) {
	group := LogicalGroup[C]{Operator: LogicalAnd}
	if rn.Operator != nil {
		group.Operator = *rn.Operator
	}
	group.Children = make([]FilterNode[C], 0, len(rn.Conditions))
	for i, raw := range rn.Conditions {
		child, err := decodeNode[C](raw)
		if err != nil {
			return group, fmt.Errorf("conditions[%d]: %w", i, err)
		}
		group.Children = append(group.Children, child)
	}
	return group, nil
}

func decodeNode[C Condition](data []byte) (FilterNode[C], error) {
	var rn rawNode
	if err := json.Unmarshal(data, &rn); err != nil {
		return nil, err
	}
	if rn.isGroup() {
		group, err := decodeGroup[C](rn)
		if err != nil {
			return nil, err
		}
		return group, nil
	}
	return decodeLeaf[C](rn)
}

// decodeLeaf builds the leaf variant selected by C.
func decodeLeaf[C Condition](rn rawNode) (FilterNode[C], error) {
	value, err := DecodeValue(rn.Value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}

	var zero C
	var leaf any
	switch any(zero).(type) {
	case WhereCondition:
		leaf = WhereCondition{Entity: rn.Entity, Op: rn.Op, Value: value}
	case HavingCondition:
		alias := rn.EntityAlias
		if alias == "" {
			alias = rn.Entity
		}
		leaf = HavingCondition{Alias: alias, Op: rn.Op, Value: value}
	}
	return leaf.(FilterNode[C]), nil
}
