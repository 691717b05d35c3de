// Package queryir defines the analytics query intermediate representation (IR)
// consumed by the semantic-to-SQL compiler in internal/querysql.
//
// The IR is produced upstream (typically by a natural-language extraction
// step) and is decoupled from both natural language and SQL syntax. It names
// semantic entities, never physical columns.
//
//	[question] → (upstream extractor) → [Query IR] → querysql → [SQL]
//
// # Filter trees
//
// WHERE and HAVING are recursive boolean trees with exactly two node variants:
// a LogicalGroup (AND/OR over ordered children) and a leaf condition. The tree
// type is parameterised by its leaf:
//
//	FilterNode[WhereCondition]   leaves name semantic entities
//	FilterNode[HavingCondition]  leaves name projection aliases
//
// FilterNode is sealed with a marker method whose parameter is the leaf type,
// so a HavingCondition cannot be placed in a WHERE tree (and vice versa); the
// mistake is a compile error rather than a runtime check.
//
// Example:
//
//	filters := queryir.Where(queryir.LogicalAnd,
//	    queryir.Cond("region", queryir.OpEqual, queryir.String("China")),
//	    queryir.Where(queryir.LogicalOr,
//	        queryir.Cond("channel", queryir.OpEqual, queryir.String("web")),
//	        queryir.Cond("channel", queryir.OpEqual, queryir.String("app")),
//	    ),
//	)
//
// # Wire format
//
// Query round-trips through the JSON shape emitted by the extractor:
//
//	{
//	  "projections": [{"type": "aggregation", "op": "SUM", "entity": "sales_amount", "alias": "total_sales"}],
//	  "filters": {"operator": "AND", "conditions": [{"entity": "region", "op": "EQUAL", "value": "China"}]},
//	  "having":  {"operator": "AND", "conditions": [{"entity_alias": "total_sales", "op": "GREATER_THAN", "value": 1000}]},
//	  "group_by": [{"entity": "product_name"}],
//	  "order_by": [{"field": "total_sales", "direction": "DESC"}],
//	  "limit": 5
//	}
//
// HAVING leaves accept the alias under either "entity_alias" or "entity".
//
// # Literal values
//
// Condition values are a sealed Value: String, Number, List or Null. JSON
// kinds with no SQL literal form here (booleans, objects, null) decode to
// Null.
package queryir
