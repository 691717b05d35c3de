// Package semantic holds the semantic layer: the mapping from named entities
// (metrics and attributes) to physical columns or derived expressions, plus the
// foreign-key graph between physical tables.
//
// A Layer is built once, either programmatically with NewLayer or from a file
// with Load, and is read-only afterwards. All accessor methods are safe for
// concurrent use without locking.
//
// # Entity forms
//
// Every entity takes exactly one of two forms:
//
//	simple:  {table: "products", column: "name"}
//	derived: {expression: "SUM(order_items.quantity * order_items.unit_price)",
//	          tables_needed: ["order_items"]}
//
// Derived expressions reference physical tables as "table.column"; the SQL
// compiler rewrites those references to per-query aliases.
//
// # File formats
//
// Load accepts YAML, JSON, and CUE documents. Every format is unified with the
// embedded #SemanticLayer CUE schema (schema.cue) before it is decoded, so the
// same structural rules apply regardless of the input syntax.
package semantic
