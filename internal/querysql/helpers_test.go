package querysql

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/semsql/internal/queryir"
	"github.com/roach88/semsql/internal/semantic"
)

var (
	fkItemProduct   = semantic.ForeignKey{FromTable: "order_items", FromColumn: "product_id", ToTable: "products", ToColumn: "id"}
	fkItemOrder     = semantic.ForeignKey{FromTable: "order_items", FromColumn: "order_id", ToTable: "orders", ToColumn: "id"}
	fkOrderCustomer = semantic.ForeignKey{FromTable: "orders", FromColumn: "customer_id", ToTable: "customers", ToColumn: "id"}
)

// retailLayer is a star-ish schema around order_items plus one table
// (warehouses) that no foreign key reaches.
func retailLayer(t *testing.T) *semantic.Layer {
	t.Helper()
	layer, err := semantic.NewLayer(semantic.Definition{
		Entities: []semantic.Entity{
			{Name: "product_name", Table: "products", Column: "name"},
			{Name: "category", Table: "products", Column: "category"},
			{Name: "sales_amount", Table: "order_items", Column: "amount"},
			{Name: "quantity", Table: "order_items", Column: "quantity"},
			{Name: "order_date", Table: "orders", Column: "order_date"},
			{Name: "customer_name", Table: "customers", Column: "name"},
			{Name: "region", Table: "customers", Column: "region"},
			{
				Name:         "revenue",
				Expression:   "SUM(order_items.quantity * products.price)",
				TablesNeeded: []string{"order_items", "products"},
				Kind:         semantic.KindMetric,
			},
			{Name: "warehouse_city", Table: "warehouses", Column: "city"},
		},
		ForeignKeys: []semantic.ForeignKey{fkItemProduct, fkItemOrder, fkOrderCustomer},
	})
	require.NoError(t, err)
	return layer
}

func intPtr(n int) *int { return &n }

// topProducts is the "top 5 products by sales" query.
func topProducts() *queryir.Query {
	return &queryir.Query{
		Projections: []queryir.Projection{
			{Type: queryir.ProjectionEntity, Entity: "product_name"},
			{Type: queryir.ProjectionAggregation, Op: queryir.AggSum, Entity: "sales_amount", Alias: "total_sales"},
		},
		GroupBy: []queryir.GroupByItem{{Entity: "product_name"}},
		OrderBy: []queryir.OrderByItem{{Field: "total_sales", Direction: queryir.Desc}},
		Limit:   intPtr(5),
	}
}

func compileOK(t *testing.T, layer *semantic.Layer, q *queryir.Query) string {
	t.Helper()
	sql, err := NewCompiler(layer).Compile(q)
	require.NoError(t, err)
	return sql
}
