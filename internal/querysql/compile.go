package querysql

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/semsql/internal/queryir"
	"github.com/roach88/semsql/internal/semantic"
)

var aggregateOps = map[queryir.AggregateOp]bool{
	queryir.AggSum:   true,
	queryir.AggCount: true,
	queryir.AggAvg:   true,
	queryir.AggMax:   true,
	queryir.AggMin:   true,
}

// Compiler compiles queries against one semantic layer.
//
// A Compiler holds no per-call state and is safe for concurrent use.
type Compiler struct {
	layer *semantic.Layer
}

// NewCompiler creates a Compiler for layer.
func NewCompiler(layer *semantic.Layer) *Compiler {
	return &Compiler{layer: layer}
}

// Layer returns the semantic layer the compiler resolves against.
func (c *Compiler) Layer() *semantic.Layer {
	return c.layer
}

// Compile converts q to a single SQL statement.
func (c *Compiler) Compile(q *queryir.Query) (string, error) {
	ws, err := c.Plan(q)
	if err != nil {
		return "", err
	}

	r := resolver{layer: c.layer, aliases: ws.Aliases}
	builders := []func() ([]string, error){
		func() ([]string, error) { return buildSelect(r, q.Projections) },
		func() ([]string, error) { return buildFromJoin(ws), nil },
		func() ([]string, error) { return buildWhere(r, q.Filters) },
		func() ([]string, error) { return buildGroupBy(r, q.GroupBy) },
		func() ([]string, error) { return buildHaving(q.Having) },
		func() ([]string, error) { return buildOrderBy(r, q.OrderBy) },
		func() ([]string, error) { return buildLimitOffset(q.Limit, q.Offset), nil },
	}

	var lines []string
	for _, build := range builders {
		clause, err := build()
		if err != nil {
			return "", err
		}
		lines = append(lines, clause...)
	}
	return strings.Join(lines, "\n") + ";", nil
}

// Plan runs everything up to clause rendering and returns the workspace:
// required tables, join path and aliases.
func (c *Compiler) Plan(q *queryir.Query) (Workspace, error) {
	if c.layer == nil {
		return Workspace{}, malformed("compiler has no semantic layer")
	}
	if q == nil {
		return Workspace{}, malformed("cannot compile nil query")
	}
	if errs := queryir.Validate(q); len(errs) > 0 {
		return Workspace{}, invalidQuery(errs)
	}

	entities := c.collectEntities(q)
	required := c.requiredTables(entities)
	if len(required) == 0 {
		for _, name := range entities {
			if !c.layer.Has(name) {
				return Workspace{}, unknownEntity(name)
			}
		}
		return Workspace{}, malformed("query references no tables")
	}

	path, err := buildJoinPath(c.layer.ForeignKeys(), required)
	if err != nil {
		return Workspace{}, fmt.Errorf("join path: %w", err)
	}

	return Workspace{
		Root:           required[0],
		RequiredTables: required,
		JoinPath:       path,
		Aliases:        assignAliases(required, path),
	}, nil
}

func invalidQuery(errs []queryir.ValidationError) *CompileError {
	details := make(map[string]string, len(errs))
	for _, e := range errs {
		details[e.Field] = e.Code + ": " + e.Message
	}
	first := errs[0]
	return &CompileError{
		Code:    ErrCodeMalformedInput,
		Message: fmt.Sprintf("invalid query: %s: %s", first.Field, first.Message),
		Details: details,
	}
}

// collectEntities returns every entity name the query references, sorted.
// ORDER BY fields and HAVING aliases count only when the layer defines them;
// other unknown names are kept and fail later at resolution.
func (c *Compiler) collectEntities(q *queryir.Query) []string {
	set := make(map[string]struct{})
	add := func(name string) { set[name] = struct{}{} }

	for _, p := range q.Projections {
		add(p.Entity)
	}
	if q.Filters != nil {
		queryir.Walk[queryir.WhereCondition](q.Filters, func(wc queryir.WhereCondition) {
			add(wc.Entity)
		})
	}
	for _, g := range q.GroupBy {
		add(g.Entity)
	}
	for _, o := range q.OrderBy {
		if c.layer.Has(o.Field) {
			add(o.Field)
		}
	}
	if q.Having != nil {
		queryir.Walk[queryir.HavingCondition](q.Having, func(hc queryir.HavingCondition) {
			if c.layer.Has(hc.Alias) {
				add(hc.Alias)
			}
		})
	}

	return slices.Sorted(maps.Keys(set))
}

// requiredTables maps entities to physical tables, skipping names the layer
// does not define.
func (c *Compiler) requiredTables(entities []string) []string {
	set := make(map[string]struct{})
	for _, name := range entities {
		e, ok := c.layer.Entity(name)
		if !ok {
			continue
		}
		for _, t := range e.Tables() {
			set[t] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

func buildSelect(r resolver, projections []queryir.Projection) ([]string, error) {
	if len(projections) == 0 {
		return []string{"SELECT *"}, nil
	}

	parts := make([]string, len(projections))
	for i, p := range projections {
		ref, err := r.resolve(p.Entity)
		if err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		if p.IsAggregation() {
			if !aggregateOps[p.Op] {
				return nil, fmt.Errorf("select: %w", unsupportedOperator(string(p.Op)))
			}
			ref = string(p.Op) + "(" + ref + ")"
		}
		if p.Alias != "" {
			ref += " AS " + QuoteIdent(p.Alias)
		}
		parts[i] = ref
	}
	return []string{"SELECT " + strings.Join(parts, ", ")}, nil
}

// buildFromJoin starts at the root and attaches each join edge that links
// the joined set to exactly one new table. Other edges are skipped.
func buildFromJoin(ws Workspace) []string {
	lines := []string{fmt.Sprintf("FROM %s %s", ws.Root, ws.Aliases[ws.Root])}
	joined := map[string]bool{ws.Root: true}

	for _, fk := range ws.JoinPath {
		var near, nearCol, far, farCol string
		switch {
		case joined[fk.FromTable] && !joined[fk.ToTable]:
			near, nearCol, far, farCol = fk.FromTable, fk.FromColumn, fk.ToTable, fk.ToColumn
		case joined[fk.ToTable] && !joined[fk.FromTable]:
			near, nearCol, far, farCol = fk.ToTable, fk.ToColumn, fk.FromTable, fk.FromColumn
		default:
			continue
		}
		joined[far] = true
		lines = append(lines, fmt.Sprintf("INNER JOIN %s %s ON %s.%s = %s.%s",
			far, ws.Aliases[far], ws.Aliases[near], nearCol, ws.Aliases[far], farCol))
	}
	return lines
}

func buildWhere(r resolver, filters *queryir.WhereGroup) ([]string, error) {
	if filters == nil {
		return nil, nil
	}
	pred, err := renderGroup(*filters, r.whereLeaf)
	if err != nil {
		return nil, fmt.Errorf("where: %w", err)
	}
	return []string{"WHERE " + pred}, nil
}

func buildGroupBy(r resolver, groupBy []queryir.GroupByItem) ([]string, error) {
	if len(groupBy) == 0 {
		return nil, nil
	}
	parts := make([]string, len(groupBy))
	for i, g := range groupBy {
		ref, err := r.resolve(g.Entity)
		if err != nil {
			return nil, fmt.Errorf("group by: %w", err)
		}
		parts[i] = ref
	}
	return []string{"GROUP BY " + strings.Join(parts, ", ")}, nil
}

func buildHaving(having *queryir.HavingGroup) ([]string, error) {
	if having == nil {
		return nil, nil
	}
	pred, err := renderGroup(*having, havingLeaf)
	if err != nil {
		return nil, fmt.Errorf("having: %w", err)
	}
	return []string{"HAVING " + pred}, nil
}

func buildOrderBy(r resolver, orderBy []queryir.OrderByItem) ([]string, error) {
	if len(orderBy) == 0 {
		return nil, nil
	}
	parts := make([]string, len(orderBy))
	for i, o := range orderBy {
		ref, err := r.resolveFieldOrAlias(o.Field)
		if err != nil {
			return nil, fmt.Errorf("order by: %w", err)
		}
		parts[i] = ref + " " + string(o.Dir())
	}
	return []string{"ORDER BY " + strings.Join(parts, ", ")}, nil
}

func buildLimitOffset(limit, offset *int) []string {
	var lines []string
	if limit != nil {
		lines = append(lines, fmt.Sprintf("LIMIT %d", *limit))
	}
	if offset != nil {
		lines = append(lines, fmt.Sprintf("OFFSET %d", *offset))
	}
	return lines
}
