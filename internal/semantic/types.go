package semantic

import (
	"fmt"
	"slices"
	"strings"
)

// Entity kinds recognised in the optional "type" field.
const (
	KindMetric    = "metric"
	KindAttribute = "attribute"
)

// Entity is a named semantic item resolvable to a column or an expression.
// Exactly one of {Table, Column} or {Expression, TablesNeeded} is set.
type Entity struct {
	Name         string   `json:"name"`
	Table        string   `json:"table,omitempty"`
	Column       string   `json:"column,omitempty"`
	Expression   string   `json:"expression,omitempty"`
	TablesNeeded []string `json:"tables_needed,omitempty"`
	Kind         string   `json:"type,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// IsDerived reports whether the entity is an expression over one or more tables.
func (e Entity) IsDerived() bool {
	return e.Expression != ""
}

// Tables returns the physical tables the entity touches.
func (e Entity) Tables() []string {
	if e.IsDerived() {
		return slices.Clone(e.TablesNeeded)
	}
	return []string{e.Table}
}

// ForeignKey is a join edge between two physical tables. Direction only
// matters for rendering the ON clause; connectivity treats it as undirected.
type ForeignKey struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}

// String renders the edge as "from_table.from_column -> to_table.to_column".
func (fk ForeignKey) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", fk.FromTable, fk.FromColumn, fk.ToTable, fk.ToColumn)
}

// Other returns the endpoint opposite to table.
func (fk ForeignKey) Other(table string) string {
	if fk.FromTable == table {
		return fk.ToTable
	}
	return fk.FromTable
}

// Definition is the mutable input to NewLayer.
type Definition struct {
	Entities    []Entity
	ForeignKeys []ForeignKey
	EnumValues  map[string][]string
}

// Layer is the immutable semantic layer.
type Layer struct {
	entities    map[string]Entity
	names       []string
	foreignKeys []ForeignKey
	enumValues  map[string][]string
}

// NewLayer validates def and returns an immutable Layer. The inputs are
// copied, so later mutation of def has no effect on the returned Layer.
func NewLayer(def Definition) (*Layer, error) {
	l := &Layer{
		entities:    make(map[string]Entity, len(def.Entities)),
		names:       make([]string, 0, len(def.Entities)),
		foreignKeys: make([]ForeignKey, 0, len(def.ForeignKeys)),
		enumValues:  make(map[string][]string, len(def.EnumValues)),
	}

	for i, e := range def.Entities {
		if err := validateEntity(e); err != nil {
			return nil, &LoadError{
				Code:    ErrCodeInvalidLayer,
				Message: fmt.Sprintf("entities[%d]: %s", i, err.Error()),
			}
		}
		if _, dup := l.entities[e.Name]; dup {
			return nil, &LoadError{
				Code:    ErrCodeInvalidLayer,
				Message: fmt.Sprintf("duplicate entity name: %q", e.Name),
			}
		}
		e.TablesNeeded = slices.Clone(e.TablesNeeded)
		l.entities[e.Name] = e
		l.names = append(l.names, e.Name)
	}
	slices.Sort(l.names)

	for i, fk := range def.ForeignKeys {
		if fk.FromTable == "" || fk.FromColumn == "" || fk.ToTable == "" || fk.ToColumn == "" {
			return nil, &LoadError{
				Code:    ErrCodeInvalidLayer,
				Message: fmt.Sprintf("foreign_keys[%d]: from_table, from_column, to_table and to_column are required", i),
			}
		}
		l.foreignKeys = append(l.foreignKeys, fk)
	}

	for name, values := range def.EnumValues {
		l.enumValues[name] = slices.Clone(values)
	}

	return l, nil
}

func validateEntity(e Entity) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("entity name is required")
	}
	simple := e.Table != "" || e.Column != ""
	derived := e.Expression != "" || len(e.TablesNeeded) > 0
	switch {
	case simple && derived:
		return fmt.Errorf("entity %q mixes table/column with expression/tables_needed", e.Name)
	case simple:
		if e.Table == "" || e.Column == "" {
			return fmt.Errorf("entity %q needs both table and column", e.Name)
		}
	case derived:
		if e.Expression == "" || len(e.TablesNeeded) == 0 {
			return fmt.Errorf("entity %q needs both expression and tables_needed", e.Name)
		}
		for _, t := range e.TablesNeeded {
			if t == "" {
				return fmt.Errorf("entity %q has an empty table in tables_needed", e.Name)
			}
		}
	default:
		return fmt.Errorf("entity %q has neither table/column nor expression/tables_needed", e.Name)
	}
	return nil
}

// Entity looks up an entity by name.
func (l *Layer) Entity(name string) (Entity, bool) {
	e, ok := l.entities[name]
	if !ok {
		return Entity{}, false
	}
	e.TablesNeeded = slices.Clone(e.TablesNeeded)
	return e, true
}

// Has reports whether name is a known entity.
func (l *Layer) Has(name string) bool {
	_, ok := l.entities[name]
	return ok
}

// EntityNames returns every entity name in sorted order.
func (l *Layer) EntityNames() []string {
	return slices.Clone(l.names)
}

// ForeignKeys returns the foreign-key edges in declaration order.
func (l *Layer) ForeignKeys() []ForeignKey {
	return slices.Clone(l.foreignKeys)
}

// Metrics returns the sorted names of entities usable as measures: derived
// entities and entities explicitly typed as metrics.
func (l *Layer) Metrics() []string {
	var out []string
	for _, name := range l.names {
		e := l.entities[name]
		if e.IsDerived() || e.Kind == KindMetric {
			out = append(out, name)
		}
	}
	return out
}

// Attributes returns the sorted names of simple column entities, the ones
// suitable for filtering and grouping.
func (l *Layer) Attributes() []string {
	var out []string
	for _, name := range l.names {
		if !l.entities[name].IsDerived() {
			out = append(out, name)
		}
	}
	return out
}

// EnumValues returns the known values of an attribute, if any were declared.
func (l *Layer) EnumValues(name string) []string {
	return slices.Clone(l.enumValues[name])
}
