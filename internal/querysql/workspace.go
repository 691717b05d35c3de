package querysql

import (
	"maps"
	"slices"
	"strconv"

	"github.com/roach88/semsql/internal/semantic"
)

// Workspace is the per-call state of one compilation. It is created fresh by
// every Plan or Compile call and never shared between calls.
type Workspace struct {
	// Root is the table the FROM clause starts from.
	Root string `json:"root"`

	// RequiredTables are the tables referenced by the query's entities, sorted.
	RequiredTables []string `json:"required_tables"`

	// JoinPath are the foreign keys connecting the required tables, in the
	// order they are attached to the FROM clause.
	JoinPath []semantic.ForeignKey `json:"join_path"`

	// Aliases maps every touched table to its alias (t1, t2, ...).
	Aliases map[string]string `json:"aliases"`
}

// Tables returns every aliased table, sorted by name.
func (w Workspace) Tables() []string {
	return slices.Sorted(maps.Keys(w.Aliases))
}

// assignAliases numbers tables in sorted order starting at t1.
func assignAliases(required []string, path []semantic.ForeignKey) map[string]string {
	set := make(map[string]struct{}, len(required)+len(path))
	for _, t := range required {
		set[t] = struct{}{}
	}
	for _, fk := range path {
		set[fk.FromTable] = struct{}{}
		set[fk.ToTable] = struct{}{}
	}

	aliases := make(map[string]string, len(set))
	for i, t := range slices.Sorted(maps.Keys(set)) {
		aliases[t] = "t" + strconv.Itoa(i+1)
	}
	return aliases
}
