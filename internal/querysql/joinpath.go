package querysql

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/semsql/internal/semantic"
)

// Join path discovery runs in two phases.
//
// connect walks the foreign-key graph breadth-first from the first required
// table, treating every key as undirected, and records the edge that first
// reached each table. It fails if a required table is never reached.
//
// selectEdges prunes that BFS tree to the edges lying on a path from some
// required table back to the root. This is a Steiner-tree approximation: for
// tree and star schemas it is the unique minimal edge set, and for cyclic
// schemas it is a correct but not necessarily unique or minimal one.

// spanning is the BFS tree produced by connect.
type spanning struct {
	root   string
	parent map[string]semantic.ForeignKey // edge that discovered each table
	order  []string                       // tables in discovery order, root excluded
}

type halfEdge struct {
	to string
	fk semantic.ForeignKey
}

// adjacency builds the undirected graph. Neighbour lists keep declaration
// order so the traversal is deterministic.
func adjacency(fks []semantic.ForeignKey) map[string][]halfEdge {
	adj := make(map[string][]halfEdge)
	for _, fk := range fks {
		adj[fk.FromTable] = append(adj[fk.FromTable], halfEdge{to: fk.ToTable, fk: fk})
		if fk.FromTable != fk.ToTable {
			adj[fk.ToTable] = append(adj[fk.ToTable], halfEdge{to: fk.FromTable, fk: fk})
		}
	}
	return adj
}

// connect requires a non-empty, sorted, duplicate-free required list.
func connect(fks []semantic.ForeignKey, required []string) (spanning, error) {
	sp := spanning{
		root:   required[0],
		parent: make(map[string]semantic.ForeignKey),
	}

	want := make(map[string]bool, len(required))
	for _, t := range required {
		want[t] = true
	}
	remaining := len(required) - 1

	adj := adjacency(fks)
	visited := map[string]bool{sp.root: true}
	queue := []string{sp.root}

	for len(queue) > 0 && remaining > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, he := range adj[current] {
			if visited[he.to] {
				continue
			}
			visited[he.to] = true
			sp.parent[he.to] = he.fk
			sp.order = append(sp.order, he.to)
			queue = append(queue, he.to)
			if want[he.to] {
				remaining--
			}
		}
	}

	if remaining > 0 {
		var missing []string
		for _, t := range required {
			if !visited[t] {
				missing = append(missing, t)
			}
		}
		return spanning{}, &CompileError{
			Code:    ErrCodeDisconnectedJoinGraph,
			Message: fmt.Sprintf("no foreign-key path from %s to %s", sp.root, strings.Join(missing, ", ")),
			Name:    missing[0],
			Details: map[string]string{
				"root":    sp.root,
				"missing": strings.Join(missing, ","),
			},
		}
	}
	return sp, nil
}

// selectEdges returns the BFS-tree edges needed to reach every required
// table from the root, in discovery order. Each returned edge connects a
// table already on the path to exactly one new table.
func (sp spanning) selectEdges(required []string) []semantic.ForeignKey {
	onPath := make(map[string]bool)
	for _, t := range required {
		for t != sp.root && !onPath[t] {
			onPath[t] = true
			t = sp.parent[t].Other(t)
		}
	}

	edges := make([]semantic.ForeignKey, 0, len(onPath))
	for _, t := range sp.order {
		if onPath[t] {
			edges = append(edges, sp.parent[t])
		}
	}
	return edges
}

// buildJoinPath connects the required tables and returns the selected edges.
func buildJoinPath(fks []semantic.ForeignKey, required []string) ([]semantic.ForeignKey, error) {
	if len(required) < 2 {
		return nil, nil
	}
	sp, err := connect(fks, slices.Compact(slices.Sorted(slices.Values(required))))
	if err != nil {
		return nil, err
	}
	return sp.selectEdges(required), nil
}
