// Package graph orders tables by their foreign key dependencies.
package graph

import (
	"strings"
)

// ForeignKey is a directed edge from the table declaring the constraint to
// the table it references. Column lists are ordered and pairwise aligned.
type ForeignKey struct {
	Name          string
	ChildTable    string
	ChildColumns  []string
	ParentTable   string
	ParentColumns []string
}

// IsSelfRef reports whether the key references its own table.
func (fk ForeignKey) IsSelfRef() bool {
	return strings.EqualFold(fk.ChildTable, fk.ParentTable)
}

// ColumnPairs returns the aligned (child, parent) column names.
func (fk ForeignKey) ColumnPairs() [][2]string {
	n := len(fk.ChildColumns)
	if len(fk.ParentColumns) < n {
		n = len(fk.ParentColumns)
	}
	pairs := make([][2]string, n)
	for i := 0; i < n; i++ {
		pairs[i] = [2]string{fk.ChildColumns[i], fk.ParentColumns[i]}
	}
	return pairs
}

func (fk ForeignKey) signature(norm func(string) string) string {
	var b strings.Builder
	b.WriteString(norm(fk.ChildTable))
	b.WriteByte(0)
	b.WriteString(norm(fk.ParentTable))
	for _, p := range fk.ColumnPairs() {
		b.WriteByte(0)
		b.WriteString(norm(p[0]))
		b.WriteByte(1)
		b.WriteString(norm(p[1]))
	}
	return b.String()
}

// Option configures New.
type Option func(*Graph)

// CaseSensitive makes table name matching exact. Names are matched ignoring
// case by default.
func CaseSensitive() Option {
	return func(g *Graph) { g.caseSensitive = true }
}

// Graph is an immutable set of tables and the foreign keys among them.
type Graph struct {
	caseSensitive bool
	nodes         []string
	index         map[string]int
	keys          []ForeignKey
	imported      [][]int // node -> keys it declares
	exported      [][]int // node -> keys that reference it
	parents       [][]int // node -> distinct parent nodes, first-seen order
}

// New builds a graph over tables. Keys whose child or parent is not among
// tables are ignored, as are exact duplicates.
func New(tables []string, keys []ForeignKey, opts ...Option) *Graph {
	g := &Graph{index: make(map[string]int, len(tables))}
	for _, o := range opts {
		o(g)
	}
	for _, t := range tables {
		k := g.norm(t)
		if _, ok := g.index[k]; ok {
			continue
		}
		g.index[k] = len(g.nodes)
		g.nodes = append(g.nodes, t)
	}
	g.imported = make([][]int, len(g.nodes))
	g.exported = make([][]int, len(g.nodes))
	g.parents = make([][]int, len(g.nodes))

	seen := map[string]struct{}{}
	for _, fk := range keys {
		child, ok := g.index[g.norm(fk.ChildTable)]
		if !ok {
			continue
		}
		parent, ok := g.index[g.norm(fk.ParentTable)]
		if !ok {
			continue
		}
		sig := fk.signature(g.norm)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}

		i := len(g.keys)
		g.keys = append(g.keys, fk)
		g.imported[child] = append(g.imported[child], i)
		g.exported[parent] = append(g.exported[parent], i)
		if !containsInt(g.parents[child], parent) {
			g.parents[child] = append(g.parents[child], parent)
		}
	}
	return g
}

func (g *Graph) norm(name string) string {
	if g.caseSensitive {
		return name
	}
	return strings.ToUpper(name)
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// Tables returns the node names in construction order.
func (g *Graph) Tables() []string {
	return append([]string(nil), g.nodes...)
}

// HasTable reports whether name is a node.
func (g *Graph) HasTable(name string) bool {
	_, ok := g.index[g.norm(name)]
	return ok
}

// TableName returns the node name name resolves to.
func (g *Graph) TableName(name string) (string, bool) {
	i, ok := g.index[g.norm(name)]
	if !ok {
		return "", false
	}
	return g.nodes[i], true
}

// ForeignKeys returns every retained edge.
func (g *Graph) ForeignKeys() []ForeignKey {
	return append([]ForeignKey(nil), g.keys...)
}

// ImportedKeys returns the keys declared by table.
func (g *Graph) ImportedKeys(table string) []ForeignKey {
	return g.collect(table, g.imported)
}

// ExportedKeys returns the keys other tables, or table itself, declare
// against table.
func (g *Graph) ExportedKeys(table string) []ForeignKey {
	return g.collect(table, g.exported)
}

func (g *Graph) collect(table string, adj [][]int) []ForeignKey {
	i, ok := g.index[g.norm(table)]
	if !ok {
		return nil
	}
	out := make([]ForeignKey, 0, len(adj[i]))
	for _, k := range adj[i] {
		out = append(out, g.keys[k])
	}
	return out
}

// Parents returns the distinct tables table references, excluding itself.
func (g *Graph) Parents(table string) []string {
	i, ok := g.index[g.norm(table)]
	if !ok {
		return nil
	}
	var out []string
	for _, p := range g.parents[i] {
		if p != i {
			out = append(out, g.nodes[p])
		}
	}
	return out
}
