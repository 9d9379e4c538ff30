package graph

import (
	"strings"
)

// CyclicDependencyError reports foreign keys that loop through several
// tables, so no insert order exists. Tables lists the loop members in
// traversal order.
type CyclicDependencyError struct {
	Tables []string
}

func (e *CyclicDependencyError) Error() string {
	if len(e.Tables) == 0 {
		return "cyclic table dependency"
	}
	return "cyclic table dependency: " + strings.Join(e.Tables, " -> ") + " -> " + e.Tables[0]
}

type visitState uint8

const (
	unvisited visitState = iota
	active
	done
)

type frame struct {
	node int
	next int
}

// InsertOrder returns every table after the tables it references. Each
// connected component is ordered depth first from the first table of the
// component in construction order. Self references are ignored.
func (g *Graph) InsertOrder() ([]string, error) {
	states := make([]visitState, len(g.nodes))
	order := make([]string, 0, len(g.nodes))
	for root := range g.nodes {
		if states[root] != unvisited {
			continue
		}
		states[root] = active
		stack := []frame{{node: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			parents := g.parents[top.node]
			if top.next < len(parents) {
				p := parents[top.next]
				top.next++
				if p == top.node {
					continue
				}
				switch states[p] {
				case unvisited:
					states[p] = active
					stack = append(stack, frame{node: p})
				case active:
					return nil, g.cycle(stack, p)
				}
				continue
			}
			states[top.node] = done
			order = append(order, g.nodes[top.node])
			stack = stack[:len(stack)-1]
		}
	}
	return order, nil
}

// DeleteOrder is the exact reverse of InsertOrder.
func (g *Graph) DeleteOrder() ([]string, error) {
	order, err := g.InsertOrder()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

func (g *Graph) cycle(stack []frame, back int) *CyclicDependencyError {
	start := 0
	for i, f := range stack {
		if f.node == back {
			start = i
			break
		}
	}
	tables := make([]string, 0, len(stack)-start)
	for _, f := range stack[start:] {
		tables = append(tables, g.nodes[f.node])
	}
	return &CyclicDependencyError{Tables: tables}
}

// Levels returns the dependency depth of every table: 0 for tables that
// reference nothing else, otherwise one more than their deepest parent.
func (g *Graph) Levels() (map[string]int, error) {
	order, err := g.InsertOrder()
	if err != nil {
		return nil, err
	}
	levels := make(map[string]int, len(order))
	for _, name := range order {
		i := g.index[g.norm(name)]
		lvl := 0
		for _, p := range g.parents[i] {
			if p == i {
				continue
			}
			if l := levels[g.nodes[p]] + 1; l > lvl {
				lvl = l
			}
		}
		levels[name] = lvl
	}
	return levels, nil
}
