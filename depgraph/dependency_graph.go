package depgraph

import (
	"sort"

	graphlib "github.com/dominikbraun/graph"
)

// DependencyGraph maps a module key to the keys it imports.
type DependencyGraph map[string][]string

// AdjacencyList returns the import edges of every module with sorted
// dependency lists.
func (g *Graph) AdjacencyList() (DependencyGraph, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	adjacency, err := g.edges.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	out := make(DependencyGraph, len(adjacency))
	for from, targets := range adjacency {
		deps := make([]string, 0, len(targets))
		for to := range targets {
			deps = append(deps, to)
		}
		sort.Strings(deps)
		out[from] = deps
	}
	return out, nil
}

// Cycles returns the import cycles of the graph: strongly connected
// components with more than one module, each sorted, ordered by first key.
func (g *Graph) Cycles() ([][]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	components, err := graphlib.StronglyConnectedComponents(g.edges)
	if err != nil {
		return nil, err
	}
	var cycles [][]string
	for _, c := range components {
		if len(c) < 2 {
			continue
		}
		sorted := append([]string(nil), c...)
		sort.Strings(sorted)
		cycles = append(cycles, sorted)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles, nil
}
