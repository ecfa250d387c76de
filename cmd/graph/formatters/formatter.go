// Package formatters renders module dependency graphs as text.
package formatters

import (
	"fmt"
	"sort"

	"github.com/LegacyCodeHQ/tsout/depgraph"
)

// RenderOptions contains optional parameters for rendering dependency graphs.
type RenderOptions struct {
	// Label is an optional title for the graph
	Label string
	// Cycles lists import cycles; edges inside a cycle are highlighted.
	Cycles [][]string
	// Facades marks nodes that only import and re-export; they are drawn
	// with a dashed outline.
	Facades map[string]bool
}

// Formatter is the interface that all graph formatters must implement.
type Formatter interface {
	Format(g depgraph.DependencyGraph, opts RenderOptions) (string, error)
}

// NewFormatter creates a Formatter for the specified format name.
func NewFormatter(format string) (Formatter, error) {
	f, ok := ParseOutputFormat(format)
	if !ok {
		return nil, fmt.Errorf("unknown format: %s (valid options: %s)", format, SupportedFormats())
	}
	switch f {
	case OutputFormatDOT:
		return &DOTFormatter{}, nil
	case OutputFormatMermaid:
		return &MermaidFormatter{}, nil
	default:
		return &JSONFormatter{}, nil
	}
}

// sortedNodes returns every node of g, including those only present as a
// dependency, sorted.
func sortedNodes(g depgraph.DependencyGraph) []string {
	seen := make(map[string]bool, len(g))
	for source, deps := range g {
		seen[source] = true
		for _, dep := range deps {
			seen[dep] = true
		}
	}
	nodes := make([]string, 0, len(seen))
	for n := range seen {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

// cycleEdges returns the set of edges whose endpoints share a cycle.
func cycleEdges(g depgraph.DependencyGraph, cycles [][]string) map[[2]string]bool {
	component := make(map[string]int)
	for i, c := range cycles {
		for _, n := range c {
			component[n] = i + 1
		}
	}
	out := make(map[[2]string]bool)
	for source, deps := range g {
		for _, dep := range deps {
			if c := component[source]; c != 0 && c == component[dep] {
				out[[2]string{source, dep}] = true
			}
		}
	}
	return out
}
