package formatters

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/tsout/depgraph"
)

// DOTFormatter formats dependency graphs as Graphviz DOT.
type DOTFormatter struct{}

// Format converts the dependency graph to Graphviz DOT format.
func (f *DOTFormatter) Format(g depgraph.DependencyGraph, opts RenderOptions) (string, error) {
	var sb strings.Builder
	sb.WriteString("digraph dependencies {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box];\n")

	if opts.Label != "" {
		sb.WriteString(fmt.Sprintf("  label=%q;\n", opts.Label))
		sb.WriteString("  labelloc=t;\n")
		sb.WriteString("  labeljust=l;\n")
		sb.WriteString("  fontsize=10;\n")
		sb.WriteString("  fontname=Courier;\n")
	}
	sb.WriteString("\n")

	nodes := sortedNodes(g)
	colors := nodeColors(nodes)
	for _, n := range nodes {
		style := "filled"
		if opts.Facades[n] {
			style = `"filled,dashed"`
		}
		sb.WriteString(fmt.Sprintf("  %q [style=%s, fillcolor=%s];\n", n, style, colors[n]))
	}

	inCycle := cycleEdges(g, opts.Cycles)
	edges := 0
	for _, source := range nodes {
		for _, dep := range g[source] {
			if edges == 0 {
				sb.WriteString("\n")
			}
			edges++
			if inCycle[[2]string{source, dep}] {
				sb.WriteString(fmt.Sprintf("  %q -> %q [color=red];\n", source, dep))
				continue
			}
			sb.WriteString(fmt.Sprintf("  %q -> %q;\n", source, dep))
		}
	}

	sb.WriteString("}\n")
	return sb.String(), nil
}
