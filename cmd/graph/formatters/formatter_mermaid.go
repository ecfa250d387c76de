package formatters

import (
	"fmt"
	"path"
	"strings"

	"github.com/LegacyCodeHQ/tsout/depgraph"
)

// MermaidFormatter formats dependency graphs as Mermaid.js flowcharts.
type MermaidFormatter struct{}

// Format converts the dependency graph to Mermaid.js flowchart format.
func (f *MermaidFormatter) Format(g depgraph.DependencyGraph, opts RenderOptions) (string, error) {
	var sb strings.Builder

	if opts.Label != "" {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", opts.Label))
		sb.WriteString("---\n")
	}
	sb.WriteString("flowchart LR\n")

	for i, cycle := range opts.Cycles {
		parts := make([]string, 0, len(cycle)+1)
		for _, n := range cycle {
			parts = append(parts, path.Base(n))
		}
		parts = append(parts, path.Base(cycle[0]))
		sb.WriteString(fmt.Sprintf("%%%% C%d: %s\n", i+1, strings.Join(parts, " -> ")))
	}

	// Mermaid node IDs can't have dots or slashes.
	nodes := sortedNodes(g)
	ids := make(map[string]string, len(nodes))
	for i, n := range nodes {
		ids[n] = fmt.Sprintf("n%d", i)
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", ids[n], strings.ReplaceAll(n, `"`, "#quot;")))
	}

	inCycle := cycleEdges(g, opts.Cycles)
	var cycleLinks []string
	link := 0
	for _, source := range nodes {
		for _, dep := range g[source] {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", ids[source], ids[dep]))
			if inCycle[[2]string{source, dep}] {
				cycleLinks = append(cycleLinks, fmt.Sprint(link))
			}
			link++
		}
	}
	if len(cycleLinks) > 0 {
		sb.WriteString(fmt.Sprintf("    linkStyle %s stroke:red\n", strings.Join(cycleLinks, ",")))
	}

	colors := nodeColors(nodes)
	for _, n := range nodes {
		if c := colors[n]; c != "white" {
			sb.WriteString(fmt.Sprintf("    style %s fill:%s\n", ids[n], c))
		}
	}
	for _, n := range nodes {
		if opts.Facades[n] {
			sb.WriteString(fmt.Sprintf("    style %s stroke-dasharray:5 5\n", ids[n]))
		}
	}
	return sb.String(), nil
}
