package formatters

import (
	"encoding/json"

	"github.com/LegacyCodeHQ/tsout/depgraph"
)

// JSONFormatter formats dependency graphs as JSON.
type JSONFormatter struct{}

// Format converts the dependency graph to an indented JSON adjacency list.
// Labels and cycles are not part of the output.
func (f *JSONFormatter) Format(g depgraph.DependencyGraph, _ RenderOptions) (string, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
