package graph

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/LegacyCodeHQ/tsout/cmd/cmdutil"
	"github.com/LegacyCodeHQ/tsout/cmd/graph/formatters"
	"github.com/LegacyCodeHQ/tsout/compiler"
	"github.com/LegacyCodeHQ/tsout/config"
	"github.com/LegacyCodeHQ/tsout/depgraph"
	"github.com/LegacyCodeHQ/tsout/internal/buildlog"
	"github.com/LegacyCodeHQ/tsout/workspace"
	"github.com/spf13/cobra"
)

type graphOptions struct {
	project      config.Options
	outputFormat string
	all          bool
}

// NewCommand returns a new graph command instance.
func NewCommand() *cobra.Command {
	opts := &graphOptions{outputFormat: formatters.OutputFormatDOT.String()}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the module dependency graph of the project",
		Long: `Compile the project without writing any output and print the graph of
modules the compiler discovered. Import cycles are highlighted and facades,
files that only import and re-export, are drawn with a dashed outline.

By default only the project's own files are shown. Use --all to include
packages, built-in modules and imports that could not be resolved.

Examples:
  tsout graph                       # Graphviz DOT
  tsout graph -f mermaid            # Mermaid flowchart
  tsout graph -f json --all         # every module as a JSON adjacency list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, opts)
		},
	}

	cmdutil.AddProjectFlags(cmd, &opts.project)
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", opts.outputFormat,
		fmt.Sprintf("Output format (%s)", formatters.SupportedFormats()))
	cmd.Flags().BoolVar(&opts.all, "all", false, "Include packages, built-in modules and unresolved imports")

	return cmd
}

func runGraph(cmd *cobra.Command, opts *graphOptions) error {
	formatter, err := formatters.NewFormatter(opts.outputFormat)
	if err != nil {
		return err
	}

	cfg, err := cmdutil.LoadConfig(cmd, opts.project)
	if err != nil {
		return err
	}
	c, err := compiler.New(cfg, compiler.WithSink(workspace.NewRecordingSink()))
	if err != nil {
		return fmt.Errorf("failed to create compiler: %w", err)
	}

	if _, err := c.Run(cmd.Context()); err != nil {
		var fileErr *compiler.FileError
		if !errors.As(err, &fileErr) {
			return fmt.Errorf("failed to build dependency graph: %w", err)
		}
		// The graph is still complete apart from the imports of failed files.
		buildlog.Warn("some files failed to compile", map[string]any{"error": err.Error()})
	}

	g, renderOpts, err := displayGraph(c.Graph(), cfg.ProjectRoot, opts.all)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	renderOpts.Label = filepath.Base(cfg.ProjectRoot)

	output, err := formatter.Format(g, renderOpts)
	if err != nil {
		return fmt.Errorf("failed to format dependency graph: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

// displayGraph renames module keys to project-relative paths or specifiers
// and drops the modules that are not shown. The returned options carry the
// cycles and facades among the shown modules.
func displayGraph(graph *depgraph.Graph, root string, all bool) (depgraph.DependencyGraph, formatters.RenderOptions, error) {
	var opts formatters.RenderOptions
	names := make(map[string]string)
	facades := make(map[string]bool)
	for _, m := range graph.Modules() {
		if !all && (m.AbsPath == "" || !m.Compilable()) {
			continue
		}
		names[m.Key] = displayName(m, root)
		// A file without imports or exports is a script, not a facade.
		if m.Facade && m.HasModuleSyntax {
			facades[names[m.Key]] = true
		}
	}

	adjacency, err := graph.AdjacencyList()
	if err != nil {
		return nil, opts, err
	}
	out := make(depgraph.DependencyGraph, len(names))
	for key, name := range names {
		deps := []string{}
		for _, dep := range adjacency[key] {
			if depName, ok := names[dep]; ok {
				deps = append(deps, depName)
			}
		}
		sort.Strings(deps)
		out[name] = deps
	}

	allCycles, err := graph.Cycles()
	if err != nil {
		return nil, opts, err
	}
	var cycles [][]string
	for _, cycle := range allCycles {
		var shown []string
		for _, key := range cycle {
			if name, ok := names[key]; ok {
				shown = append(shown, name)
			}
		}
		if len(shown) > 1 {
			sort.Strings(shown)
			cycles = append(cycles, shown)
		}
	}
	opts.Cycles = cycles
	if len(facades) > 0 {
		opts.Facades = facades
	}
	return out, opts, nil
}

func displayName(m *depgraph.Module, root string) string {
	if m.BuiltIn || m.AbsPath == "" {
		return m.Specifier
	}
	rel, err := filepath.Rel(root, m.AbsPath)
	if err != nil {
		return m.AbsPath
	}
	return filepath.ToSlash(rel)
}
