package optimize

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/LegacyCodeHQ/tsout/cmd/cmdutil"
	"github.com/LegacyCodeHQ/tsout/compiler"
	"github.com/LegacyCodeHQ/tsout/config"
	"github.com/LegacyCodeHQ/tsout/depgraph"
	"github.com/spf13/cobra"
)

type mappingJSON struct {
	Definer  string `json:"definer"`
	Original string `json:"original"`
}

// NewCommand returns a new optimize command instance.
func NewCommand() *cobra.Command {
	opts := &config.Options{}

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Print the export maps of the configured barrel packages",
		Long: `Run the barrel pass over the configured barrel packages and print, as JSON,
which module defines every name each package exports. Packages that are not
pure re-export barrels are left out. Cycles between "export *" statements are
reported on stderr. Nothing is compiled.

Only bare package specifiers are redirected when the project is built; a
relative barrel entry is listed here but its imports are left as written.

Examples:
  tsout optimize -b @acme/ui
  tsout optimize -b @acme/ui,lodash-es`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(cmd, *opts)
			if err != nil {
				return err
			}
			if len(cfg.BarrelPackages) == 0 {
				return fmt.Errorf("no barrel packages configured (use --barrel or barrelPackages in %s)", config.FileName)
			}

			c, err := compiler.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to create compiler: %w", err)
			}
			if err := c.PreOptimize(cmd.Context()); err != nil {
				return fmt.Errorf("barrel pass failed: %w", err)
			}

			data, err := json.MarshalIndent(toJSON(c.BarrelMappings(), cfg.ProjectRoot), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode export maps: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			for _, cycle := range c.Graph().ExportCycles() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: export * cycle: %s\n", strings.Join(relativePaths(cycle, cfg.ProjectRoot), " -> "))
			}
			return nil
		},
	}

	cmdutil.AddProjectFlags(cmd, opts)
	return cmd
}

func toJSON(all map[string]map[string]depgraph.Mapping, root string) map[string]map[string]mappingJSON {
	out := make(map[string]map[string]mappingJSON, len(all))
	for pkg, mappings := range all {
		entries := make(map[string]mappingJSON, len(mappings))
		for name, m := range mappings {
			entries[name] = mappingJSON{Definer: relativePath(m.Definer, root), Original: m.Original}
		}
		out[pkg] = entries
	}
	return out
}

func relativePath(path, root string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func relativePaths(paths []string, root string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = relativePath(p, root)
	}
	return out
}
