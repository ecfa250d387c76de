// Package cmdutil holds the flags and setup shared by the project commands.
package cmdutil

import (
	"fmt"

	"github.com/LegacyCodeHQ/tsout/config"
	"github.com/LegacyCodeHQ/tsout/internal/buildlog"
	"github.com/spf13/cobra"
)

// AddProjectFlags registers the flags that select and configure a project.
func AddProjectFlags(cmd *cobra.Command, opts *config.Options) {
	cmd.Flags().StringVarP(&opts.Root, "project", "p", "", "Project directory (default: current directory)")
	cmd.Flags().StringVar(&opts.Tsconfig, "tsconfig", "", "Path to tsconfig.json (default: <project>/tsconfig.json)")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "Output directory (default: compilerOptions.outDir or dist)")
	cmd.Flags().StringSliceVar(&opts.Externals, "external", nil, "Specifiers left unresolved (comma-separated)")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "Glob patterns of input files to skip (comma-separated)")
	cmd.Flags().StringSliceVar(&opts.Modules, "modules", nil, "Package directory names searched for bare specifiers (default: node_modules)")
	cmd.Flags().StringSliceVarP(&opts.BarrelPackages, "barrel", "b", nil, "Barrel packages whose named imports are redirected (comma-separated)")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "Modules compiled in parallel (default: number of CPUs)")
	cmd.Flags().BoolVar(&opts.SourceMap, "sourcemap", false, "Write external source maps")
	cmd.Flags().StringVar(&opts.OutExtension, "out-extension", "", "Extension of compiled .ts/.tsx/.js/.jsx files (default: .js)")
}

// LoadConfig resolves the project configuration and points the logger at
// the command's error stream with the resolved level.
func LoadConfig(cmd *cobra.Command, opts config.Options) (*config.Resolved, error) {
	if level, err := cmd.Flags().GetString("log-level"); err == nil && level != "" {
		opts.LogLevel = level
	}
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	buildlog.Configure(cmd.ErrOrStderr(), cfg.LogLevel)
	return cfg, nil
}
