package build

import (
	"fmt"
	"path/filepath"

	"github.com/LegacyCodeHQ/tsout/cmd/cmdutil"
	"github.com/LegacyCodeHQ/tsout/compiler"
	"github.com/LegacyCodeHQ/tsout/config"
	"github.com/LegacyCodeHQ/tsout/workspace"
	"github.com/spf13/cobra"
)

type buildOptions struct {
	project config.Options
	dryRun  bool
}

// NewCommand returns a new build command instance.
func NewCommand() *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the project into the output directory",
		Long: `Compile every source file of the project, and every local module those
files import, into the output directory. Imports are rewritten to the
compiled locations; other assets are copied.

Examples:
  tsout build                           # compile using ./tsconfig.json
  tsout build -p ./app -o ./app/out     # explicit project and output
  tsout build -b @acme/ui,./src/shared  # redirect imports of barrel packages
  tsout build --dry-run                 # list the files that would be written`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmdutil.AddProjectFlags(cmd, &opts.project)
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Compile without writing; list the output files instead")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *buildOptions) error {
	cfg, err := cmdutil.LoadConfig(cmd, opts.project)
	if err != nil {
		return err
	}

	var recording *workspace.RecordingSink
	var compilerOpts []compiler.Option
	if opts.dryRun {
		recording = workspace.NewRecordingSink()
		compilerOpts = append(compilerOpts, compiler.WithSink(recording))
	}

	c, err := compiler.New(cfg, compilerOpts...)
	if err != nil {
		return fmt.Errorf("failed to create compiler: %w", err)
	}

	result, err := c.Run(cmd.Context())
	if result != nil {
		out := cmd.OutOrStdout()
		if recording != nil {
			for _, p := range recording.Paths() {
				rel, relErr := filepath.Rel(cfg.ProjectRoot, p)
				if relErr != nil {
					rel = p
				}
				fmt.Fprintln(out, filepath.ToSlash(rel))
			}
		}
		fmt.Fprintf(out, "Compiled %d, copied %d, skipped %d modules in %d batches\n",
			result.Compiled, result.Copied, result.Skipped, result.Batches)
	}
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	return nil
}
