package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/LegacyCodeHQ/tsout/cmd/cmdutil"
	"github.com/LegacyCodeHQ/tsout/compiler"
	"github.com/LegacyCodeHQ/tsout/config"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	project config.Options
}

// NewCommand returns a new watch command instance.
func NewCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the project whenever a source file changes",
		Long: `Compile the project, then watch its directory and compile it again after
files change. Configuration is reloaded on every rebuild. Compile errors are
reported without stopping the watcher.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmdutil.AddProjectFlags(cmd, &opts.project)
	return cmd
}

func runWatch(cmd *cobra.Command, opts *watchOptions) error {
	cfg, err := cmdutil.LoadConfig(cmd, opts.project)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	rebuild := func() {
		build(ctx, cmd, opts, out)
	}
	rebuild()

	fmt.Fprintf(out, "Watching %s\n", cfg.ProjectRoot)
	fmt.Fprintf(out, "Press Ctrl+C to stop\n")

	return watchAndRebuild(ctx, cfg.ProjectRoot, cfg.OutputRoot, rebuild)
}

// build compiles the project once with a freshly loaded configuration and
// reports the outcome. Failures are printed, never returned.
func build(ctx context.Context, cmd *cobra.Command, opts *watchOptions, out io.Writer) {
	cfg, err := cmdutil.LoadConfig(cmd, opts.project)
	if err != nil {
		fmt.Fprintf(out, "%v\n", err)
		return
	}
	c, err := compiler.New(cfg)
	if err != nil {
		fmt.Fprintf(out, "failed to create compiler: %v\n", err)
		return
	}
	result, err := c.Run(ctx)
	if result != nil {
		fmt.Fprintf(out, "Compiled %d, copied %d, skipped %d modules in %d batches\n",
			result.Compiled, result.Copied, result.Skipped, result.Batches)
	}
	if err != nil {
		fmt.Fprintf(out, "build failed: %v\n", err)
	}
}
