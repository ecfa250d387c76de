package cmd

import (
	"os"

	"github.com/LegacyCodeHQ/tsout/cmd/build"
	"github.com/LegacyCodeHQ/tsout/cmd/graph"
	"github.com/LegacyCodeHQ/tsout/cmd/optimize"
	"github.com/LegacyCodeHQ/tsout/cmd/watch"
	"github.com/LegacyCodeHQ/tsout/internal/buildlog"
	"github.com/spf13/cobra"
)

// version is set via build-time ldflags
var version = "dev"

// buildDate is set via build-time ldflags
var buildDate = "unknown"

// commit is set via build-time ldflags
var commit = "unknown"

// logLevel is a persistent flag selecting the diagnostic log level
var logLevel string

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tsout",
		Short: "Compile TypeScript and JavaScript projects module by module",
		Long: `tsout compiles every TypeScript and JavaScript file reachable from a
project's sources into an output directory, resolving each import and
rewriting it to point at the compiled file.

Barrel packages can be enrolled so that named imports skip the index file
and load the module that actually defines the name.

Use 'tsout --help' to see all available commands, or 'tsout <command> --help'
for detailed information about a specific command.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			buildlog.Configure(cmd.ErrOrStderr(), logLevel)
		},
	}

	cmd.AddCommand(build.NewCommand())
	cmd.AddCommand(optimize.NewCommand())
	cmd.AddCommand(graph.NewCommand())
	cmd.AddCommand(watch.NewCommand())

	// Initialize annotations for version template
	cmd.Annotations = map[string]string{
		"buildDate": buildDate,
		"commit":    commit,
	}

	// Customize version template to show additional build info
	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
Build date: {{printf "%s" (index .Annotations "buildDate")}}
Commit: {{printf "%s" (index .Annotations "commit")}}
`)

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default: warn, or TSOUT_LOG_LEVEL)")
	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
