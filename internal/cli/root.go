// Package cli implements the Cobra command hierarchy for the adaptcore CLI
// tool: a thin, optional consumer of the adapter core exposing `run` and
// `list-adapters` for manual operation. None of this package is part of the
// adapter core's tested contract (spec §1 non-goals exclude a CLI surface
// from the core itself).
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/saferun/adaptcore/internal/obs"
	"github.com/saferun/adaptcore/internal/runconfig"
)

var (
	configPath string
	verbose    bool
	quiet      bool
	limits     runconfig.Limits
)

var rootCmd = &cobra.Command{
	Use:   "adaptcore",
	Short: "Inspect an artifact without executing it.",
	Long: `adaptcore dispatches a path to the adapter class that best matches it
(archive, package, extension, IaC/CI-CD, document, container, image, SCM, or
signature) and emits a bounded, canonical structural summary. It never
executes, mutates, or fetches the input it inspects.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := runconfig.Resolve(configPath)
		if err != nil {
			return err
		}
		limits = resolved

		level := obs.ResolveLevel(verbose, quiet)
		format := limits.LogFormat
		if format == "" {
			format = obs.ResolveFormat()
		}
		obs.Setup(level, format)
		slog.Debug("logging initialized", "level", level, "format", format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to adaptcore.toml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")
}

// Execute runs the root command and returns a process exit code: 0 on
// success, 1 on any error, including a RunResult Fail, which the run
// subcommand surfaces as an error carrying its fail code and message.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		return 1
	}
	return 0
}

// RootCmd returns the root cobra.Command, for testing and subcommand
// registration.
func RootCmd() *cobra.Command {
	return rootCmd
}
