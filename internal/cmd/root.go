// Package cmd wires the switchboard CLI.
package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/switchboard/internal/logger"
	"github.com/harrison/switchboard/internal/store"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for switchboard
func NewRootCommand() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "switchboard",
		Short: "Adaptive natural-language task router",
		Long: `Switchboard classifies free-form task requests into intents,
selects a workflow for each, and learns from outcome feedback.

Decisions, feedback and suggestions are persisted as append-only logs
under the switchboard home directory (SWITCHBOARD_HOME or ./.switchboard).`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !isatty.IsTerminal(os.Stdout.Fd()) {
				color.NoColor = true
			}
			// Malformed journal lines surface as diagnostics on stderr.
			log := logger.NewConsoleLogger(os.Stderr, logLevel)
			store.Warnf = log.Warnf
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "diagnostic log level (debug, info, warn, error)")

	cmd.AddCommand(NewClassifyCommand())
	cmd.AddCommand(NewRateCommand())
	cmd.AddCommand(NewWeightsCommand())
	cmd.AddCommand(NewStateCommand())
	cmd.AddCommand(NewBottleneckCommand())
	cmd.AddCommand(NewSuggestCommand())
	cmd.AddCommand(NewApprovalCommand())
	cmd.AddCommand(NewHandoffCommand())
	cmd.AddCommand(NewStatsCommand())

	return cmd
}
