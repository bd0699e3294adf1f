package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/switchboard/internal/models"
)

// NewApprovalCommand creates the 'switchboard approval' command group
func NewApprovalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approval",
		Short: "Check and manage the action approval gate",
	}

	cmd.AddCommand(newApprovalCheckCommand())
	cmd.AddCommand(newApprovalResetCommand())
	cmd.AddCommand(newApprovalLogCommand())
	return cmd
}

func newApprovalCheckCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "check <category>",
		Short: "Check whether an action category needs approval",
		Long: `Evaluate the configured policy for an action category. Categories
without a policy require human approval, as does every category once
the autonomous iteration budget is spent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			decision, err := app.gate().Check(args[0])
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), decision)
			}

			w := cmd.OutOrStdout()
			if decision.Required {
				color.New(color.FgRed).Fprintf(w, "Approval required")
			} else if decision.AutoApproved {
				color.New(color.FgGreen).Fprintf(w, "Auto-approved")
			} else {
				color.New(color.FgGreen).Fprintf(w, "No approval needed")
			}
			fmt.Fprintf(w, " for %s\n", decision.Category)
			fmt.Fprintf(w, "  Policy:     %s\n", decision.Mode)
			fmt.Fprintf(w, "  Reason:     %s\n", decision.Reason)
			fmt.Fprintf(w, "  Iterations: %d\n", decision.Iterations)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the decision as JSON")
	return cmd
}

func newApprovalResetCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the autonomous iteration counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			if err := app.gate().ResetIterations(); err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"iterations": 0})
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Iteration counter reset\n")
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the result as JSON")
	return cmd
}

func newApprovalLogCommand() *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent approval audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			entries, err := app.gate().AuditTrail(limit)
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), entries)
			}

			w := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(w, "No audit entries\n")
				return nil
			}
			for _, entry := range entries {
				var c *color.Color
				switch entry.Outcome {
				case models.ApprovalSuccess:
					c = color.New(color.FgGreen)
				case models.ApprovalBlocked:
					c = color.New(color.FgYellow)
				default:
					c = color.New(color.FgRed)
				}
				fmt.Fprintf(w, "%s  %-16s ", entry.Timestamp.Format(time.RFC3339), entry.Category)
				c.Fprintf(w, "%-8s", entry.Outcome)
				fmt.Fprintf(w, " iter=%d  %s\n", entry.Iterations, entry.Reason)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the audit entries as JSON")
	return cmd
}
