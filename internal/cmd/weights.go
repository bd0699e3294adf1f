package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/switchboard/internal/learning"
	"github.com/harrison/switchboard/internal/models"
)

// NewWeightsCommand creates the 'switchboard weights' command group
func NewWeightsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Inspect and adjust the learned weight table",
	}

	cmd.AddCommand(newWeightsShowCommand())
	cmd.AddCommand(newWeightsAdjustCommand())
	return cmd
}

func newWeightsShowCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current weight table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			table, err := app.weights.Load()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), table)
			}
			printWeightTable(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the weight table as JSON")
	return cmd
}

func newWeightsAdjustCommand() *cobra.Command {
	var (
		days    int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Adjust weights from recent feedback",
		Long: `Recompute intent multipliers and pattern weights from the feedback
recorded in the lookback window. Intents with a success rate above 80%
are boosted; below 50% they are dampened. Running twice over the same
feedback is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return failJSON(cmd, jsonOut, fmt.Errorf("--days must be > 0, got %d", days), nil)
			}

			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			adjuster := learning.NewAdjuster(app.decisions, app.feedback, app.effectiveness, app.weights)
			adjustments, err := adjuster.AdjustWeights(time.Duration(days) * 24 * time.Hour)
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), adjustments)
			}
			printAdjustments(cmd.OutOrStdout(), adjustments)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "lookback window in days")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the adjustments as JSON")
	return cmd
}

func printWeightTable(w io.Writer, table models.WeightTable) {
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintf(w, "Intent multipliers:\n")
	for _, intent := range sortedKeys(table.IntentMultipliers) {
		fmt.Fprintf(w, "  %-18s %.2f\n", intent, table.IntentMultipliers[intent])
	}

	if len(table.PatternWeights) > 0 {
		cyan.Fprintf(w, "\nPattern weights:\n")
		for _, name := range sortedKeys(table.PatternWeights) {
			fmt.Fprintf(w, "  %-22s %.1f\n", name, table.PatternWeights[name])
		}
	}

	if len(table.WorkflowSuccess) > 0 {
		cyan.Fprintf(w, "\nWorkflow success rates:\n")
		for _, workflow := range sortedKeys(table.WorkflowSuccess) {
			fmt.Fprintf(w, "  %-14s %.0f%%\n", workflow, table.WorkflowSuccess[workflow]*100)
		}
	}

	if !table.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "\nLast updated: %s\n", table.UpdatedAt.Format(time.RFC3339))
	}
}

func printAdjustments(w io.Writer, adjustments []models.WeightAdjustment) {
	if len(adjustments) == 0 {
		fmt.Fprintf(w, "No adjustments made (insufficient or already-applied feedback)\n")
		return
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Fprintf(w, "Applied %d adjustment(s):\n", len(adjustments))
	for _, adj := range adjustments {
		c := green
		if adj.Current < adj.Previous {
			c = red
		}
		fmt.Fprintf(w, "  %s %s: ", adj.Kind, adj.Target)
		c.Fprintf(w, "%.2f -> %.2f", adj.Previous, adj.Current)
		fmt.Fprintf(w, " (%s)\n", adj.Justification)
	}
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
