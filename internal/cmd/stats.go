package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/switchboard/internal/learning"
	"github.com/harrison/switchboard/internal/models"
	"github.com/harrison/switchboard/internal/store"
)

// NewStatsCommand creates the 'switchboard stats' command
func NewStatsCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show routing and learning statistics",
		Long: `Aggregate the persisted logs into routing statistics:
  - Decision counts and intent distribution
  - Feedback volume and average rating
  - Per intent/workflow effectiveness
  - Suggestion and bottleneck activity`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			stats, err := collectStats(app)
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the statistics as JSON")
	cmd.AddCommand(newRecommendCommand())
	return cmd
}

// effectivenessRow is one (intent, workflow) accumulator flattened
// for display and JSON output.
type effectivenessRow struct {
	Intent      models.Intent   `json:"intent"`
	Workflow    models.Workflow `json:"workflow"`
	Uses        int             `json:"uses"`
	SuccessRate float64         `json:"success_rate"`
	AvgRating   float64         `json:"avg_rating"`
}

// routingStats is the aggregated view over every persisted log.
type routingStats struct {
	Decisions         int                             `json:"decisions"`
	ArchivedLogs      int                             `json:"archived_logs"`
	AverageConfidence float64                         `json:"average_confidence"`
	IntentCounts      map[models.Intent]int           `json:"intent_counts"`
	Feedback          int                             `json:"feedback"`
	AverageRating     float64                         `json:"average_rating"`
	Effectiveness     []effectivenessRow              `json:"effectiveness,omitempty"`
	Suggestions       int                             `json:"suggestions"`
	Bottlenecks       map[models.BottleneckStatus]int `json:"bottlenecks"`
	GateIterations    int                             `json:"gate_iterations"`
	CurrentPhase      models.Phase                    `json:"current_phase"`
}

func collectStats(a *app) (*routingStats, error) {
	stats := &routingStats{
		IntentCounts: make(map[models.Intent]int),
		Bottlenecks:  make(map[models.BottleneckStatus]int),
	}

	decisions, err := a.decisions.Query(store.DecisionFilter{}, 0)
	if err != nil {
		return nil, err
	}
	stats.Decisions = len(decisions)
	confidenceSum := 0
	for _, rec := range decisions {
		stats.IntentCounts[rec.Intent]++
		confidenceSum += rec.Confidence
	}
	if len(decisions) > 0 {
		stats.AverageConfidence = float64(confidenceSum) / float64(len(decisions))
	}

	archived, err := a.decisions.ArchivedCount()
	if err != nil {
		return nil, err
	}
	stats.ArchivedLogs = archived

	feedback, err := a.feedback.ReadAll()
	if err != nil {
		return nil, err
	}
	stats.Feedback = len(feedback)
	if len(feedback) > 0 {
		sum := 0
		for _, fb := range feedback {
			sum += fb.Rating
		}
		stats.AverageRating = float64(sum) / float64(len(feedback))
	}

	effectiveness, err := a.effectiveness.Load()
	if err != nil {
		return nil, err
	}
	for key, entry := range effectiveness {
		stats.Effectiveness = append(stats.Effectiveness, effectivenessRow{
			Intent:      key.Intent,
			Workflow:    key.Workflow,
			Uses:        entry.Uses,
			SuccessRate: entry.SuccessRate(),
			AvgRating:   entry.AverageRating(),
		})
	}
	sort.Slice(stats.Effectiveness, func(i, j int) bool {
		a, b := stats.Effectiveness[i], stats.Effectiveness[j]
		if a.Intent != b.Intent {
			return a.Intent < b.Intent
		}
		return a.Workflow < b.Workflow
	})

	suggestions, err := a.suggestions.Count()
	if err != nil {
		return nil, err
	}
	stats.Suggestions = suggestions

	bottlenecks, err := a.bottlenecks.ReadAll()
	if err != nil {
		return nil, err
	}
	for _, rec := range bottlenecks {
		stats.Bottlenecks[rec.Status]++
	}

	state, err := a.tracker().Current()
	if err != nil {
		return nil, err
	}
	stats.CurrentPhase = state.Phase

	iterations, err := a.gate().Iterations()
	if err != nil {
		return nil, err
	}
	stats.GateIterations = iterations

	return stats, nil
}

func printStats(w io.Writer, stats *routingStats) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	cyan.Fprintf(w, "Routing:\n")
	fmt.Fprintf(w, "  Decisions: %d (archived logs: %d)\n", stats.Decisions, stats.ArchivedLogs)
	if stats.Decisions > 0 {
		fmt.Fprintf(w, "  Average confidence: %.1f\n", stats.AverageConfidence)
	}
	fmt.Fprintf(w, "  Current phase: %s\n", stats.CurrentPhase)
	fmt.Fprintf(w, "  Gate iterations: %d\n", stats.GateIterations)

	if len(stats.IntentCounts) > 0 {
		cyan.Fprintf(w, "\nIntent distribution:\n")
		for _, intent := range sortedKeys(stats.IntentCounts) {
			fmt.Fprintf(w, "  %-18s %d\n", intent, stats.IntentCounts[intent])
		}
	}

	cyan.Fprintf(w, "\nFeedback:\n")
	fmt.Fprintf(w, "  Entries: %d\n", stats.Feedback)
	if stats.Feedback > 0 {
		fmt.Fprintf(w, "  Average rating: ")
		switch {
		case stats.AverageRating >= 3.5:
			green.Fprintf(w, "%.1f\n", stats.AverageRating)
		case stats.AverageRating >= 2.5:
			yellow.Fprintf(w, "%.1f\n", stats.AverageRating)
		default:
			red.Fprintf(w, "%.1f\n", stats.AverageRating)
		}
	}

	if len(stats.Effectiveness) > 0 {
		cyan.Fprintf(w, "\nEffectiveness:\n")
		for _, row := range stats.Effectiveness {
			rate := row.SuccessRate * 100
			fmt.Fprintf(w, "  %-18s %-14s uses=%-3d success=", row.Intent, row.Workflow, row.Uses)
			switch {
			case rate >= 70:
				green.Fprintf(w, "%.0f%%\n", rate)
			case rate >= 40:
				yellow.Fprintf(w, "%.0f%%\n", rate)
			default:
				red.Fprintf(w, "%.0f%%\n", rate)
			}
		}
	}

	if stats.Suggestions > 0 || len(stats.Bottlenecks) > 0 {
		cyan.Fprintf(w, "\nTracking:\n")
		fmt.Fprintf(w, "  Suggestions emitted: %d\n", stats.Suggestions)
		for _, status := range sortedKeys(stats.Bottlenecks) {
			fmt.Fprintf(w, "  Bottleneck %-12s %d\n", status, stats.Bottlenecks[status])
		}
	}
}

func newRecommendCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "recommend <project-type> <intent>",
		Short: "Recommend a workflow from cross-project outcomes",
		Long: `Recommend the workflow with the best recorded outcomes for a
project type and intent, falling back to the project profile default
when outcome data is thin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			cross, err := app.crossStore()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			learner, err := learning.NewLearner(cmd.Context(), cross)
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			rec, err := learner.RecommendWorkflow(cmd.Context(), args[0], models.Intent(args[1]))
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), rec)
			}

			w := cmd.OutOrStdout()
			cyan := color.New(color.FgCyan, color.Bold)
			cyan.Fprintf(w, "Workflow:   ")
			fmt.Fprintf(w, "%s\n", rec.Workflow)
			cyan.Fprintf(w, "Confidence: ")
			fmt.Fprintf(w, "%s\n", rec.Confidence)
			cyan.Fprintf(w, "Reason:     ")
			fmt.Fprintf(w, "%s\n", rec.Reason)
			if rec.Learned {
				fmt.Fprintf(w, "(learned from recorded outcomes)\n")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the recommendation as JSON")
	return cmd
}
