package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/switchboard/internal/models"
	"github.com/harrison/switchboard/internal/tracker"
)

// NewBottleneckCommand creates the 'switchboard bottleneck-check' command
func NewBottleneckCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "bottleneck-check [activity]",
		Short: "Check the workflow for stalled progress",
		Long: `Classify elapsed time since the last progress event against the
slowing, stalled and blocked thresholds, and scan the activity text
for known stall patterns.

The activity argument may be plain text or a JSON object with "text"
and "last_progress" fields. Non-progressing verdicts are appended to
the bottleneck log.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var activity tracker.Activity
			if len(args) == 1 {
				activity = parseActivity(args[0])
			}

			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			verdict, err := app.detector().Check(activity)
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), verdict)
			}
			printVerdict(cmd, verdict)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the verdict as JSON")
	return cmd
}

// parseActivity accepts either a JSON activity object or plain text.
func parseActivity(arg string) tracker.Activity {
	trimmed := strings.TrimSpace(arg)
	if strings.HasPrefix(trimmed, "{") {
		var activity tracker.Activity
		if err := json.Unmarshal([]byte(trimmed), &activity); err == nil {
			return activity
		}
	}
	return tracker.Activity{Text: arg}
}

func printVerdict(cmd *cobra.Command, verdict tracker.Verdict) {
	w := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintf(w, "Status: ")
	switch verdict.Status {
	case models.StatusProgressing:
		color.New(color.FgGreen).Fprintf(w, "%s\n", verdict.Status)
	case models.StatusSlowing:
		color.New(color.FgYellow).Fprintf(w, "%s\n", verdict.Status)
	default:
		color.New(color.FgRed).Fprintf(w, "%s\n", verdict.Status)
	}

	fmt.Fprintf(w, "Phase:  %s\n", verdict.Phase)
	fmt.Fprintf(w, "Since progress: %s\n", verdict.SinceProgress.Round(time.Second))

	if len(verdict.MatchedPatterns) > 0 {
		cyan.Fprintf(w, "\nStall patterns:\n")
		for _, name := range verdict.MatchedPatterns {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}
	if len(verdict.Suggestions) > 0 {
		cyan.Fprintf(w, "\nSuggestions:\n")
		for _, s := range verdict.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}
