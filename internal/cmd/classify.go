package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/switchboard/internal/classify"
	"github.com/harrison/switchboard/internal/models"
)

// NewClassifyCommand creates the 'switchboard classify' command
func NewClassifyCommand() *cobra.Command {
	var (
		dryRun  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "classify <message>",
		Short: "Route a task request to a workflow",
		Long: `Classify a free-form task request into an intent, calibrate the
confidence of the match, and select the workflow to handle it.

The decision is appended to the decision log unless --dry-run is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			router, err := app.router()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			record, err := router.Classify(cmd.Context(), args[0], classify.ClassifyOptions{DryRun: dryRun})
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), record)
			}
			printDecision(cmd.OutOrStdout(), record, router.Levels().Level(record.Confidence))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "classify without writing to the decision log")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the decision record as JSON")
	return cmd
}

// printDecision formats a decision for a human reader.
func printDecision(w io.Writer, rec models.DecisionRecord, level classify.Level) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	cyan.Fprintf(w, "Intent:     ")
	fmt.Fprintf(w, "%s\n", rec.Intent)

	cyan.Fprintf(w, "Confidence: ")
	switch level {
	case classify.LevelVeryHigh, classify.LevelHigh:
		green.Fprintf(w, "%d (%s)\n", rec.Confidence, level)
	case classify.LevelBorderline:
		yellow.Fprintf(w, "%d (%s)\n", rec.Confidence, level)
	default:
		red.Fprintf(w, "%d (%s)\n", rec.Confidence, level)
	}

	cyan.Fprintf(w, "Workflow:   ")
	fmt.Fprintf(w, "%s\n", rec.Workflow)

	cyan.Fprintf(w, "Rationale:  ")
	fmt.Fprintf(w, "%s\n", rec.Rationale)

	if len(rec.MatchedPatterns) > 0 {
		cyan.Fprintf(w, "Patterns:   ")
		fmt.Fprintf(w, "%s\n", strings.Join(rec.MatchedPatterns, ", "))
	}
	printEntities(w, cyan, rec.Entities)

	if rec.ClassifierUsed {
		fmt.Fprintf(w, "(external classifier consulted)\n")
	}
	if rec.FromCache {
		fmt.Fprintf(w, "(served from cache)\n")
	}

	cyan.Fprintf(w, "Decision:   ")
	fmt.Fprintf(w, "%s\n", rec.ID)
}

func printEntities(w io.Writer, label *color.Color, e models.Entities) {
	var parts []string
	add := func(name string, values []string) {
		if len(values) > 0 {
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(values, "/")))
		}
	}
	add("frameworks", e.Frameworks)
	add("backends", e.Backends)
	add("storage", e.Storage)
	add("auth", e.Auth)
	add("ui", e.UI)
	if e.Complexity != "" && e.Complexity != models.ComplexityUnknown {
		parts = append(parts, fmt.Sprintf("complexity=%s", e.Complexity))
	}
	if len(parts) == 0 {
		return
	}
	label.Fprintf(w, "Entities:   ")
	fmt.Fprintf(w, "%s\n", strings.Join(parts, ", "))
}
