package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/switchboard/internal/tracker"
)

// NewSuggestCommand creates the 'switchboard suggest' command
func NewSuggestCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Get a proactive next-action suggestion",
		Long: `Emit the best next action for the current workflow phase, at most
once per cooldown window. Candidate ordering learns from accepted
suggestion feedback over time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			result, err := app.scheduler().Suggest()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printSuggestion(cmd, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the suggestion as JSON")
	cmd.AddCommand(newSuggestFeedbackCommand())
	return cmd
}

func newSuggestFeedbackCommand() *cobra.Command {
	var (
		accepted bool
		notes    string
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "feedback <suggestion-id>",
		Short: "Record whether a suggestion was taken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			if err := app.scheduler().RecordFeedback(args[0], accepted, notes); err != nil {
				if errors.Is(err, tracker.ErrSuggestionNotFound) {
					return failJSON(cmd, jsonOut, err, map[string]string{"suggestion_id": args[0]})
				}
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"suggestion_id": args[0],
					"accepted":      accepted,
				})
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Feedback recorded for %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&accepted, "accepted", false, "the suggestion was taken")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the result as JSON")
	return cmd
}

func printSuggestion(cmd *cobra.Command, result tracker.Result) {
	w := cmd.OutOrStdout()

	if result.RateLimited {
		color.New(color.FgYellow).Fprintf(w, "Rate limited; next suggestion available in %s\n",
			result.TimeUntilNext.Round(time.Second))
		return
	}

	rec := result.Suggestion
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintf(w, "Suggestion: ")
	fmt.Fprintf(w, "%s\n", rec.Action)
	cyan.Fprintf(w, "Rationale:  ")
	fmt.Fprintf(w, "%s\n", rec.Rationale)
	fmt.Fprintf(w, "Phase:      %s\n", rec.Phase)

	if len(rec.Alternatives) > 0 {
		cyan.Fprintf(w, "Alternatives:\n")
		for _, alt := range rec.Alternatives {
			fmt.Fprintf(w, "  - %s\n", alt)
		}
	}
	fmt.Fprintf(w, "ID:         %s\n", rec.ID)
}
