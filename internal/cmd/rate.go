package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/switchboard/internal/learning"
	"github.com/harrison/switchboard/internal/store"
)

// NewRateCommand creates the 'switchboard rate' command
func NewRateCommand() *cobra.Command {
	var (
		notes   string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "rate <decision-id> <rating>",
		Short: "Rate a routing decision from 1 to 5",
		Long: `Record outcome feedback for a past routing decision.

Ratings of 3 and above count as successful outcomes. Feedback updates
the effectiveness statistics and feeds the weight adjuster.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return failJSON(cmd, jsonOut, fmt.Errorf("rating must be an integer, got %q", args[1]), nil)
			}

			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			cross, err := app.crossStore()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			rater := learning.NewRater(app.decisions, app.feedback, app.effectiveness, cross)
			record, err := rater.Rate(cmd.Context(), args[0], rating, notes)
			if err != nil {
				if errors.Is(err, store.ErrDecisionNotFound) {
					return failJSON(cmd, jsonOut, err, map[string]string{"decision_id": args[0]})
				}
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), record)
			}

			w := cmd.OutOrStdout()
			green := color.New(color.FgGreen)
			green.Fprintf(w, "Recorded rating %d for decision %s\n", record.Rating, record.DecisionID)
			fmt.Fprintf(w, "  Intent:   %s\n", record.Intent)
			fmt.Fprintf(w, "  Workflow: %s\n", record.Workflow)
			fmt.Fprintf(w, "  Outcome:  %s\n", record.Outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes attached to the feedback")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the feedback record as JSON")
	return cmd
}
