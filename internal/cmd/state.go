package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/switchboard/internal/models"
)

// NewStateCommand creates the 'switchboard state' command group
func NewStateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and move the tracked workflow state",
	}

	cmd.AddCommand(newStateShowCommand())
	cmd.AddCommand(newStateSetCommand())
	cmd.AddCommand(newStateObserveCommand())
	return cmd
}

func newStateShowCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current workflow phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			state, err := app.tracker().Current()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), state)
			}
			printState(cmd.OutOrStdout(), state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the workflow state as JSON")
	return cmd
}

func newStateSetCommand() *cobra.Command {
	var (
		force   bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "set <phase>",
		Short: "Transition to a new workflow phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			state, err := app.tracker().Transition(models.Phase(args[0]), "explicit", force)
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), state)
			}
			green := color.New(color.FgGreen)
			green.Fprintf(cmd.OutOrStdout(), "Transitioned %s -> %s\n", state.PreviousPhase, state.Phase)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "allow transitions outside the phase graph")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the workflow state as JSON")
	return cmd
}

func newStateObserveCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "observe <activity>",
		Short: "Infer the phase from activity text",
		Long: `Scan activity text for phase signals and transition automatically
when a different phase is inferred and the transition is valid.
Activity matching the current phase refreshes the progress anchor.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			state, transitioned, err := app.tracker().Observe(args[0])
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"transitioned": transitioned,
					"state":        state,
				})
			}
			w := cmd.OutOrStdout()
			if transitioned {
				color.New(color.FgGreen).Fprintf(w, "Transitioned %s -> %s\n", state.PreviousPhase, state.Phase)
			} else {
				fmt.Fprintf(w, "No transition; phase remains %s\n", state.Phase)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the observation result as JSON")
	return cmd
}

func printState(w io.Writer, state models.WorkflowState) {
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintf(w, "Phase:           ")
	fmt.Fprintf(w, "%s\n", state.Phase)
	cyan.Fprintf(w, "Previous:        ")
	fmt.Fprintf(w, "%s\n", state.PreviousPhase)
	cyan.Fprintf(w, "Last transition: ")
	fmt.Fprintf(w, "%s\n", state.LastTransition.Format(time.RFC3339))
	cyan.Fprintf(w, "Last progress:   ")
	fmt.Fprintf(w, "%s\n", state.LastProgress.Format(time.RFC3339))

	if len(state.History) > 0 {
		cyan.Fprintf(w, "\nRecent transitions:\n")
		start := len(state.History) - 5
		if start < 0 {
			start = 0
		}
		for _, t := range state.History[start:] {
			fmt.Fprintf(w, "  %s  %s -> %s (%s)\n",
				t.Timestamp.Format("2006-01-02 15:04"), t.From, t.To, t.Trigger)
		}
	}
}
