package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/switchboard/internal/handoff"
	"github.com/harrison/switchboard/internal/models"
)

// NewHandoffCommand creates the 'switchboard handoff' command
func NewHandoffCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "handoff <from> <to> [context-json]",
		Short: "Generate a phase transition handoff document",
		Long: `Render the handoff template for a phase transition, filling its
placeholders from the context JSON object. Fields the context does
not supply are marked [MISSING: field] in the output.

Templates under <home>/templates/ shadow the built-in set.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			context := map[string]string{}
			if len(args) == 3 {
				if err := json.Unmarshal([]byte(args[2]), &context); err != nil {
					return failJSON(cmd, jsonOut, fmt.Errorf("parse context: %w", err), nil)
				}
			}

			app, err := newApp()
			if err != nil {
				return failJSON(cmd, jsonOut, err, nil)
			}
			defer app.close()

			generator := app.handoffGenerator()
			doc, err := generator.Generate(models.Phase(args[0]), models.Phase(args[1]), context)
			if err != nil {
				if errors.Is(err, handoff.ErrNoTemplate) {
					available, listErr := generator.AvailableTemplates()
					if listErr != nil {
						return failJSON(cmd, jsonOut, err, nil)
					}
					return failJSON(cmd, jsonOut, err, map[string]any{
						"available_templates": available,
					})
				}
				return failJSON(cmd, jsonOut, err, nil)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), doc)
			}

			w := cmd.OutOrStdout()
			fmt.Fprint(w, doc.Content)
			if len(doc.Missing) > 0 {
				yellow := color.New(color.FgYellow)
				yellow.Fprintf(w, "\nMissing fields: ")
				for i, field := range doc.Missing {
					if i > 0 {
						fmt.Fprintf(w, ", ")
					}
					fmt.Fprintf(w, "%s", field)
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the document as JSON")
	return cmd
}
