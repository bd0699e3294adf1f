package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetHome returns the switchboard home directory.
// Priority order:
//  1. SWITCHBOARD_HOME environment variable (if set)
//  2. .switchboard under the current working directory
//
// The directory is created if it doesn't exist.
func GetHome() (string, error) {
	if home := os.Getenv("SWITCHBOARD_HOME"); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create home directory: %w", err)
		}
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	home := filepath.Join(cwd, ".switchboard")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create home directory: %w", err)
	}

	return home, nil
}

// Paths resolves the persisted state layout under a home directory.
type Paths struct {
	Home               string
	Decisions          string
	Feedback           string
	Effectiveness      string
	Bottlenecks        string
	Suggestions        string
	SuggestionFeedback string
	Approvals          string
	Weights            string
	WorkflowState      string
	ApprovalState      string
	LearningDB         string
	Templates          string
	ConfigFile         string
}

// PathsFor returns the canonical file layout under home.
func PathsFor(home string) Paths {
	return Paths{
		Home:               home,
		Decisions:          filepath.Join(home, "decisions.jsonl"),
		Feedback:           filepath.Join(home, "feedback.jsonl"),
		Effectiveness:      filepath.Join(home, "effectiveness.jsonl"),
		Bottlenecks:        filepath.Join(home, "bottlenecks.jsonl"),
		Suggestions:        filepath.Join(home, "suggestions.jsonl"),
		SuggestionFeedback: filepath.Join(home, "suggestion_feedback.jsonl"),
		Approvals:          filepath.Join(home, "approvals.jsonl"),
		Weights:            filepath.Join(home, "weights.json"),
		WorkflowState:      filepath.Join(home, "workflow_state.json"),
		ApprovalState:      filepath.Join(home, "approval_state.json"),
		LearningDB:         filepath.Join(home, "learning.db"),
		Templates:          filepath.Join(home, "templates"),
		ConfigFile:         filepath.Join(home, "config.yaml"),
	}
}
