package models

import "time"

// Phase is a workflow progress state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePlanning  Phase = "planning"
	PhaseExecuting Phase = "executing"
	PhaseTesting   Phase = "testing"
	PhaseDebugging Phase = "debugging"
	PhaseReviewing Phase = "reviewing"
	PhaseWaiting   Phase = "waiting"
	PhaseCompleted Phase = "completed"
)

// PhaseTransition is one entry in the bounded transition history.
type PhaseTransition struct {
	From      Phase     `json:"from"`
	To        Phase     `json:"to"`
	Timestamp time.Time `json:"timestamp"`
	Trigger   string    `json:"trigger,omitempty"` // inferred signal or "explicit"
}

// MaxTransitionHistory bounds the retained transition history.
const MaxTransitionHistory = 50

// WorkflowState is the tracked progress of the active task thread.
// Transitions are the only mutation; the document is rewritten wholesale.
type WorkflowState struct {
	Phase          Phase             `json:"phase"`
	PreviousPhase  Phase             `json:"previous_phase"`
	LastTransition time.Time         `json:"last_transition"`
	LastProgress   time.Time         `json:"last_progress"`
	History        []PhaseTransition `json:"history,omitempty"`
	Context        map[string]string `json:"context,omitempty"`
}

// BottleneckStatus classifies elapsed time since the last progress event.
type BottleneckStatus string

const (
	StatusProgressing BottleneckStatus = "progressing"
	StatusSlowing     BottleneckStatus = "slowing"
	StatusStalled     BottleneckStatus = "stalled"
	StatusBlocked     BottleneckStatus = "blocked"
)

// BottleneckRecord is one detected stall verdict. Append-only.
type BottleneckRecord struct {
	Timestamp       time.Time        `json:"timestamp"`
	Status          BottleneckStatus `json:"status"`
	Phase           Phase            `json:"phase"`
	MatchedPatterns []string         `json:"matched_patterns,omitempty"`
	SinceProgress   time.Duration    `json:"since_progress"`
	Suggestions     []string         `json:"suggestions,omitempty"`
}

// SuggestionRecord is one emitted proactive suggestion.
type SuggestionRecord struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Phase        Phase     `json:"phase"`
	Action       string    `json:"action"`
	Rationale    string    `json:"rationale"`
	Alternatives []string  `json:"alternatives,omitempty"`
}

// SuggestionFeedback records whether an emitted suggestion was taken.
type SuggestionFeedback struct {
	SuggestionID string    `json:"suggestion_id"`
	Timestamp    time.Time `json:"timestamp"`
	Accepted     bool      `json:"accepted"`
	Notes        string    `json:"notes,omitempty"`
}
