package models

import "time"

// ApprovalMode is the configured policy for an action category.
type ApprovalMode string

const (
	ApprovalAuto  ApprovalMode = "auto"  // approved without a human
	ApprovalHuman ApprovalMode = "human" // requires human sign-off
	ApprovalNone  ApprovalMode = "none"  // no approval concept applies
)

// ApprovalOutcome is the audited result of a gated action.
type ApprovalOutcome string

const (
	ApprovalBlocked ApprovalOutcome = "blocked"
	ApprovalSuccess ApprovalOutcome = "success"
	ApprovalError   ApprovalOutcome = "error"
)

// ApprovalAudit is one append-only gate audit entry.
type ApprovalAudit struct {
	Timestamp  time.Time       `json:"timestamp"`
	Category   string          `json:"category"`
	Outcome    ApprovalOutcome `json:"outcome"`
	Reason     string          `json:"reason"`
	Iterations int             `json:"iterations"`
	Error      string          `json:"error,omitempty"`
}

// ProjectProfile holds per-project-type defaults and learned
// workflow recommendations.
type ProjectProfile struct {
	ProjectType       string    `json:"project_type"`
	TypicalIntents    []Intent  `json:"typical_intents,omitempty"`
	DefaultWorkflow   Workflow  `json:"default_workflow"`
	PlanBeforeExecute bool      `json:"plan_before_execute"`
	UpdatedAt         time.Time `json:"updated_at"`
}
