package models

import "time"

// Intent is the classified purpose of a request.
type Intent string

const (
	IntentCreateProject   Intent = "create_project"
	IntentDebugFix        Intent = "debug_fix"
	IntentQuickTask       Intent = "quick_task"
	IntentDiscussDecision Intent = "discuss_decision"
	IntentResearch        Intent = "research"
	IntentRefactor        Intent = "refactor"
	IntentUnknown         Intent = "unknown"
)

// Workflow is the execution path chosen for a request.
type Workflow string

const (
	WorkflowClarify     Workflow = "clarify"
	WorkflowQuick       Workflow = "quick"
	WorkflowPlanExecute Workflow = "plan_execute"
	WorkflowExecute     Workflow = "execute"
	WorkflowDiscuss     Workflow = "discuss"
	WorkflowResearch    Workflow = "research"
)

// Complexity is the inferred effort tier of a request.
type Complexity string

const (
	ComplexityHigh    Complexity = "high"
	ComplexityMedium  Complexity = "medium"
	ComplexityLow     Complexity = "low"
	ComplexityUnknown Complexity = "unknown"
)

// Entities holds structured signals extracted from a request.
// Category slices are de-duplicated; empty slices are omitted from JSON.
type Entities struct {
	Frameworks []string   `json:"frameworks,omitempty"`
	Backends   []string   `json:"backends,omitempty"`
	Storage    []string   `json:"storage,omitempty"`
	Auth       []string   `json:"auth,omitempty"`
	UI         []string   `json:"ui,omitempty"`
	Complexity Complexity `json:"complexity"`
}

// HasAny reports whether any entity category matched.
// Complexity alone does not count; it always classifies to some tier.
func (e Entities) HasAny() bool {
	return len(e.Frameworks) > 0 || len(e.Backends) > 0 ||
		len(e.Storage) > 0 || len(e.Auth) > 0 || len(e.UI) > 0
}

// All returns every matched entity value across categories.
func (e Entities) All() []string {
	var all []string
	all = append(all, e.Frameworks...)
	all = append(all, e.Backends...)
	all = append(all, e.Storage...)
	all = append(all, e.Auth...)
	all = append(all, e.UI...)
	return all
}

// DecisionRecord is one routing decision. Immutable once logged.
type DecisionRecord struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	RawMessage      string    `json:"raw_message"`
	Normalized      string    `json:"normalized"`
	Intent          Intent    `json:"intent"`
	Confidence      int       `json:"confidence"`
	MatchedPatterns []string  `json:"matched_patterns,omitempty"`
	Entities        Entities  `json:"entities"`
	Workflow        Workflow  `json:"workflow"`
	Rationale       string    `json:"rationale"`
	ClassifierUsed  bool      `json:"classifier_used"`
	FromCache       bool      `json:"from_cache"`
}
