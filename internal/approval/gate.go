// Package approval gates action categories behind configured policies
// and an autonomous iteration budget, with an append-only audit trail.
package approval

import (
	"errors"
	"fmt"
	"time"

	"github.com/harrison/switchboard/internal/config"
	"github.com/harrison/switchboard/internal/models"
	"github.com/harrison/switchboard/internal/store"
)

// ErrApprovalRequired is returned when a gated action runs without the
// required grant.
var ErrApprovalRequired = errors.New("approval required")

// Decision is the gate's verdict for one action category.
type Decision struct {
	Category     string              `json:"category"`
	Mode         models.ApprovalMode `json:"mode"`
	Required     bool                `json:"required"`
	AutoApproved bool                `json:"auto_approved"`
	Reason       string              `json:"reason"`
	Iterations   int                 `json:"iterations"`
}

// Gate enforces the approval policy. Unlisted categories require a
// human; once the iteration budget is spent every category does.
type Gate struct {
	policies      map[string]models.ApprovalMode
	maxIterations int
	state         *store.Document[store.ApprovalState]
	audit         *store.Journal[models.ApprovalAudit]
	now           func() time.Time
}

// NewGate builds a gate from the approval config, state document and
// audit journal.
func NewGate(cfg config.ApprovalConfig, state *store.Document[store.ApprovalState], audit *store.Journal[models.ApprovalAudit]) *Gate {
	policies := make(map[string]models.ApprovalMode, len(cfg.Policies))
	for category, mode := range cfg.Policies {
		policies[category] = models.ApprovalMode(mode)
	}
	return &Gate{
		policies:      policies,
		maxIterations: cfg.MaxIterations,
		state:         state,
		audit:         audit,
		now:           time.Now,
	}
}

// Check returns the gate's decision for a category without executing
// anything.
func (g *Gate) Check(category string) (Decision, error) {
	state, err := g.state.Load()
	if err != nil {
		return Decision{}, err
	}

	decision := Decision{Category: category, Iterations: state.Iterations}

	mode, ok := g.policies[category]
	if !ok {
		// Unknown categories fail safe.
		decision.Mode = models.ApprovalHuman
		decision.Required = true
		decision.Reason = fmt.Sprintf("category %q has no policy; defaulting to human approval", category)
		return decision, nil
	}
	decision.Mode = mode

	if state.Iterations >= g.maxIterations {
		decision.Required = true
		decision.Reason = fmt.Sprintf("iteration budget exhausted (%d/%d); human approval required until reset",
			state.Iterations, g.maxIterations)
		return decision, nil
	}

	switch mode {
	case models.ApprovalNone:
		decision.Reason = "category is exempt from approval"
	case models.ApprovalAuto:
		decision.AutoApproved = true
		decision.Reason = "category is auto-approved by policy"
	default:
		decision.Required = true
		decision.Reason = "category requires human approval by policy"
	}
	return decision, nil
}

// Execute runs fn if the category's decision permits it, either via
// auto-approval or an explicit grant. Every path appends an audit
// entry; the iteration counter advances only on success.
func (g *Gate) Execute(category string, granted bool, fn func() error) error {
	decision, err := g.Check(category)
	if err != nil {
		return err
	}

	if decision.Required && !granted {
		if auditErr := g.record(category, models.ApprovalBlocked, decision.Reason, decision.Iterations, nil); auditErr != nil {
			return auditErr
		}
		return fmt.Errorf("%w: %s", ErrApprovalRequired, decision.Reason)
	}

	runErr := fn()
	if runErr != nil {
		if auditErr := g.record(category, models.ApprovalError, decision.Reason, decision.Iterations, runErr); auditErr != nil {
			return auditErr
		}
		return fmt.Errorf("execute %s: %w", category, runErr)
	}

	state, err := g.state.Update(func(s *store.ApprovalState) error {
		// Exempt categories do not consume the budget.
		if decision.Mode != models.ApprovalNone {
			s.Iterations++
		}
		s.UpdatedAt = g.now()
		return nil
	})
	if err != nil {
		return err
	}

	return g.record(category, models.ApprovalSuccess, decision.Reason, state.Iterations, nil)
}

// ResetIterations zeroes the iteration counter, typically after a
// human checkpoint.
func (g *Gate) ResetIterations() error {
	_, err := g.state.Update(func(s *store.ApprovalState) error {
		s.Iterations = 0
		s.UpdatedAt = g.now()
		return nil
	})
	return err
}

// Iterations returns the current counter value.
func (g *Gate) Iterations() (int, error) {
	state, err := g.state.Load()
	if err != nil {
		return 0, err
	}
	return state.Iterations, nil
}

// AuditTrail returns the last n audit entries.
func (g *Gate) AuditTrail(n int) ([]models.ApprovalAudit, error) {
	return g.audit.Tail(n)
}

func (g *Gate) record(category string, outcome models.ApprovalOutcome, reason string, iterations int, runErr error) error {
	entry := models.ApprovalAudit{
		Timestamp:  g.now(),
		Category:   category,
		Outcome:    outcome,
		Reason:     reason,
		Iterations: iterations,
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	return g.audit.Append(entry)
}
