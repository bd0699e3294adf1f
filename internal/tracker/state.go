// Package tracker observes workflow phase transitions, detects stalled
// progress, and schedules rate-limited proactive suggestions.
package tracker

import (
	"fmt"
	"regexp"
	"time"

	"github.com/harrison/switchboard/internal/models"
	"github.com/harrison/switchboard/internal/store"
)

// validTransitions is the phase graph, including the cyclic back-edges
// debugging -> executing and reviewing -> executing.
var validTransitions = map[models.Phase][]models.Phase{
	models.PhaseIdle:      {models.PhasePlanning, models.PhaseExecuting},
	models.PhasePlanning:  {models.PhaseExecuting, models.PhaseWaiting, models.PhaseIdle},
	models.PhaseExecuting: {models.PhaseTesting, models.PhaseDebugging, models.PhaseReviewing, models.PhaseWaiting, models.PhaseCompleted},
	models.PhaseTesting:   {models.PhaseDebugging, models.PhaseReviewing, models.PhaseExecuting, models.PhaseWaiting, models.PhaseCompleted},
	models.PhaseDebugging: {models.PhaseExecuting, models.PhaseTesting, models.PhaseWaiting},
	models.PhaseReviewing: {models.PhaseExecuting, models.PhaseCompleted, models.PhaseWaiting},
	models.PhaseWaiting:   {models.PhasePlanning, models.PhaseExecuting, models.PhaseTesting, models.PhaseDebugging, models.PhaseReviewing, models.PhaseCompleted},
	models.PhaseCompleted: {models.PhaseIdle, models.PhasePlanning},
}

// phaseSignals infer a phase from keywords in recent activity text.
// Checked in order; the first match wins.
var phaseSignals = []struct {
	phase   models.Phase
	pattern *regexp.Regexp
}{
	{models.PhaseDebugging, regexp.MustCompile(`\b(debug(ging)?|stack trace|investigating (the )?(error|failure|crash))\b`)},
	{models.PhaseTesting, regexp.MustCompile(`\b(running tests|test suite|unit tests|writing tests)\b`)},
	{models.PhaseReviewing, regexp.MustCompile(`\b(review(ing)?|pull request|pr feedback|code review)\b`)},
	{models.PhasePlanning, regexp.MustCompile(`\b(plan(ning)?|design(ing)?|sketch(ing)?|architect(ing|ure)?)\b`)},
	{models.PhaseWaiting, regexp.MustCompile(`\b(waiting|blocked|on hold|pending approval)\b`)},
	{models.PhaseCompleted, regexp.MustCompile(`\b(done|finished|completed|shipped|merged)\b`)},
	{models.PhaseExecuting, regexp.MustCompile(`\b(implement(ing)?|coding|building|writing (the )?code|working on)\b`)},
}

// InferPhase returns the phase the activity text signals, or "" when
// no signal matched.
func InferPhase(activity string) models.Phase {
	for _, signal := range phaseSignals {
		if signal.pattern.MatchString(activity) {
			return signal.phase
		}
	}
	return ""
}

// IsValidTransition reports whether from -> to is an edge in the
// phase graph. Self-transitions are not edges.
func IsValidTransition(from, to models.Phase) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Tracker maintains the single active workflow state document.
type Tracker struct {
	state *store.Document[models.WorkflowState]
	now   func() time.Time
}

// NewTracker creates a tracker over the workflow state document.
func NewTracker(state *store.Document[models.WorkflowState]) *Tracker {
	return &Tracker{state: state, now: time.Now}
}

// Current returns the tracked state.
func (t *Tracker) Current() (models.WorkflowState, error) {
	return t.state.Load()
}

// Transition moves the workflow to a new phase. Invalid edges are
// rejected unless force is set (explicit operator override).
func (t *Tracker) Transition(to models.Phase, trigger string, force bool) (models.WorkflowState, error) {
	return t.state.Update(func(state *models.WorkflowState) error {
		if state.Phase == to {
			return fmt.Errorf("already in phase %s", to)
		}
		if !force && !IsValidTransition(state.Phase, to) {
			return fmt.Errorf("invalid transition %s -> %s", state.Phase, to)
		}

		now := t.now()
		state.History = append(state.History, models.PhaseTransition{
			From:      state.Phase,
			To:        to,
			Timestamp: now,
			Trigger:   trigger,
		})
		if len(state.History) > models.MaxTransitionHistory {
			state.History = state.History[len(state.History)-models.MaxTransitionHistory:]
		}

		state.PreviousPhase = state.Phase
		state.Phase = to
		state.LastTransition = now
		state.LastProgress = now
		return nil
	})
}

// Observe infers a phase from recent activity text and transitions if
// the inferred phase differs and the edge is valid. Activity that
// signals the current phase refreshes the progress anchor without a
// transition. Returns the resulting state and whether a transition
// happened.
func (t *Tracker) Observe(activity string) (models.WorkflowState, bool, error) {
	inferred := InferPhase(activity)
	if inferred == "" {
		state, err := t.Current()
		return state, false, err
	}

	current, err := t.Current()
	if err != nil {
		return models.WorkflowState{}, false, err
	}

	if inferred == current.Phase {
		state, err := t.RecordProgress()
		return state, false, err
	}

	if !IsValidTransition(current.Phase, inferred) {
		return current, false, nil
	}

	state, err := t.Transition(inferred, "signal:"+string(inferred), false)
	if err != nil {
		return current, false, err
	}
	return state, true, nil
}

// RecordProgress refreshes the progress anchor without changing phase.
func (t *Tracker) RecordProgress() (models.WorkflowState, error) {
	return t.state.Update(func(state *models.WorkflowState) error {
		state.LastProgress = t.now()
		return nil
	})
}
