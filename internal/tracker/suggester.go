package tracker

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/switchboard/internal/models"
	"github.com/harrison/switchboard/internal/store"
)

// ErrSuggestionNotFound is returned when feedback references an
// unknown suggestion ID.
var ErrSuggestionNotFound = errors.New("suggestion not found")

// maxAlternatives bounds the alternatives attached to a suggestion.
const maxAlternatives = 2

// candidate is one phase-appropriate next action.
type candidate struct {
	action    string
	rationale string
}

// phaseCandidates maps each phase to its ordered default candidates.
// Order encodes the baseline priority before acceptance reordering.
var phaseCandidates = map[models.Phase][]candidate{
	models.PhaseIdle: {
		{"pick_next_task", "No active work; choosing the next task keeps momentum"},
		{"review_backlog", "Idle time is a good window to groom pending work"},
	},
	models.PhasePlanning: {
		{"write_acceptance_criteria", "Concrete acceptance criteria make the plan verifiable"},
		{"split_into_steps", "Smaller steps surface unknowns before implementation"},
		{"start_smallest_step", "Starting the smallest step tests the plan cheaply"},
	},
	models.PhaseExecuting: {
		{"commit_checkpoint", "A checkpoint commit preserves progress before the next change"},
		{"run_tests_early", "Early test runs catch drift while the change is small"},
		{"note_open_questions", "Recording open questions keeps them from derailing the work"},
	},
	models.PhaseTesting: {
		{"triage_failures", "Grouping failures by cause shortens the fix loop"},
		{"add_missing_case", "A failing scenario without a test will regress again"},
	},
	models.PhaseDebugging: {
		{"minimal_reproduction", "A minimal reproduction isolates the faulty layer"},
		{"bisect_recent_changes", "Bisecting recent changes bounds where the defect entered"},
		{"take_a_break", "Stepping away resets a fixated debugging session"},
	},
	models.PhaseReviewing: {
		{"summarize_changes", "A change summary speeds up the reviewer"},
		{"self_review_diff", "A self-review pass catches the obvious findings first"},
	},
	models.PhaseWaiting: {
		{"start_parallel_task", "Independent work fills the wait without blocking on it"},
		{"nudge_blocker", "A short status ping keeps the blocking party moving"},
	},
	models.PhaseCompleted: {
		{"capture_learnings", "Notes written now are the only ones that get written"},
		{"close_out_thread", "Closing the thread marks the work done for everyone else"},
	},
}

// Result is the outcome of a suggestion request. When rate limited no
// suggestion is emitted and TimeUntilNext says how long to wait.
type Result struct {
	RateLimited   bool                     `json:"rate_limited"`
	TimeUntilNext time.Duration            `json:"time_until_next,omitempty"`
	Suggestion    *models.SuggestionRecord `json:"suggestion,omitempty"`
}

// Scheduler emits at most one suggestion per cooldown window and
// learns candidate ordering from accepted feedback.
type Scheduler struct {
	cooldown    time.Duration
	tracker     *Tracker
	suggestions *store.Journal[models.SuggestionRecord]
	feedback    *store.Journal[models.SuggestionFeedback]
	now         func() time.Time
}

// NewScheduler builds a scheduler over the suggestion journals.
func NewScheduler(cooldown time.Duration, tracker *Tracker, suggestions *store.Journal[models.SuggestionRecord], feedback *store.Journal[models.SuggestionFeedback]) *Scheduler {
	return &Scheduler{
		cooldown:    cooldown,
		tracker:     tracker,
		suggestions: suggestions,
		feedback:    feedback,
		now:         time.Now,
	}
}

// Suggest emits the best next-action suggestion for the current phase,
// or a rate-limited result when the cooldown has not elapsed. Emitted
// suggestions are journaled before being returned.
func (s *Scheduler) Suggest() (Result, error) {
	last, err := s.lastEmitted()
	if err != nil {
		return Result{}, err
	}
	if !last.IsZero() {
		if remaining := s.cooldown - s.now().Sub(last); remaining > 0 {
			return Result{RateLimited: true, TimeUntilNext: remaining}, nil
		}
	}

	state, err := s.tracker.Current()
	if err != nil {
		return Result{}, err
	}

	candidates := phaseCandidates[state.Phase]
	if len(candidates) == 0 {
		return Result{}, fmt.Errorf("no candidate actions for phase %s", state.Phase)
	}

	ranked, err := s.rank(candidates)
	if err != nil {
		return Result{}, err
	}

	record := models.SuggestionRecord{
		ID:        uuid.New().String(),
		Timestamp: s.now(),
		Phase:     state.Phase,
		Action:    ranked[0].action,
		Rationale: ranked[0].rationale,
	}
	for _, alt := range ranked[1:] {
		record.Alternatives = append(record.Alternatives, alt.action)
		if len(record.Alternatives) == maxAlternatives {
			break
		}
	}

	if err := s.suggestions.Append(record); err != nil {
		return Result{}, err
	}
	return Result{Suggestion: &record}, nil
}

// RecordFeedback journals whether a previously emitted suggestion was
// taken. The suggestion must exist.
func (s *Scheduler) RecordFeedback(suggestionID string, accepted bool, notes string) error {
	existing, err := s.suggestions.ReadAll()
	if err != nil {
		return err
	}
	found := false
	for _, rec := range existing {
		if rec.ID == suggestionID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrSuggestionNotFound, suggestionID)
	}

	return s.feedback.Append(models.SuggestionFeedback{
		SuggestionID: suggestionID,
		Timestamp:    s.now(),
		Accepted:     accepted,
		Notes:        notes,
	})
}

// lastEmitted returns the timestamp of the most recent suggestion, or
// the zero time when none exist.
func (s *Scheduler) lastEmitted() (time.Time, error) {
	tail, err := s.suggestions.Tail(1)
	if err != nil {
		return time.Time{}, err
	}
	if len(tail) == 0 {
		return time.Time{}, nil
	}
	return tail[0].Timestamp, nil
}

// rank reorders candidates by how often each action was accepted,
// falling back to baseline order on ties or no feedback.
func (s *Scheduler) rank(candidates []candidate) ([]candidate, error) {
	accepted, err := s.acceptedCounts()
	if err != nil {
		return nil, err
	}

	ranked := make([]candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return accepted[ranked[i].action] > accepted[ranked[j].action]
	})
	return ranked, nil
}

// acceptedCounts joins feedback to suggestions and counts acceptances
// per action.
func (s *Scheduler) acceptedCounts() (map[string]int, error) {
	feedback, err := s.feedback.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(feedback) == 0 {
		return map[string]int{}, nil
	}

	suggestions, err := s.suggestions.ReadAll()
	if err != nil {
		return nil, err
	}
	actionByID := make(map[string]string, len(suggestions))
	for _, rec := range suggestions {
		actionByID[rec.ID] = rec.Action
	}

	counts := make(map[string]int)
	for _, fb := range feedback {
		if !fb.Accepted {
			continue
		}
		if action, ok := actionByID[fb.SuggestionID]; ok {
			counts[action]++
		}
	}
	return counts, nil
}
