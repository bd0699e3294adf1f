// Package learning closes the feedback loop: it captures outcome
// ratings, maintains per-(intent, workflow) effectiveness, recomputes
// pattern and intent weights, and accumulates cross-context statistics
// so routing improves without retraining anything.
package learning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/switchboard/internal/models"
	"github.com/harrison/switchboard/internal/store"
)

// Rater validates and records human feedback on past decisions.
type Rater struct {
	decisions     *store.DecisionLog
	feedback      *store.Journal[models.FeedbackRecord]
	effectiveness *store.EffectivenessLog
	cross         *Store // nil disables cross-context accumulation

	now func() time.Time
}

// NewRater wires the feedback write path. cross may be nil.
func NewRater(decisions *store.DecisionLog, feedback *store.Journal[models.FeedbackRecord], effectiveness *store.EffectivenessLog, cross *Store) *Rater {
	return &Rater{
		decisions:     decisions,
		feedback:      feedback,
		effectiveness: effectiveness,
		cross:         cross,
		now:           time.Now,
	}
}

// Rate records a rating for a past decision. The rating must be within
// [1,5] and the decision must exist; both are rejected at the boundary.
// The matching effectiveness entry is updated in the same invocation.
func (r *Rater) Rate(ctx context.Context, decisionID string, rating int, notes string) (models.FeedbackRecord, error) {
	var zero models.FeedbackRecord

	if rating < models.MinRating || rating > models.MaxRating {
		return zero, fmt.Errorf("rating must be between %d and %d, got %d", models.MinRating, models.MaxRating, rating)
	}

	decision, err := r.decisions.FindByID(decisionID)
	if err != nil {
		return zero, err
	}

	record := models.FeedbackRecord{
		ID:         uuid.NewString(),
		DecisionID: decision.ID,
		Timestamp:  r.now(),
		Rating:     rating,
		Outcome:    models.OutcomeForRating(rating),
		Notes:      notes,
		Intent:     decision.Intent,
		Workflow:   decision.Workflow,
	}

	if err := r.feedback.Append(record); err != nil {
		return zero, fmt.Errorf("append feedback: %w", err)
	}

	if err := r.updateEffectiveness(*decision, record); err != nil {
		return zero, err
	}

	if r.cross != nil {
		projectType := DetectProjectType(decision.Normalized, decision.Entities)
		if err := r.cross.RecordOutcome(ctx, projectType, decision.Intent, decision.Workflow,
			record.Outcome == models.OutcomeSuccess, rating); err != nil {
			// Cross-context statistics are advisory; a write failure
			// must not lose the feedback itself.
			store.Warnf("record cross-context outcome: %v", err)
		}
	}

	return record, nil
}

// updateEffectiveness folds one feedback record into the (intent,
// workflow) accumulator and appends the updated snapshot.
func (r *Rater) updateEffectiveness(decision models.DecisionRecord, feedback models.FeedbackRecord) error {
	key := store.EffectivenessKey{Intent: decision.Intent, Workflow: decision.Workflow}
	entry, ok, err := r.effectiveness.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		entry = models.EffectivenessEntry{Intent: decision.Intent, Workflow: decision.Workflow}
	}

	entry.Uses++
	if feedback.Outcome == models.OutcomeSuccess {
		entry.Successes++
	}
	entry.RatingSum += feedback.Rating
	entry.ConfidenceSum += decision.Confidence
	entry.UpdatedAt = r.now()

	return r.effectiveness.Record(entry)
}
