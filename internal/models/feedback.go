package models

import "time"

// Outcome is the derived success/failure of a rated decision.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// MinRating and MaxRating bound the ordinal feedback scale.
const (
	MinRating = 1
	MaxRating = 5
)

// SuccessRatingFloor is the lowest rating still counted as a success.
const SuccessRatingFloor = 3

// FeedbackRecord captures a human rating of a past decision.
// Never mutated after append.
type FeedbackRecord struct {
	ID         string    `json:"id"`
	DecisionID string    `json:"decision_id"`
	Timestamp  time.Time `json:"timestamp"`
	Rating     int       `json:"rating"`
	Outcome    Outcome   `json:"outcome"`
	Notes      string    `json:"notes,omitempty"`
	Intent     Intent    `json:"intent"`
	Workflow   Workflow  `json:"workflow"`
}

// OutcomeForRating derives the binary outcome from an ordinal rating.
func OutcomeForRating(rating int) Outcome {
	if rating >= SuccessRatingFloor {
		return OutcomeSuccess
	}
	return OutcomeFailed
}

// EffectivenessEntry accumulates per-(intent, workflow) results.
// The only read-modify-write record besides the weight table; the
// canonical average rating is RatingSum / Uses computed at read time.
type EffectivenessEntry struct {
	Intent        Intent    `json:"intent"`
	Workflow      Workflow  `json:"workflow"`
	Uses          int       `json:"uses"`
	Successes     int       `json:"successes"`
	RatingSum     int       `json:"rating_sum"`
	ConfidenceSum int       `json:"confidence_sum"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SuccessRate returns successes/uses, or 0 when unused.
func (e EffectivenessEntry) SuccessRate() float64 {
	if e.Uses == 0 {
		return 0
	}
	return float64(e.Successes) / float64(e.Uses)
}

// AverageRating returns RatingSum/Uses, or 0 when unused.
func (e EffectivenessEntry) AverageRating() float64 {
	if e.Uses == 0 {
		return 0
	}
	return float64(e.RatingSum) / float64(e.Uses)
}
