package models

import "time"

// Weight bounds enforced by the adjuster. Values outside the bounds are
// clamped at the boundary, never written through.
const (
	MinPatternWeight = 5.0
	MaxPatternWeight = 50.0

	MinIntentMultiplier = 0.5
	MaxIntentMultiplier = 1.5
)

// WeightTable holds the tunable scoring state. Mutated only by the
// weight adjuster, rewritten wholesale on each change.
type WeightTable struct {
	PatternWeights    map[string]float64   `json:"pattern_weights"`
	IntentMultipliers map[Intent]float64   `json:"intent_multipliers"`
	WorkflowSuccess   map[Workflow]float64 `json:"workflow_success"`
	UpdatedAt         time.Time            `json:"updated_at"`

	// LastFeedbackAt is the timestamp of the newest feedback record the
	// adjuster has consumed. Re-running with no newer feedback is a no-op.
	LastFeedbackAt time.Time `json:"last_feedback_at"`
}

// NewWeightTable returns an empty table with initialized maps.
func NewWeightTable() *WeightTable {
	return &WeightTable{
		PatternWeights:    make(map[string]float64),
		IntentMultipliers: make(map[Intent]float64),
		WorkflowSuccess:   make(map[Workflow]float64),
	}
}

// EnsureMaps initializes any nil maps, e.g. after unmarshaling a
// partial document.
func (t *WeightTable) EnsureMaps() {
	if t.PatternWeights == nil {
		t.PatternWeights = make(map[string]float64)
	}
	if t.IntentMultipliers == nil {
		t.IntentMultipliers = make(map[Intent]float64)
	}
	if t.WorkflowSuccess == nil {
		t.WorkflowSuccess = make(map[Workflow]float64)
	}
}

// PatternWeight returns the stored weight for a pattern, or def when
// the pattern has never been adjusted.
func (t *WeightTable) PatternWeight(name string, def float64) float64 {
	if w, ok := t.PatternWeights[name]; ok {
		return w
	}
	return def
}

// IntentMultiplier returns the stored multiplier for an intent,
// defaulting to 1.0.
func (t *WeightTable) IntentMultiplier(intent Intent) float64 {
	if m, ok := t.IntentMultipliers[intent]; ok {
		return m
	}
	return 1.0
}

// ClampPatternWeight bounds a pattern weight to [MinPatternWeight, MaxPatternWeight].
func ClampPatternWeight(w float64) float64 {
	if w < MinPatternWeight {
		return MinPatternWeight
	}
	if w > MaxPatternWeight {
		return MaxPatternWeight
	}
	return w
}

// ClampIntentMultiplier bounds a multiplier to [MinIntentMultiplier, MaxIntentMultiplier].
func ClampIntentMultiplier(m float64) float64 {
	if m < MinIntentMultiplier {
		return MinIntentMultiplier
	}
	if m > MaxIntentMultiplier {
		return MaxIntentMultiplier
	}
	return m
}

// WeightAdjustment records a single change made by the adjuster, with a
// textual justification for the audit trail.
type WeightAdjustment struct {
	Target        string    `json:"target"`   // pattern name or intent name
	Kind          string    `json:"kind"`     // "pattern" or "intent"
	Previous      float64   `json:"previous"`
	Current       float64   `json:"current"`
	SuccessRate   float64   `json:"success_rate"`
	SampleSize    int       `json:"sample_size"`
	Justification string    `json:"justification"`
	Timestamp     time.Time `json:"timestamp"`
}
