package learning

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/switchboard/internal/models"
	"github.com/harrison/switchboard/internal/store"
)

func newRaterFixture(t *testing.T, cross *Store) (*Rater, *store.DecisionLog, *store.Journal[models.FeedbackRecord], *store.EffectivenessLog) {
	t.Helper()
	dir := t.TempDir()
	decisions := store.NewDecisionLog(filepath.Join(dir, "decisions.jsonl"))
	feedback := store.NewJournal[models.FeedbackRecord](filepath.Join(dir, "feedback.jsonl"))
	effectiveness := store.NewEffectivenessLog(filepath.Join(dir, "effectiveness.jsonl"))
	return NewRater(decisions, feedback, effectiveness, cross), decisions, feedback, effectiveness
}

func logDecision(t *testing.T, decisions *store.DecisionLog, id string) models.DecisionRecord {
	t.Helper()
	rec := models.DecisionRecord{
		ID:         id,
		Timestamp:  time.Now(),
		RawMessage: "Build a React authentication system",
		Normalized: "build a react authentication system",
		Intent:     models.IntentCreateProject,
		Confidence: 75,
		Entities:   models.Entities{Frameworks: []string{"react"}, Complexity: models.ComplexityHigh},
		Workflow:   models.WorkflowPlanExecute,
	}
	_, err := decisions.Log(rec)
	require.NoError(t, err)
	return rec
}

func TestRateRejectsOutOfRangeRating(t *testing.T) {
	rater, decisions, _, _ := newRaterFixture(t, nil)
	logDecision(t, decisions, "d1")

	for _, rating := range []int{0, 6, -3} {
		_, err := rater.Rate(context.Background(), "d1", rating, "")
		assert.Error(t, err, "rating %d", rating)
	}
}

func TestRateUnknownDecision(t *testing.T) {
	rater, _, _, _ := newRaterFixture(t, nil)

	_, err := rater.Rate(context.Background(), "missing", 4, "")
	assert.ErrorIs(t, err, store.ErrDecisionNotFound)
}

func TestRateRecordsFeedbackAndEffectiveness(t *testing.T) {
	rater, decisions, feedback, effectiveness := newRaterFixture(t, nil)
	decision := logDecision(t, decisions, "d1")

	record, err := rater.Rate(context.Background(), "d1", 4, "worked well")
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "d1", record.DecisionID)
	assert.Equal(t, models.OutcomeSuccess, record.Outcome)
	assert.Equal(t, decision.Intent, record.Intent)
	assert.Equal(t, decision.Workflow, record.Workflow)

	stored, err := feedback.ReadAll()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 4, stored[0].Rating)

	entry, ok, err := effectiveness.Get(store.EffectivenessKey{Intent: decision.Intent, Workflow: decision.Workflow})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, entry.Uses)
	assert.Equal(t, 1, entry.Successes)
	assert.Equal(t, 4, entry.RatingSum)
	assert.Equal(t, decision.Confidence, entry.ConfidenceSum)
}

func TestRateAccumulatesEffectivenessAcrossRatings(t *testing.T) {
	rater, decisions, _, effectiveness := newRaterFixture(t, nil)
	logDecision(t, decisions, "d1")
	logDecision(t, decisions, "d2")

	_, err := rater.Rate(context.Background(), "d1", 5, "")
	require.NoError(t, err)
	_, err = rater.Rate(context.Background(), "d2", 2, "went sideways")
	require.NoError(t, err)

	entry, ok, err := effectiveness.Get(store.EffectivenessKey{Intent: models.IntentCreateProject, Workflow: models.WorkflowPlanExecute})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, entry.Uses)
	assert.Equal(t, 1, entry.Successes)
	assert.Equal(t, 7, entry.RatingSum)
}

func TestRateFeedsCrossContextStore(t *testing.T) {
	cross, err := NewStore(":memory:")
	require.NoError(t, err)
	defer cross.Close()

	rater, decisions, _, _ := newRaterFixture(t, cross)
	logDecision(t, decisions, "d1")

	_, err = rater.Rate(context.Background(), "d1", 5, "")
	require.NoError(t, err)

	stats, err := cross.GetOutcomes(context.Background(), ProjectWebFrontend, models.IntentCreateProject)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, models.WorkflowPlanExecute, stats[0].Workflow)
	assert.Equal(t, 1, stats[0].Uses)
	assert.Equal(t, 1, stats[0].Successes)
}
