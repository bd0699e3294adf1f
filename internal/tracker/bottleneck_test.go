package tracker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/switchboard/internal/config"
	"github.com/harrison/switchboard/internal/models"
	"github.com/harrison/switchboard/internal/store"
)

func newTestDetector(t *testing.T) (*Detector, *Tracker, *store.Journal[models.BottleneckRecord]) {
	t.Helper()
	dir := t.TempDir()
	tracker := NewTracker(store.NewWorkflowStateStore(filepath.Join(dir, "state.json")))
	log := store.NewJournal[models.BottleneckRecord](filepath.Join(dir, "bottlenecks.jsonl"))
	cfg := config.BottleneckConfig{
		Slowing: config.Duration(30 * time.Minute),
		Stalled: config.Duration(2 * time.Hour),
		Blocked: config.Duration(24 * time.Hour),
	}
	return NewDetector(cfg, tracker, log), tracker, log
}

func TestCheckClassifiesElapsedTime(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		elapsed time.Duration
		want    models.BottleneckStatus
	}{
		{10 * time.Minute, models.StatusProgressing},
		{45 * time.Minute, models.StatusSlowing},
		{3 * time.Hour, models.StatusStalled},
		{25 * time.Hour, models.StatusBlocked},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			detector, tracker, _ := newTestDetector(t)
			tracker.now = func() time.Time { return base }
			_, err := tracker.Transition(models.PhaseExecuting, "explicit", false)
			require.NoError(t, err)

			detector.now = func() time.Time { return base.Add(tt.elapsed) }
			verdict, err := detector.Check(Activity{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdict.Status)
			assert.Equal(t, models.PhaseExecuting, verdict.Phase)
			assert.Equal(t, tt.elapsed, verdict.SinceProgress)
		})
	}
}

func TestCheckIdleAndCompletedNeverStall(t *testing.T) {
	for _, phase := range []models.Phase{models.PhaseIdle, models.PhaseCompleted} {
		detector, tracker, _ := newTestDetector(t)
		if phase != models.PhaseIdle {
			_, err := tracker.Transition(phase, "explicit", true)
			require.NoError(t, err)
		}

		detector.now = func() time.Time { return time.Now().Add(72 * time.Hour) }
		verdict, err := detector.Check(Activity{})
		require.NoError(t, err)
		assert.Equal(t, models.StatusProgressing, verdict.Status, "phase %s", phase)
	}
}

func TestCheckPrefersNewerActivityAnchor(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	detector, tracker, _ := newTestDetector(t)
	tracker.now = func() time.Time { return base }
	_, err := tracker.Transition(models.PhaseExecuting, "explicit", false)
	require.NoError(t, err)

	// The tracked anchor says stalled but the caller reports fresher
	// progress.
	detector.now = func() time.Time { return base.Add(3 * time.Hour) }
	verdict, err := detector.Check(Activity{LastProgress: base.Add(3*time.Hour - 5*time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProgressing, verdict.Status)
	assert.Equal(t, 5*time.Minute, verdict.SinceProgress)
}

func TestCheckMatchesStallPatterns(t *testing.T) {
	detector, tracker, _ := newTestDetector(t)
	_, err := tracker.Transition(models.PhaseDebugging, "explicit", true)
	require.NoError(t, err)

	verdict, err := detector.Check(Activity{Text: "the build keeps failing with the same error"})
	require.NoError(t, err)
	assert.Equal(t, []string{"technical_blocker"}, verdict.MatchedPatterns)
	assert.NotEmpty(t, verdict.Suggestions)
}

func TestCheckOrdersPatternsBySeverityAndCapsSuggestions(t *testing.T) {
	detector, tracker, _ := newTestDetector(t)
	_, err := tracker.Transition(models.PhaseExecuting, "explicit", false)
	require.NoError(t, err)

	text := "tried everything, the same error; also one more thing keeps growing and i can't decide"
	verdict, err := detector.Check(Activity{Text: text})
	require.NoError(t, err)

	assert.Equal(t, []string{"technical_blocker", "decision_paralysis", "scope_creep"}, verdict.MatchedPatterns)
	assert.Len(t, verdict.Suggestions, maxSuggestions)
	// Highest severity suggestions survive the cap.
	assert.Equal(t, stallPatterns[0].Suggestions[0], verdict.Suggestions[0])
}

func TestCheckJournalsOnlyFindings(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	detector, tracker, log := newTestDetector(t)
	tracker.now = func() time.Time { return base }
	_, err := tracker.Transition(models.PhaseExecuting, "explicit", false)
	require.NoError(t, err)

	// Clean progressing verdict leaves no record.
	detector.now = func() time.Time { return base.Add(time.Minute) }
	_, err = detector.Check(Activity{Text: "going fine"})
	require.NoError(t, err)

	records, err := log.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)

	// Progressing with a matched pattern is still a finding.
	_, err = detector.Check(Activity{Text: "waiting on the vendor again"})
	require.NoError(t, err)

	// Stalled without pattern text is a finding too.
	detector.now = func() time.Time { return base.Add(3 * time.Hour) }
	_, err = detector.Check(Activity{})
	require.NoError(t, err)

	records, err = log.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"external_dependency"}, records[0].MatchedPatterns)
	assert.Equal(t, models.StatusStalled, records[1].Status)

	recent, err := detector.Recent(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, models.StatusStalled, recent[0].Status)
}
