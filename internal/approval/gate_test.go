package approval

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/switchboard/internal/config"
	"github.com/harrison/switchboard/internal/models"
	"github.com/harrison/switchboard/internal/store"
)

func newTestGate(t *testing.T, maxIterations int) (*Gate, *store.Journal[models.ApprovalAudit]) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.ApprovalConfig{
		Policies: map[string]string{
			"read_file":       "none",
			"run_tests":       "auto",
			"install_package": "human",
		},
		MaxIterations: maxIterations,
	}
	state := store.NewApprovalStateStore(filepath.Join(dir, "approval_state.json"))
	audit := store.NewJournal[models.ApprovalAudit](filepath.Join(dir, "approvals.jsonl"))
	return NewGate(cfg, state, audit), audit
}

func TestCheckModes(t *testing.T) {
	gate, _ := newTestGate(t, 10)

	tests := []struct {
		category     string
		mode         models.ApprovalMode
		required     bool
		autoApproved bool
	}{
		{"read_file", models.ApprovalNone, false, false},
		{"run_tests", models.ApprovalAuto, false, true},
		{"install_package", models.ApprovalHuman, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			decision, err := gate.Check(tt.category)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, decision.Mode)
			assert.Equal(t, tt.required, decision.Required)
			assert.Equal(t, tt.autoApproved, decision.AutoApproved)
			assert.NotEmpty(t, decision.Reason)
		})
	}
}

func TestCheckUnknownCategoryFailsSafe(t *testing.T) {
	gate, _ := newTestGate(t, 10)

	decision, err := gate.Check("deploy_production")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalHuman, decision.Mode)
	assert.True(t, decision.Required)
	assert.Contains(t, decision.Reason, "no policy")
}

func TestCheckExhaustedBudgetForcesApproval(t *testing.T) {
	gate, _ := newTestGate(t, 2)

	for i := 0; i < 2; i++ {
		require.NoError(t, gate.Execute("run_tests", false, func() error { return nil }))
	}

	decision, err := gate.Check("run_tests")
	require.NoError(t, err)
	assert.True(t, decision.Required)
	assert.False(t, decision.AutoApproved)
	assert.Contains(t, decision.Reason, "budget exhausted")
}

func TestExecuteBlocksWithoutGrant(t *testing.T) {
	gate, audit := newTestGate(t, 10)

	ran := false
	err := gate.Execute("install_package", false, func() error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, ErrApprovalRequired)
	assert.False(t, ran)

	entries, err := audit.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ApprovalBlocked, entries[0].Outcome)

	iterations, err := gate.Iterations()
	require.NoError(t, err)
	assert.Zero(t, iterations)
}

func TestExecuteWithGrant(t *testing.T) {
	gate, audit := newTestGate(t, 10)

	require.NoError(t, gate.Execute("install_package", true, func() error { return nil }))

	entries, err := audit.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ApprovalSuccess, entries[0].Outcome)
	assert.Equal(t, 1, entries[0].Iterations)
}

func TestExecuteRecordsFailure(t *testing.T) {
	gate, audit := newTestGate(t, 10)

	boom := errors.New("disk full")
	err := gate.Execute("run_tests", false, func() error { return boom })
	assert.ErrorIs(t, err, boom)

	entries, err := audit.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ApprovalError, entries[0].Outcome)
	assert.Equal(t, "disk full", entries[0].Error)

	// Failed runs do not advance the counter.
	iterations, err := gate.Iterations()
	require.NoError(t, err)
	assert.Zero(t, iterations)
}

func TestExecuteExemptCategorySkipsBudget(t *testing.T) {
	gate, _ := newTestGate(t, 10)

	require.NoError(t, gate.Execute("read_file", false, func() error { return nil }))
	require.NoError(t, gate.Execute("run_tests", false, func() error { return nil }))

	iterations, err := gate.Iterations()
	require.NoError(t, err)
	assert.Equal(t, 1, iterations)
}

func TestResetIterations(t *testing.T) {
	gate, _ := newTestGate(t, 10)

	require.NoError(t, gate.Execute("run_tests", false, func() error { return nil }))
	require.NoError(t, gate.ResetIterations())

	iterations, err := gate.Iterations()
	require.NoError(t, err)
	assert.Zero(t, iterations)

	decision, err := gate.Check("run_tests")
	require.NoError(t, err)
	assert.True(t, decision.AutoApproved)
}

func TestAuditTrailTail(t *testing.T) {
	gate, _ := newTestGate(t, 10)

	for i := 0; i < 3; i++ {
		require.NoError(t, gate.Execute("run_tests", false, func() error { return nil }))
	}

	trail, err := gate.AuditTrail(2)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, 3, trail[1].Iterations)
}
