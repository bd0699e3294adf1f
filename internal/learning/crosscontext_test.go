package learning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/switchboard/internal/models"
)

func TestDetectProjectType(t *testing.T) {
	tests := []struct {
		name       string
		normalized string
		entities   models.Entities
		want       string
	}{
		{"explicit cli keyword", "build a cli for log parsing", models.Entities{}, ProjectCLITool},
		{"explicit library keyword", "create a retry library", models.Entities{}, ProjectLibrary},
		{"explicit pipeline keyword", "set up an etl pipeline", models.Entities{}, ProjectDataPipeline},
		{"explicit frontend keyword", "redesign the landing page", models.Entities{}, ProjectWebFrontend},
		{"explicit backend keyword", "build a rest api for orders", models.Entities{}, ProjectWebBackend},
		{"framework entity implies frontend", "build an auth flow", models.Entities{Frameworks: []string{"react"}}, ProjectWebFrontend},
		{"storage entity implies backend", "add caching", models.Entities{Storage: []string{"redis"}}, ProjectWebBackend},
		{"keyword beats entities", "publish this as a package", models.Entities{Frameworks: []string{"react"}}, ProjectLibrary},
		{"no signal defaults to general", "fix the thing", models.Entities{}, ProjectGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectProjectType(tt.normalized, tt.entities))
		})
	}
}

func TestNewLearnerSeedsDefaultProfiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := NewLearner(ctx, store)
	require.NoError(t, err)

	for _, expected := range DefaultProfiles() {
		profile, err := store.GetProfile(ctx, expected.ProjectType)
		require.NoError(t, err)
		require.NotNil(t, profile, expected.ProjectType)
		assert.Equal(t, expected.DefaultWorkflow, profile.DefaultWorkflow)
	}
}

func TestNewLearnerKeepsExistingProfiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	custom := models.ProjectProfile{
		ProjectType:     ProjectCLITool,
		DefaultWorkflow: models.WorkflowPlanExecute,
	}
	require.NoError(t, store.UpsertProfile(ctx, custom))

	_, err := NewLearner(ctx, store)
	require.NoError(t, err)

	profile, err := store.GetProfile(ctx, ProjectCLITool)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, models.WorkflowPlanExecute, profile.DefaultWorkflow)
}

func TestRecommendWorkflowLearned(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	learner, err := NewLearner(ctx, store)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordOutcome(ctx, ProjectWebBackend, models.IntentDebugFix, models.WorkflowExecute, true, 5))
	}

	rec, err := learner.RecommendWorkflow(ctx, ProjectWebBackend, models.IntentDebugFix)
	require.NoError(t, err)
	assert.True(t, rec.Learned)
	assert.Equal(t, models.WorkflowExecute, rec.Workflow)
	assert.Equal(t, "high", rec.Confidence)
}

func TestRecommendWorkflowConfidenceScalesWithSamples(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	learner, err := NewLearner(ctx, store)
	require.NoError(t, err)

	require.NoError(t, store.RecordOutcome(ctx, ProjectCLITool, models.IntentQuickTask, models.WorkflowQuick, true, 4))
	rec, err := learner.RecommendWorkflow(ctx, ProjectCLITool, models.IntentQuickTask)
	require.NoError(t, err)
	assert.True(t, rec.Learned)
	assert.Equal(t, "low", rec.Confidence)

	require.NoError(t, store.RecordOutcome(ctx, ProjectCLITool, models.IntentQuickTask, models.WorkflowQuick, true, 4))
	rec, err = learner.RecommendWorkflow(ctx, ProjectCLITool, models.IntentQuickTask)
	require.NoError(t, err)
	assert.Equal(t, "medium", rec.Confidence)
}

func TestRecommendWorkflowFallsBackToProfile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	learner, err := NewLearner(ctx, store)
	require.NoError(t, err)

	rec, err := learner.RecommendWorkflow(ctx, ProjectDataPipeline, models.IntentCreateProject)
	require.NoError(t, err)
	assert.False(t, rec.Learned)
	assert.Equal(t, models.WorkflowPlanExecute, rec.Workflow)
	assert.Equal(t, "low", rec.Confidence)
}

func TestRecommendWorkflowIgnoresPoorStatistics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	learner, err := NewLearner(ctx, store)
	require.NoError(t, err)

	// 1 success out of 3 is below the learned-rate floor.
	require.NoError(t, store.RecordOutcome(ctx, ProjectWebBackend, models.IntentCreateProject, models.WorkflowExecute, true, 4))
	require.NoError(t, store.RecordOutcome(ctx, ProjectWebBackend, models.IntentCreateProject, models.WorkflowExecute, false, 1))
	require.NoError(t, store.RecordOutcome(ctx, ProjectWebBackend, models.IntentCreateProject, models.WorkflowExecute, false, 2))

	rec, err := learner.RecommendWorkflow(ctx, ProjectWebBackend, models.IntentCreateProject)
	require.NoError(t, err)
	assert.False(t, rec.Learned)
	assert.Equal(t, models.WorkflowPlanExecute, rec.Workflow)
}

func TestRecommendWorkflowUnknownProjectType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	learner := &Learner{store: store}

	rec, err := learner.RecommendWorkflow(ctx, "embedded_firmware", models.IntentCreateProject)
	require.NoError(t, err)
	assert.False(t, rec.Learned)
	assert.Equal(t, models.WorkflowExecute, rec.Workflow)
}
