package learning

import (
	"context"
	"fmt"
	"regexp"

	"github.com/harrison/switchboard/internal/models"
)

// Project type labels detected from surface signals.
const (
	ProjectWebFrontend  = "web_frontend"
	ProjectWebBackend   = "web_backend"
	ProjectCLITool      = "cli_tool"
	ProjectLibrary      = "library"
	ProjectDataPipeline = "data_pipeline"
	ProjectGeneral      = "general"
)

// projectKeywords map explicit phrases to a project type; checked
// before entity-based inference.
var projectKeywords = []struct {
	projectType string
	pattern     *regexp.Regexp
}{
	{ProjectCLITool, regexp.MustCompile(`\b(cli|command[- ]line|terminal tool)\b`)},
	{ProjectLibrary, regexp.MustCompile(`\b(library|package|sdk|module)\b`)},
	{ProjectDataPipeline, regexp.MustCompile(`\b(pipeline|etl|data (ingestion|processing)|batch job)\b`)},
	{ProjectWebFrontend, regexp.MustCompile(`\b(frontend|front[- ]end|ui|landing page|spa)\b`)},
	{ProjectWebBackend, regexp.MustCompile(`\b(backend|back[- ]end|rest api|graphql|server)\b`)},
}

// DetectProjectType infers a project-type label from explicit keywords
// first, then from framework entities, defaulting to "general".
func DetectProjectType(normalized string, entities models.Entities) string {
	for _, kw := range projectKeywords {
		if kw.pattern.MatchString(normalized) {
			return kw.projectType
		}
	}

	if len(entities.Frameworks) > 0 || len(entities.UI) > 0 {
		return ProjectWebFrontend
	}
	if len(entities.Backends) > 0 || len(entities.Storage) > 0 {
		return ProjectWebBackend
	}

	return ProjectGeneral
}

// DefaultProfiles returns the static per-type defaults used until
// empirical statistics override them.
func DefaultProfiles() []models.ProjectProfile {
	return []models.ProjectProfile{
		{
			ProjectType:       ProjectWebFrontend,
			TypicalIntents:    []models.Intent{models.IntentCreateProject, models.IntentQuickTask},
			DefaultWorkflow:   models.WorkflowPlanExecute,
			PlanBeforeExecute: true,
		},
		{
			ProjectType:       ProjectWebBackend,
			TypicalIntents:    []models.Intent{models.IntentCreateProject, models.IntentDebugFix},
			DefaultWorkflow:   models.WorkflowPlanExecute,
			PlanBeforeExecute: true,
		},
		{
			ProjectType:       ProjectCLITool,
			TypicalIntents:    []models.Intent{models.IntentCreateProject, models.IntentQuickTask},
			DefaultWorkflow:   models.WorkflowExecute,
			PlanBeforeExecute: false,
		},
		{
			ProjectType:       ProjectLibrary,
			TypicalIntents:    []models.Intent{models.IntentRefactor, models.IntentCreateProject},
			DefaultWorkflow:   models.WorkflowExecute,
			PlanBeforeExecute: false,
		},
		{
			ProjectType:       ProjectDataPipeline,
			TypicalIntents:    []models.Intent{models.IntentCreateProject, models.IntentDebugFix},
			DefaultWorkflow:   models.WorkflowPlanExecute,
			PlanBeforeExecute: true,
		},
		{
			ProjectType:       ProjectGeneral,
			TypicalIntents:    nil,
			DefaultWorkflow:   models.WorkflowExecute,
			PlanBeforeExecute: false,
		},
	}
}

// Recommendation is the cross-context learner's workflow suggestion.
type Recommendation struct {
	Workflow   models.Workflow `json:"workflow"`
	Confidence string          `json:"confidence"` // low, medium, high
	Reason     string          `json:"reason"`
	Learned    bool            `json:"learned"` // false when the static default was used
}

// recommendation thresholds: a learned workflow needs at least one use
// and a success rate above minLearnedRate; sample size scales the
// confidence tag.
const (
	minLearnedRate    = 0.5
	highSampleFloor   = 3
	mediumSampleFloor = 2
)

// Learner recommends workflows per project type from accumulated
// statistics, falling back to static profiles.
type Learner struct {
	store *Store
}

// NewLearner creates a learner over the cross-context store and seeds
// the default profiles for any type not yet present.
func NewLearner(ctx context.Context, store *Store) (*Learner, error) {
	for _, profile := range DefaultProfiles() {
		existing, err := store.GetProfile(ctx, profile.ProjectType)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}
		if err := store.UpsertProfile(ctx, profile); err != nil {
			return nil, err
		}
	}
	return &Learner{store: store}, nil
}

// RecommendWorkflow picks the empirically best workflow for a
// (project type, intent) pair when statistics support it, otherwise
// the project type's static default.
func (l *Learner) RecommendWorkflow(ctx context.Context, projectType string, intent models.Intent) (Recommendation, error) {
	stats, err := l.store.GetOutcomes(ctx, projectType, intent)
	if err != nil {
		return Recommendation{}, err
	}

	if len(stats) > 0 {
		best := stats[0]
		if best.Uses >= 1 && best.SuccessRate() > minLearnedRate {
			confidence := "low"
			switch {
			case best.Uses >= highSampleFloor:
				confidence = "high"
			case best.Uses >= mediumSampleFloor:
				confidence = "medium"
			}
			return Recommendation{
				Workflow:   best.Workflow,
				Confidence: confidence,
				Reason: fmt.Sprintf("%s/%s succeeded in %.0f%% of %d past uses",
					projectType, intent, best.SuccessRate()*100, best.Uses),
				Learned: true,
			}, nil
		}
	}

	profile, err := l.store.GetProfile(ctx, projectType)
	if err != nil {
		return Recommendation{}, err
	}
	if profile == nil {
		return Recommendation{
			Workflow:   models.WorkflowExecute,
			Confidence: "low",
			Reason:     fmt.Sprintf("no profile for project type %s; using the general default", projectType),
		}, nil
	}

	return Recommendation{
		Workflow:   profile.DefaultWorkflow,
		Confidence: "low",
		Reason:     fmt.Sprintf("no sufficient statistics for %s/%s; using the %s profile default", projectType, intent, projectType),
	}, nil
}
