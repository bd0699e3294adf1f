package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/switchboard/internal/approval"
	"github.com/harrison/switchboard/internal/classify"
	"github.com/harrison/switchboard/internal/config"
	"github.com/harrison/switchboard/internal/handoff"
	"github.com/harrison/switchboard/internal/learning"
	"github.com/harrison/switchboard/internal/models"
	"github.com/harrison/switchboard/internal/store"
	"github.com/harrison/switchboard/internal/tracker"
)

// app is the wired application state shared by every subcommand. Each
// command builds one, uses it, and closes it.
type app struct {
	home  string
	cfg   *config.Config
	paths config.Paths

	decisions          *store.DecisionLog
	feedback           *store.Journal[models.FeedbackRecord]
	effectiveness      *store.EffectivenessLog
	bottlenecks        *store.Journal[models.BottleneckRecord]
	suggestions        *store.Journal[models.SuggestionRecord]
	suggestionFeedback *store.Journal[models.SuggestionFeedback]
	approvalAudit      *store.Journal[models.ApprovalAudit]
	weights            *store.Document[models.WeightTable]
	workflowState      *store.Document[models.WorkflowState]
	approvalState      *store.Document[store.ApprovalState]

	cross *learning.Store
}

// newApp resolves the home directory, loads config, and opens every
// store. The sqlite store stays closed until crossStore is called.
func newApp() (*app, error) {
	home, err := config.GetHome()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadFromDir(home)
	if err != nil {
		return nil, err
	}

	paths := config.PathsFor(home)
	return &app{
		home:               home,
		cfg:                cfg,
		paths:              paths,
		decisions:          store.NewDecisionLog(paths.Decisions),
		feedback:           store.NewJournal[models.FeedbackRecord](paths.Feedback),
		effectiveness:      store.NewEffectivenessLog(paths.Effectiveness),
		bottlenecks:        store.NewJournal[models.BottleneckRecord](paths.Bottlenecks),
		suggestions:        store.NewJournal[models.SuggestionRecord](paths.Suggestions),
		suggestionFeedback: store.NewJournal[models.SuggestionFeedback](paths.SuggestionFeedback),
		approvalAudit:      store.NewJournal[models.ApprovalAudit](paths.Approvals),
		weights:            store.NewWeightStore(paths.Weights),
		workflowState:      store.NewWorkflowStateStore(paths.WorkflowState),
		approvalState:      store.NewApprovalStateStore(paths.ApprovalState),
	}, nil
}

// crossStore lazily opens the cross-context sqlite store.
func (a *app) crossStore() (*learning.Store, error) {
	if a.cross != nil {
		return a.cross, nil
	}
	cross, err := learning.NewStore(a.paths.LearningDB)
	if err != nil {
		return nil, fmt.Errorf("open cross-context store: %w", err)
	}
	a.cross = cross
	return cross, nil
}

func (a *app) close() {
	if a.cross != nil {
		_ = a.cross.Close()
	}
}

// router builds the classification pipeline with the persisted weight
// table and the configured external classifier, if any.
func (a *app) router() (*classify.Router, error) {
	table, err := a.weights.Load()
	if err != nil {
		return nil, err
	}

	var classifier classify.Classifier
	if a.cfg.Classifier.Command != "" {
		classifier = classify.NewCommandClassifier(a.cfg.Classifier.Command, a.cfg.Classifier.Timeout.Std())
	}

	return classify.NewRouter(a.cfg, &table, classifier, a.decisions), nil
}

func (a *app) tracker() *tracker.Tracker {
	return tracker.NewTracker(a.workflowState)
}

func (a *app) detector() *tracker.Detector {
	return tracker.NewDetector(a.cfg.Bottleneck, a.tracker(), a.bottlenecks)
}

func (a *app) scheduler() *tracker.Scheduler {
	return tracker.NewScheduler(a.cfg.Suggestions.Cooldown.Std(), a.tracker(), a.suggestions, a.suggestionFeedback)
}

func (a *app) gate() *approval.Gate {
	return approval.NewGate(a.cfg.Approval, a.approvalState, a.approvalAudit)
}

func (a *app) handoffGenerator() *handoff.Generator {
	return handoff.NewGenerator(a.paths.Templates)
}

// writeJSON prints v as indented JSON to w.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// errorEnvelope is the machine-readable failure shape emitted when a
// command runs with --json.
type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// failJSON emits the structured error envelope when jsonOut is set and
// always returns err for the non-zero exit.
func failJSON(cmd *cobra.Command, jsonOut bool, err error, details any) error {
	if jsonOut {
		cmd.SilenceErrors = true
		_ = writeJSON(cmd.OutOrStdout(), errorEnvelope{Error: err.Error(), Details: details})
	}
	return err
}
