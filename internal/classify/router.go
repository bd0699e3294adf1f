package classify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/switchboard/internal/config"
	"github.com/harrison/switchboard/internal/models"
	"github.com/harrison/switchboard/internal/store"
)

// cacheEntry is one short-lived classification result.
type cacheEntry struct {
	record models.DecisionRecord
	at     time.Time
}

// Router runs the full classification pipeline: score, extract,
// calibrate, optionally consult the external classifier, select a
// workflow, and append the decision to the log. All stores are
// injected; the router holds no global state.
type Router struct {
	cfg        *config.Config
	scorer     *Scorer
	calibrator *Calibrator
	classifier Classifier
	decisions  *store.DecisionLog

	mu    sync.Mutex
	cache map[string]cacheEntry

	now func() time.Time
}

// NewRouter wires the pipeline. classifier may be nil, in which case
// the no-op adapter is used.
func NewRouter(cfg *config.Config, weights *models.WeightTable, classifier Classifier, decisions *store.DecisionLog) *Router {
	if classifier == nil {
		classifier = NoopClassifier{}
	}
	return &Router{
		cfg:        cfg,
		scorer:     NewScorer(DefaultRuleTable(), weights),
		calibrator: NewCalibrator(cfg.Confidence),
		classifier: classifier,
		decisions:  decisions,
		cache:      make(map[string]cacheEntry),
		now:        time.Now,
	}
}

// ClassifyOptions controls a single routing invocation.
type ClassifyOptions struct {
	// DryRun skips the decision log write.
	DryRun bool
}

// Classify routes one request: message in, decision out.
func (r *Router) Classify(ctx context.Context, message string, opts ClassifyOptions) (models.DecisionRecord, error) {
	normalized := Normalize(message)

	if cached, ok := r.cached(normalized); ok {
		record := cached
		record.ID = uuid.NewString()
		record.Timestamp = r.now()
		record.RawMessage = message
		record.FromCache = true
		return r.finish(record, opts)
	}

	scored := r.scorer.Score(normalized)
	entities := Extract(normalized)
	confidence := r.calibrator.Confidence(scored.Score, entities)

	intent := scored.Intent
	heuristicConfidence := confidence
	classifierUsed := false
	if r.calibrator.NeedsClassifier(confidence) {
		// Bounded call; failures degrade to "no opinion".
		result, _ := r.classifier.Classify(ctx, message, intent)
		if result != nil {
			classifierUsed = true
			if result.Confidence > confidence {
				intent = result.Intent
				confidence = result.Confidence
			}
		}
	}

	selection := SelectWorkflow(normalized, intent, entities, confidence,
		r.calibrator.ClarifyThreshold(), r.scorer.table.QuickIntents)

	// The pattern engine, not the classifier, decides whether the
	// request is understood at all. A classifier answer may refine the
	// intent but never rescues a request the heuristics could not read.
	if r.calibrator.NeedsClarification(heuristicConfidence) && !selection.CompoundOverride {
		selection = Selection{
			Workflow:  models.WorkflowClarify,
			Rationale: fmt.Sprintf("heuristic confidence %d is below %d; asking for clarification regardless of classifier input",
				heuristicConfidence, r.calibrator.ClarifyThreshold()),
		}
	}

	record := models.DecisionRecord{
		ID:              uuid.NewString(),
		Timestamp:       r.now(),
		RawMessage:      message,
		Normalized:      normalized,
		Intent:          intent,
		Confidence:      confidence,
		MatchedPatterns: scored.MatchedPatterns,
		Entities:        entities,
		Workflow:        selection.Workflow,
		Rationale:       selection.Rationale,
		ClassifierUsed:  classifierUsed,
	}

	r.remember(normalized, record)
	return r.finish(record, opts)
}

// finish logs the record unless dry-run, then rotates if the active
// log outgrew its bound.
func (r *Router) finish(record models.DecisionRecord, opts ClassifyOptions) (models.DecisionRecord, error) {
	if opts.DryRun {
		return record, nil
	}

	if _, err := r.decisions.Log(record); err != nil {
		return record, err
	}

	count, err := r.decisions.Count()
	if err != nil {
		return record, fmt.Errorf("count decisions: %w", err)
	}
	if count > r.cfg.Log.MaxEntries {
		if _, err := r.decisions.Rotate(r.cfg.Log.MaxEntries); err != nil {
			return record, fmt.Errorf("rotate decisions: %w", err)
		}
	}

	return record, nil
}

// cached returns a live cache hit for the normalized message.
func (r *Router) cached(normalized string) (models.DecisionRecord, bool) {
	ttl := r.cfg.Router.CacheTTL.Std()
	if ttl <= 0 {
		return models.DecisionRecord{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.cache[normalized]
	if !ok || r.now().Sub(entry.at) > ttl {
		return models.DecisionRecord{}, false
	}
	return entry.record, true
}

// remember stores a fresh result in the short-lived cache.
func (r *Router) remember(normalized string, record models.DecisionRecord) {
	if r.cfg.Router.CacheTTL.Std() <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[normalized] = cacheEntry{record: record, at: r.now()}
}

// Levels exposes the calibrator for callers that need the named level
// of a decision's confidence.
func (r *Router) Levels() *Calibrator {
	return r.calibrator
}
