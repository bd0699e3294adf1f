package learning

import (
	"fmt"
	"sort"
	"time"

	"github.com/harrison/switchboard/internal/classify"
	"github.com/harrison/switchboard/internal/models"
	"github.com/harrison/switchboard/internal/store"
)

// Adjustment thresholds: success rates above raiseAbove nudge weights
// up, below lowerBelow nudge them down. In between leaves them alone.
const (
	raiseAbove = 0.8
	lowerBelow = 0.5

	multiplierStep = 0.1
	weightStep     = 2.0

	// minSamples is the fewest feedback records needed before an
	// intent or pattern is adjusted at all.
	minSamples = 3
)

// Adjuster recomputes pattern weights and intent multipliers from
// recent feedback, within their bounds.
type Adjuster struct {
	decisions     *store.DecisionLog
	feedback      *store.Journal[models.FeedbackRecord]
	effectiveness *store.EffectivenessLog
	weights       *store.Document[models.WeightTable]
	table         *classify.RuleTable

	now func() time.Time
}

// NewAdjuster wires the weight adjustment path.
func NewAdjuster(decisions *store.DecisionLog, feedback *store.Journal[models.FeedbackRecord], effectiveness *store.EffectivenessLog, weights *store.Document[models.WeightTable]) *Adjuster {
	return &Adjuster{
		decisions:     decisions,
		feedback:      feedback,
		effectiveness: effectiveness,
		weights:       weights,
		table:         classify.DefaultRuleTable(),
		now:           time.Now,
	}
}

// successStats accumulates outcomes for one intent or pattern.
type successStats struct {
	total     int
	successes int
}

func (s successStats) rate() float64 {
	if s.total == 0 {
		return 0
	}
	return float64(s.successes) / float64(s.total)
}

// AdjustWeights nudges intent multipliers and pattern weights up or
// down based on success rates over the lookback window, and returns
// every individual adjustment with its justification.
//
// Idempotent given no new feedback: the table records the newest
// feedback timestamp it has consumed, and a second run over an
// unchanged window returns zero adjustments.
func (a *Adjuster) AdjustWeights(lookback time.Duration) ([]models.WeightAdjustment, error) {
	cutoff := a.now().Add(-lookback)

	feedback, err := a.feedback.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read feedback: %w", err)
	}

	var window []models.FeedbackRecord
	var newest time.Time
	for _, rec := range feedback {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		window = append(window, rec)
		if rec.Timestamp.After(newest) {
			newest = rec.Timestamp
		}
	}

	current, err := a.weights.Load()
	if err != nil {
		return nil, err
	}
	if len(window) == 0 || !newest.After(current.LastFeedbackAt) {
		return []models.WeightAdjustment{}, nil
	}

	intentStats, patternStats, err := a.collectStats(window)
	if err != nil {
		return nil, err
	}

	var adjustments []models.WeightAdjustment
	_, err = a.weights.Update(func(table *models.WeightTable) error {
		table.EnsureMaps()
		adjustments = append(adjustments, a.adjustIntents(table, intentStats)...)
		adjustments = append(adjustments, a.adjustPatterns(table, patternStats)...)

		if err := a.refreshWorkflowSuccess(table); err != nil {
			return err
		}

		table.LastFeedbackAt = newest
		table.UpdatedAt = a.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return adjustments, nil
}

// collectStats joins the feedback window back to its decisions to
// attribute outcomes to intents and matched patterns.
func (a *Adjuster) collectStats(window []models.FeedbackRecord) (map[models.Intent]*successStats, map[string]*successStats, error) {
	intentStats := make(map[models.Intent]*successStats)
	patternStats := make(map[string]*successStats)

	for _, rec := range window {
		success := rec.Outcome == models.OutcomeSuccess

		stats, ok := intentStats[rec.Intent]
		if !ok {
			stats = &successStats{}
			intentStats[rec.Intent] = stats
		}
		stats.total++
		if success {
			stats.successes++
		}

		decision, err := a.decisions.FindByID(rec.DecisionID)
		if err != nil {
			// The decision may have been manually pruned; the intent
			// statistics above still stand.
			continue
		}
		for _, pattern := range decision.MatchedPatterns {
			stats, ok := patternStats[pattern]
			if !ok {
				stats = &successStats{}
				patternStats[pattern] = stats
			}
			stats.total++
			if success {
				stats.successes++
			}
		}
	}

	return intentStats, patternStats, nil
}

// adjustIntents nudges intent multipliers within [0.5, 1.5].
func (a *Adjuster) adjustIntents(table *models.WeightTable, stats map[models.Intent]*successStats) []models.WeightAdjustment {
	var adjustments []models.WeightAdjustment

	intents := make([]models.Intent, 0, len(stats))
	for intent := range stats {
		intents = append(intents, intent)
	}
	sort.Slice(intents, func(i, j int) bool { return intents[i] < intents[j] })

	for _, intent := range intents {
		s := stats[intent]
		if s.total < minSamples {
			continue
		}

		previous := table.IntentMultiplier(intent)
		current := previous
		var justification string

		switch {
		case s.rate() > raiseAbove:
			current = models.ClampIntentMultiplier(previous + multiplierStep)
			justification = fmt.Sprintf("intent %s succeeded in %.0f%% of %d recent decisions (above %.0f%%); raising multiplier",
				intent, s.rate()*100, s.total, raiseAbove*100)
		case s.rate() < lowerBelow:
			current = models.ClampIntentMultiplier(previous - multiplierStep)
			justification = fmt.Sprintf("intent %s succeeded in only %.0f%% of %d recent decisions (below %.0f%%); lowering multiplier",
				intent, s.rate()*100, s.total, lowerBelow*100)
		default:
			continue
		}

		if current == previous {
			continue // already at a bound
		}

		table.IntentMultipliers[intent] = current
		adjustments = append(adjustments, models.WeightAdjustment{
			Target:        string(intent),
			Kind:          "intent",
			Previous:      previous,
			Current:       current,
			SuccessRate:   s.rate(),
			SampleSize:    s.total,
			Justification: justification,
			Timestamp:     a.now(),
		})
	}

	return adjustments
}

// adjustPatterns nudges pattern weights within [5, 50].
func (a *Adjuster) adjustPatterns(table *models.WeightTable, stats map[string]*successStats) []models.WeightAdjustment {
	defaults := make(map[string]float64, len(a.table.Rules))
	for _, rule := range a.table.Rules {
		defaults[rule.Name] = rule.Weight
	}

	var adjustments []models.WeightAdjustment

	patterns := make([]string, 0, len(stats))
	for pattern := range stats {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	for _, pattern := range patterns {
		s := stats[pattern]
		if s.total < minSamples {
			continue
		}
		def, known := defaults[pattern]
		if !known {
			continue // boost or retired rule; boosts are not weight-tuned
		}

		previous := table.PatternWeight(pattern, def)
		current := previous
		var justification string

		switch {
		case s.rate() > raiseAbove:
			current = models.ClampPatternWeight(previous + weightStep)
			justification = fmt.Sprintf("pattern %s appeared in %d recent decisions with %.0f%% success (above %.0f%%); raising weight",
				pattern, s.total, s.rate()*100, raiseAbove*100)
		case s.rate() < lowerBelow:
			current = models.ClampPatternWeight(previous - weightStep)
			justification = fmt.Sprintf("pattern %s appeared in %d recent decisions with %.0f%% success (below %.0f%%); lowering weight",
				pattern, s.total, s.rate()*100, lowerBelow*100)
		default:
			continue
		}

		if current == previous {
			continue
		}

		table.PatternWeights[pattern] = current
		adjustments = append(adjustments, models.WeightAdjustment{
			Target:        pattern,
			Kind:          "pattern",
			Previous:      previous,
			Current:       current,
			SuccessRate:   s.rate(),
			SampleSize:    s.total,
			Justification: justification,
			Timestamp:     a.now(),
		})
	}

	return adjustments
}

// refreshWorkflowSuccess rewrites the derived workflow success-rate
// mapping from the all-time effectiveness table.
func (a *Adjuster) refreshWorkflowSuccess(table *models.WeightTable) error {
	entries, err := a.effectiveness.Load()
	if err != nil {
		return err
	}

	totals := make(map[models.Workflow]*successStats)
	for key, entry := range entries {
		stats, ok := totals[key.Workflow]
		if !ok {
			stats = &successStats{}
			totals[key.Workflow] = stats
		}
		stats.total += entry.Uses
		stats.successes += entry.Successes
	}

	table.WorkflowSuccess = make(map[models.Workflow]float64, len(totals))
	for workflow, stats := range totals {
		table.WorkflowSuccess[workflow] = stats.rate()
	}
	return nil
}
