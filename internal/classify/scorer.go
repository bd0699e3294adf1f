package classify

import (
	"github.com/harrison/switchboard/internal/models"
)

// ScoreResult is the pattern scorer's output for one message.
type ScoreResult struct {
	Intent          models.Intent `json:"intent"`
	Score           int           `json:"score"`
	MatchedPatterns []string      `json:"matched_patterns"`

	// PerIntent holds every intent's capped score, for audit output.
	PerIntent map[models.Intent]int `json:"per_intent,omitempty"`
}

// Scorer evaluates the rule table against a message. The scorer is a
// fold over the table; behavior changes only through rules and weights.
type Scorer struct {
	table   *RuleTable
	weights *models.WeightTable
}

// NewScorer creates a scorer over the given rule table and weight
// table. A nil weight table means every rule uses its declared weight.
func NewScorer(table *RuleTable, weights *models.WeightTable) *Scorer {
	if weights == nil {
		weights = models.NewWeightTable()
	}
	return &Scorer{table: table, weights: weights}
}

// Score evaluates every rule and boost against the normalized message
// and returns the top-scoring intent, its capped score, and the names
// of the patterns that fired. Ties resolve to the first intent in
// declaration order. Deterministic and side-effect free.
func (s *Scorer) Score(normalized string) ScoreResult {
	raw := make(map[models.Intent]float64, len(s.table.IntentOrder))
	matchedBy := make(map[models.Intent][]string)

	for _, rule := range s.table.Rules {
		if !rule.Pattern.MatchString(normalized) {
			continue
		}
		weight := models.ClampPatternWeight(s.weights.PatternWeight(rule.Name, rule.Weight))
		raw[rule.Intent] += weight
		matchedBy[rule.Intent] = append(matchedBy[rule.Intent], rule.Name)
	}

	// Intent multipliers apply to the intent's own rule contributions,
	// not to phrase boosts.
	for intent := range raw {
		raw[intent] *= s.weights.IntentMultiplier(intent)
	}

	for _, boost := range s.table.Boosts {
		if !boost.Pattern.MatchString(normalized) {
			continue
		}
		raw[boost.Intent] += boost.Bonus
		matchedBy[boost.Intent] = append(matchedBy[boost.Intent], boost.Name)
	}

	perIntent := make(map[models.Intent]int, len(raw))
	best := ScoreResult{Intent: models.IntentUnknown, MatchedPatterns: []string{}}
	for _, intent := range s.table.IntentOrder {
		score := int(raw[intent])
		if score > MaxScore {
			score = MaxScore
		}
		if score > 0 {
			perIntent[intent] = score
		}
		// Strictly greater keeps the first intent on ties.
		if score > best.Score {
			best.Intent = intent
			best.Score = score
			best.MatchedPatterns = matchedBy[intent]
		}
	}
	best.PerIntent = perIntent

	if best.MatchedPatterns == nil {
		best.MatchedPatterns = []string{}
	}
	return best
}

// IsQuickIntent reports whether the intent is flagged as a
// deterministic quick task.
func (s *Scorer) IsQuickIntent(intent models.Intent) bool {
	return s.table.QuickIntents[intent]
}
