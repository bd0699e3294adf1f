// Package classify implements the heuristic classification pipeline:
// pattern scoring, entity extraction, confidence calibration, the
// optional external classifier fallback, and workflow selection.
package classify

import (
	"regexp"
	"strings"

	"github.com/harrison/switchboard/internal/models"
)

// Rule is one weighted pattern contributing to an intent's score.
// Rules are data, not code: adding or retuning a rule never touches
// the scorer.
type Rule struct {
	Name    string
	Intent  models.Intent
	Pattern *regexp.Regexp
	Weight  float64
}

// Boost adds a fixed bonus to a specific intent independent of that
// intent's own rule list.
type Boost struct {
	Name    string
	Intent  models.Intent
	Pattern *regexp.Regexp
	Bonus   float64
}

// RuleTable is the full scoring rule set. IntentOrder fixes the
// deterministic tie-break: the first intent in declaration order to
// reach the top score wins.
type RuleTable struct {
	IntentOrder []models.Intent
	Rules       []Rule
	Boosts      []Boost

	// QuickIntents are routed to the quick workflow unconditionally,
	// bypassing complexity.
	QuickIntents map[models.Intent]bool
}

// MaxScore caps any intent's pattern score.
const MaxScore = 100

// DefaultRuleTable returns the built-in rule set.
func DefaultRuleTable() *RuleTable {
	return &RuleTable{
		IntentOrder: []models.Intent{
			models.IntentCreateProject,
			models.IntentDebugFix,
			models.IntentQuickTask,
			models.IntentDiscussDecision,
			models.IntentResearch,
			models.IntentRefactor,
		},
		Rules: []Rule{
			{
				Name:    "create-verb",
				Intent:  models.IntentCreateProject,
				Pattern: regexp.MustCompile(`\b(build|create|make|scaffold|set up|setup|start)\b`),
				Weight:  35,
			},
			{
				Name:    "create-artifact",
				Intent:  models.IntentCreateProject,
				Pattern: regexp.MustCompile(`\b(app|application|project|website|site|api|service|system|tool)\b`),
				Weight:  30,
			},
			{
				Name:    "create-greenfield",
				Intent:  models.IntentCreateProject,
				Pattern: regexp.MustCompile(`\b(new|from scratch|greenfield)\b`),
				Weight:  20,
			},
			{
				Name:    "fix-verb",
				Intent:  models.IntentDebugFix,
				Pattern: regexp.MustCompile(`\b(fix|debug|resolve|repair|patch)\b`),
				Weight:  35,
			},
			{
				Name:    "fix-symptom",
				Intent:  models.IntentDebugFix,
				Pattern: regexp.MustCompile(`\b(bug|broken|error|crash|crashes|failing|fails|exception|not working)\b`),
				Weight:  35,
			},
			{
				Name:    "fix-regression",
				Intent:  models.IntentDebugFix,
				Pattern: regexp.MustCompile(`\b(regression|used to work|stopped working)\b`),
				Weight:  20,
			},
			{
				Name:    "quick-verb",
				Intent:  models.IntentQuickTask,
				Pattern: regexp.MustCompile(`\b(rename|tweak|bump|adjust)\b`),
				Weight:  30,
			},
			{
				Name:    "quick-scope",
				Intent:  models.IntentQuickTask,
				Pattern: regexp.MustCompile(`\b(typo|quick|small|minor|tiny|trivial|one[- ]liner)\b`),
				Weight:  40,
			},
			{
				Name:    "discuss-question",
				Intent:  models.IntentDiscussDecision,
				Pattern: regexp.MustCompile(`\b(should (i|we)|what do you think|thoughts on|opinion|recommend)\b`),
				Weight:  40,
			},
			{
				Name:    "discuss-compare",
				Intent:  models.IntentDiscussDecision,
				Pattern: regexp.MustCompile(`\b(compare|versus|vs\.?|pros and cons|trade-?offs?|better)\b`),
				Weight:  30,
			},
			{
				Name:    "discuss-choice",
				Intent:  models.IntentDiscussDecision,
				Pattern: regexp.MustCompile(`\b(choose|decide|decision|option|alternative)\b`),
				Weight:  30,
			},
			{
				Name:    "research-verb",
				Intent:  models.IntentResearch,
				Pattern: regexp.MustCompile(`\b(research|investigate|explore|look into|find out|learn about)\b`),
				Weight:  40,
			},
			{
				Name:    "research-question",
				Intent:  models.IntentResearch,
				Pattern: regexp.MustCompile(`\b(how does|what is|why does|difference between)\b`),
				Weight:  30,
			},
			{
				Name:    "refactor-verb",
				Intent:  models.IntentRefactor,
				Pattern: regexp.MustCompile(`\b(refactor|restructure|clean ?up|reorganize|simplify|extract)\b`),
				Weight:  40,
			},
			{
				Name:    "refactor-quality",
				Intent:  models.IntentRefactor,
				Pattern: regexp.MustCompile(`\b(tech(nical)? debt|code smell|maintainable|maintainability)\b`),
				Weight:  25,
			},
		},
		Boosts: []Boost{
			{
				Name:    "boost-architecture",
				Intent:  models.IntentDiscussDecision,
				Pattern: regexp.MustCompile(`\b(architecture|schema|design|stack)\b`),
				Bonus:   15,
			},
			{
				Name:    "boost-comparison",
				Intent:  models.IntentDiscussDecision,
				Pattern: regexp.MustCompile(`\b(use|pick|go with)\b.+\bor\b`),
				Bonus:   30,
			},
			{
				Name:    "boost-quick-docs",
				Intent:  models.IntentQuickTask,
				Pattern: regexp.MustCompile(`\b(typo|readme|comment|whitespace|formatting)\b`),
				Bonus:   20,
			},
		},
		QuickIntents: map[models.Intent]bool{
			models.IntentQuickTask: true,
		},
	}
}

// compoundPattern matches "do X and also do Y" style requests that need
// both planning and execution phases.
var compoundPattern = regexp.MustCompile(
	`\b(and (then|also)|as well as|after that|followed by)\b` +
		`|\b(build|create|make|fix|add|implement|write)\b.+\band\b.+\b(build|create|make|fix|add|implement|write|deploy|test|document)\b`)

// IsCompound reports whether the normalized message is a compound
// request.
func IsCompound(normalized string) bool {
	return compoundPattern.MatchString(normalized)
}

// Normalize lowercases the message and collapses whitespace. All
// pattern matching runs over the normalized form.
func Normalize(message string) string {
	lowered := strings.ToLower(strings.TrimSpace(message))
	return strings.Join(strings.Fields(lowered), " ")
}
