package classify

import (
	"regexp"
	"sort"

	"github.com/harrison/switchboard/internal/models"
)

// entityRule detects one category of technology signals.
type entityRule struct {
	category string
	patterns map[string]*regexp.Regexp // canonical name -> matcher
}

var entityRules = []entityRule{
	{
		category: "frameworks",
		patterns: map[string]*regexp.Regexp{
			"react":   regexp.MustCompile(`\breact(\.js)?\b`),
			"vue":     regexp.MustCompile(`\bvue(\.js)?\b`),
			"angular": regexp.MustCompile(`\bangular\b`),
			"svelte":  regexp.MustCompile(`\bsvelte(kit)?\b`),
			"nextjs":  regexp.MustCompile(`\bnext(\.js| js)\b|\bnextjs\b`),
		},
	},
	{
		category: "backends",
		patterns: map[string]*regexp.Regexp{
			"node":    regexp.MustCompile(`\bnode(\.js)?\b|\bexpress\b`),
			"django":  regexp.MustCompile(`\bdjango\b|\bpython backend\b`),
			"rails":   regexp.MustCompile(`\brails\b|\bruby on rails\b`),
			"go":      regexp.MustCompile(`\bgolang\b|\bgo (server|service|backend)\b`),
			"fastapi": regexp.MustCompile(`\bfastapi\b`),
		},
	},
	{
		category: "storage",
		patterns: map[string]*regexp.Regexp{
			"postgres": regexp.MustCompile(`\bpostgres(ql)?\b`),
			"mysql":    regexp.MustCompile(`\bmysql\b|\bmariadb\b`),
			"mongodb":  regexp.MustCompile(`\bmongo(db)?\b`),
			"sqlite":   regexp.MustCompile(`\bsqlite\b`),
			"redis":    regexp.MustCompile(`\bredis\b`),
		},
	},
	{
		category: "auth",
		patterns: map[string]*regexp.Regexp{
			"oauth":    regexp.MustCompile(`\boauth2?\b`),
			"jwt":      regexp.MustCompile(`\bjwt\b|\bjson web token\b`),
			"auth0":    regexp.MustCompile(`\bauth0\b`),
			"clerk":    regexp.MustCompile(`\bclerk\b`),
			"supabase": regexp.MustCompile(`\bsupabase\b`),
		},
	},
	{
		category: "ui",
		patterns: map[string]*regexp.Regexp{
			"tailwind":  regexp.MustCompile(`\btailwind(css)?\b`),
			"bootstrap": regexp.MustCompile(`\bbootstrap\b`),
			"mui":       regexp.MustCompile(`\bmui\b|\bmaterial[- ]ui\b`),
			"shadcn":    regexp.MustCompile(`\bshadcn\b`),
		},
	},
}

// complexityTiers are checked in order; the first tier with any match
// wins. Messages matching no tier classify as low.
var complexityTiers = []struct {
	tier    models.Complexity
	pattern *regexp.Regexp
}{
	{models.ComplexityHigh, regexp.MustCompile(
		`\b(auth(entication|orization)?|payment|billing|real[- ]?time|websocket|microservice|distributed|migration|encryption|security|scal(e|ing|ability))\b`)},
	{models.ComplexityMedium, regexp.MustCompile(
		`\b(api|database|integration|deploy(ment)?|testing|dashboard|search|upload|cache|caching)\b`)},
	{models.ComplexityLow, regexp.MustCompile(
		`\b(typo|text|color|colour|rename|comment|readme|label|padding|margin|wording)\b`)},
}

// Extract applies every entity rule to the normalized message and
// classifies its complexity tier. Pure function: same input, same
// output, no side effects.
func Extract(normalized string) models.Entities {
	entities := models.Entities{Complexity: classifyComplexity(normalized)}

	for _, rule := range entityRules {
		matches := extractCategory(normalized, rule)
		switch rule.category {
		case "frameworks":
			entities.Frameworks = matches
		case "backends":
			entities.Backends = matches
		case "storage":
			entities.Storage = matches
		case "auth":
			entities.Auth = matches
		case "ui":
			entities.UI = matches
		}
	}

	return entities
}

// extractCategory returns de-duplicated canonical names, sorted
// deterministically by iteration over a stable name list.
func extractCategory(normalized string, rule entityRule) []string {
	var matches []string
	seen := make(map[string]bool)

	// Map iteration order is random; collect then sort by name for a
	// deterministic result.
	for name, pattern := range rule.patterns {
		if seen[name] || !pattern.MatchString(normalized) {
			continue
		}
		seen[name] = true
		matches = append(matches, name)
	}
	sort.Strings(matches)
	return matches
}

// classifyComplexity checks the ordered keyword tiers and returns the
// first with any match, defaulting to low.
func classifyComplexity(normalized string) models.Complexity {
	for _, tier := range complexityTiers {
		if tier.pattern.MatchString(normalized) {
			return tier.tier
		}
	}
	return models.ComplexityLow
}
