package tracker

import (
	"regexp"
	"sort"
	"time"

	"github.com/harrison/switchboard/internal/config"
	"github.com/harrison/switchboard/internal/models"
	"github.com/harrison/switchboard/internal/store"
)

// maxSuggestions caps the merged suggestion list in a verdict.
const maxSuggestions = 5

// StallPattern names a recognizable stall shape in activity text. The
// severity ranks it against other matched patterns when merging
// suggestions.
type StallPattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Severity    int
	Suggestions []string
}

// stallPatterns is the built-in library, highest severity first after
// sorting in Check.
var stallPatterns = []StallPattern{
	{
		Name:     "technical_blocker",
		Pattern:  regexp.MustCompile(`\b(can'?t (get|make|figure)|keeps? (failing|crashing|erroring)|same error|tried everything)\b`),
		Severity: 4,
		Suggestions: []string{
			"Reduce the failure to a minimal reproduction before trying more fixes",
			"Search the error message verbatim against the dependency's issue tracker",
			"Roll back to the last known-good state and reapply changes one at a time",
		},
	},
	{
		Name:     "external_dependency",
		Pattern:  regexp.MustCompile(`\b(waiting (on|for) (the )?(api|vendor|third.?party|upstream)|rate limit(ed)?|service (is )?down)\b`),
		Severity: 4,
		Suggestions: []string{
			"Stub the external service and continue against the stub",
			"File or link the upstream issue so the wait is tracked",
			"Switch to a task that does not depend on the blocked service",
		},
	},
	{
		Name:     "waiting_on_verification",
		Pattern:  regexp.MustCompile(`\b(waiting (on|for) (review|approval|sign.?off|ci)|pending (review|approval))\b`),
		Severity: 3,
		Suggestions: []string{
			"Ping the reviewer with a short summary of what changed",
			"Start the next independent task while the review is pending",
		},
	},
	{
		Name:     "unclear_requirements",
		Pattern:  regexp.MustCompile(`\b(not sure (what|how|if)|unclear|ambiguous|what (does|do) .+ mean|requirements? (are|is) (vague|missing))\b`),
		Severity: 3,
		Suggestions: []string{
			"Write down the two or three interpretations and ask which one is intended",
			"Prototype the smallest interpretation and confirm direction early",
		},
	},
	{
		Name:     "decision_paralysis",
		Pattern:  regexp.MustCompile(`\b(can'?t decide|torn between|going back and forth|keep second.?guessing)\b`),
		Severity: 2,
		Suggestions: []string{
			"Timebox the decision: pick the reversible option and move on",
			"List the one requirement that actually differs between the options",
		},
	},
	{
		Name:     "scope_creep",
		Pattern:  regexp.MustCompile(`\b(while (i'?m|we'?re) at it|one more thing|also (need|want) to|keeps? growing)\b`),
		Severity: 2,
		Suggestions: []string{
			"Park the extra work in a follow-up note and finish the original task",
			"Re-read the original goal and cut anything it does not require",
		},
	},
}

// Activity is the observed context fed to a bottleneck check.
type Activity struct {
	Text         string    `json:"text"`
	LastProgress time.Time `json:"last_progress,omitempty"`
}

// Verdict is the outcome of one bottleneck check.
type Verdict struct {
	Status          models.BottleneckStatus `json:"status"`
	Phase           models.Phase            `json:"phase"`
	SinceProgress   time.Duration           `json:"since_progress"`
	MatchedPatterns []string                `json:"matched_patterns,omitempty"`
	Suggestions     []string                `json:"suggestions,omitempty"`
}

// Detector classifies elapsed time since progress against the
// configured thresholds and scans activity for stall patterns.
type Detector struct {
	cfg     config.BottleneckConfig
	tracker *Tracker
	log     *store.Journal[models.BottleneckRecord]
	now     func() time.Time
}

// NewDetector builds a detector over the tracker and bottleneck journal.
func NewDetector(cfg config.BottleneckConfig, tracker *Tracker, log *store.Journal[models.BottleneckRecord]) *Detector {
	return &Detector{cfg: cfg, tracker: tracker, log: log, now: time.Now}
}

// Check evaluates the current workflow against the activity context.
// Verdicts other than a clean "progressing" are appended to the
// bottleneck journal.
func (d *Detector) Check(activity Activity) (Verdict, error) {
	state, err := d.tracker.Current()
	if err != nil {
		return Verdict{}, err
	}

	anchor := state.LastProgress
	if !activity.LastProgress.IsZero() && activity.LastProgress.After(anchor) {
		anchor = activity.LastProgress
	}

	elapsed := d.now().Sub(anchor)
	verdict := Verdict{
		Status:        d.classify(elapsed, state.Phase),
		Phase:         state.Phase,
		SinceProgress: elapsed,
	}

	matched := matchStallPatterns(activity.Text)
	for _, p := range matched {
		verdict.MatchedPatterns = append(verdict.MatchedPatterns, p.Name)
	}
	verdict.Suggestions = mergeSuggestions(matched)

	if verdict.Status != models.StatusProgressing || len(verdict.MatchedPatterns) > 0 {
		record := models.BottleneckRecord{
			Timestamp:       d.now(),
			Status:          verdict.Status,
			Phase:           verdict.Phase,
			MatchedPatterns: verdict.MatchedPatterns,
			SinceProgress:   verdict.SinceProgress,
			Suggestions:     verdict.Suggestions,
		}
		if err := d.log.Append(record); err != nil {
			return Verdict{}, err
		}
	}

	return verdict, nil
}

// classify maps elapsed time to a status. Idle and completed phases
// never stall.
func (d *Detector) classify(elapsed time.Duration, phase models.Phase) models.BottleneckStatus {
	if phase == models.PhaseIdle || phase == models.PhaseCompleted {
		return models.StatusProgressing
	}
	switch {
	case elapsed >= d.cfg.Blocked.Std():
		return models.StatusBlocked
	case elapsed >= d.cfg.Stalled.Std():
		return models.StatusStalled
	case elapsed >= d.cfg.Slowing.Std():
		return models.StatusSlowing
	default:
		return models.StatusProgressing
	}
}

// Recent returns the last n bottleneck records.
func (d *Detector) Recent(n int) ([]models.BottleneckRecord, error) {
	return d.log.Tail(n)
}

func matchStallPatterns(text string) []StallPattern {
	if text == "" {
		return nil
	}
	var matched []StallPattern
	for _, p := range stallPatterns {
		if p.Pattern.MatchString(text) {
			matched = append(matched, p)
		}
	}
	// Highest severity first; ties keep library order via stable sort.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Severity > matched[j].Severity
	})
	return matched
}

// mergeSuggestions flattens matched-pattern suggestions in severity
// order, deduplicated, capped at maxSuggestions.
func mergeSuggestions(matched []StallPattern) []string {
	if len(matched) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var merged []string
	for _, p := range matched {
		for _, s := range p.Suggestions {
			if seen[s] {
				continue
			}
			seen[s] = true
			merged = append(merged, s)
			if len(merged) == maxSuggestions {
				return merged
			}
		}
	}
	return merged
}
