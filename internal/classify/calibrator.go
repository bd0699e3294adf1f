package classify

import (
	"github.com/harrison/switchboard/internal/config"
	"github.com/harrison/switchboard/internal/models"
)

// Level is a named confidence band.
type Level string

const (
	LevelVeryLow    Level = "very_low"
	LevelLow        Level = "low"
	LevelBorderline Level = "borderline"
	LevelHigh       Level = "high"
	LevelVeryHigh   Level = "very_high"
)

// entityBonus is added to the confidence when any entity category
// matched; concrete technology signals make the intent more certain.
const entityBonus = 10

// Calibrator turns a pattern score plus entity presence into a
// calibrated 0-100 confidence and decides when to escalate.
// Independently testable given only a confidence number.
type Calibrator struct {
	cfg config.ConfidenceConfig
}

// NewCalibrator creates a calibrator with the given thresholds.
func NewCalibrator(cfg config.ConfidenceConfig) *Calibrator {
	return &Calibrator{cfg: cfg}
}

// Confidence combines the scorer output and entity presence.
func (c *Calibrator) Confidence(score int, entities models.Entities) int {
	confidence := score
	if entities.HasAny() {
		confidence += entityBonus
	}
	if confidence > 100 {
		confidence = 100
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// Level classifies a confidence value into its named band.
func (c *Calibrator) Level(confidence int) Level {
	switch {
	case confidence < c.cfg.VeryLow:
		return LevelVeryLow
	case confidence < c.cfg.Low:
		return LevelLow
	case confidence < c.cfg.Borderline:
		return LevelBorderline
	case confidence < c.cfg.High:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}

// NeedsClassifier reports whether the external classifier must be
// consulted for this confidence.
func (c *Calibrator) NeedsClassifier(confidence int) bool {
	return confidence < c.cfg.Fallback
}

// NeedsClarification reports whether the final action must be "ask for
// clarification", regardless of classifier outcome.
func (c *Calibrator) NeedsClarification(confidence int) bool {
	return confidence < c.cfg.VeryLow
}

// ClarifyThreshold exposes the clarification bound for the selector.
func (c *Calibrator) ClarifyThreshold() int {
	return c.cfg.VeryLow
}
