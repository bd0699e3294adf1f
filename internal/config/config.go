package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "5m" or "24h"
// parse via time.ParseDuration. Plain integers are nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ConfidenceConfig holds the calibrator thresholds. All values are on
// the 0-100 confidence scale.
type ConfidenceConfig struct {
	// VeryLow is the threshold below which the router always asks for
	// clarification, regardless of classifier outcome.
	VeryLow int `yaml:"very_low"`

	// Low bounds the "low" confidence level.
	Low int `yaml:"low"`

	// Borderline bounds the "borderline" confidence level.
	Borderline int `yaml:"borderline"`

	// High bounds the "high" confidence level; at or above is "very high".
	High int `yaml:"high"`

	// Fallback is the threshold below which the external classifier
	// is consulted.
	Fallback int `yaml:"fallback"`
}

// ClassifierConfig configures the optional external intent classifier.
type ClassifierConfig struct {
	// Command is the executable invoked for low-confidence messages.
	// Empty disables the external classifier entirely.
	Command string `yaml:"command"`

	// Timeout bounds a single classifier invocation.
	Timeout Duration `yaml:"timeout"`
}

// RouterConfig configures the classification pipeline.
type RouterConfig struct {
	// CacheTTL is how long an identical message is served from cache.
	CacheTTL Duration `yaml:"cache_ttl"`
}

// LogConfig configures the decision log.
type LogConfig struct {
	// MaxEntries is the rotation bound for the active decision log.
	MaxEntries int `yaml:"max_entries"`
}

// SuggestionsConfig configures the proactive suggestion scheduler.
type SuggestionsConfig struct {
	// Cooldown is the minimum interval between emitted suggestions.
	Cooldown Duration `yaml:"cooldown"`
}

// BottleneckConfig holds the escalating stall thresholds.
type BottleneckConfig struct {
	Slowing Duration `yaml:"slowing"`
	Stalled Duration `yaml:"stalled"`
	Blocked Duration `yaml:"blocked"`
}

// ApprovalConfig is the static per-deployment approval policy.
type ApprovalConfig struct {
	// Policies maps action category to "auto", "human" or "none".
	// Categories not listed default to "human" (fail-safe).
	Policies map[string]string `yaml:"policies"`

	// MaxIterations bounds autonomous actions before every subsequent
	// action requires approval until reset.
	MaxIterations int `yaml:"max_iterations"`
}

// Config represents switchboard configuration options.
type Config struct {
	Confidence  ConfidenceConfig  `yaml:"confidence"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Router      RouterConfig      `yaml:"router"`
	Log         LogConfig         `yaml:"log"`
	Suggestions SuggestionsConfig `yaml:"suggestions"`
	Bottleneck  BottleneckConfig  `yaml:"bottleneck"`
	Approval    ApprovalConfig    `yaml:"approval"`
}

// DefaultConfig returns a Config with documented default values.
func DefaultConfig() *Config {
	return &Config{
		Confidence: ConfidenceConfig{
			VeryLow:    30,
			Low:        45,
			Borderline: 55,
			High:       75,
			Fallback:   50,
		},
		Classifier: ClassifierConfig{
			Command: "",
			Timeout: Duration(15 * time.Second),
		},
		Router: RouterConfig{
			CacheTTL: Duration(60 * time.Second),
		},
		Log: LogConfig{
			MaxEntries: 1000,
		},
		Suggestions: SuggestionsConfig{
			Cooldown: Duration(5 * time.Minute),
		},
		Bottleneck: BottleneckConfig{
			Slowing: Duration(30 * time.Minute),
			Stalled: Duration(2 * time.Hour),
			Blocked: Duration(24 * time.Hour),
		},
		Approval: ApprovalConfig{
			Policies: map[string]string{
				"read_file":       "none",
				"run_tests":       "auto",
				"modify_code":     "auto",
				"install_package": "human",
				"deploy":          "human",
				"delete_data":     "human",
			},
			MaxIterations: 10,
		},
	}
}

// Load reads configuration from path, merging over defaults.
// A missing file returns defaults without error; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Unmarshal over the populated defaults so absent fields keep their
	// default values and present fields override per field.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from config.yaml in the given home
// directory, falling back to defaults when absent.
func LoadFromDir(home string) (*Config, error) {
	return Load(filepath.Join(home, "config.yaml"))
}

// Validate checks configuration values and returns an explicit error
// for the first invalid one.
func (c *Config) Validate() error {
	t := c.Confidence
	if t.VeryLow < 0 || t.High > 100 {
		return fmt.Errorf("confidence thresholds must be within [0,100], got very_low=%d high=%d", t.VeryLow, t.High)
	}
	if !(t.VeryLow < t.Low && t.Low < t.Borderline && t.Borderline < t.High) {
		return fmt.Errorf("confidence thresholds must be strictly increasing: very_low=%d low=%d borderline=%d high=%d",
			t.VeryLow, t.Low, t.Borderline, t.High)
	}
	if t.Fallback < 0 || t.Fallback > 100 {
		return fmt.Errorf("confidence.fallback must be within [0,100], got %d", t.Fallback)
	}

	if c.Classifier.Timeout <= 0 {
		return fmt.Errorf("classifier.timeout must be > 0, got %v", c.Classifier.Timeout.Std())
	}
	if c.Router.CacheTTL < 0 {
		return fmt.Errorf("router.cache_ttl must be >= 0, got %v", c.Router.CacheTTL.Std())
	}
	if c.Log.MaxEntries <= 0 {
		return fmt.Errorf("log.max_entries must be > 0, got %d", c.Log.MaxEntries)
	}
	if c.Suggestions.Cooldown < 0 {
		return fmt.Errorf("suggestions.cooldown must be >= 0, got %v", c.Suggestions.Cooldown.Std())
	}

	b := c.Bottleneck
	if !(b.Slowing > 0 && b.Slowing < b.Stalled && b.Stalled < b.Blocked) {
		return fmt.Errorf("bottleneck thresholds must be increasing: slowing=%v stalled=%v blocked=%v",
			b.Slowing.Std(), b.Stalled.Std(), b.Blocked.Std())
	}

	if c.Approval.MaxIterations <= 0 {
		return fmt.Errorf("approval.max_iterations must be > 0, got %d", c.Approval.MaxIterations)
	}
	for category, mode := range c.Approval.Policies {
		switch mode {
		case "auto", "human", "none":
		default:
			return fmt.Errorf("approval.policies[%s] must be one of: auto, human, none; got %q", category, mode)
		}
	}

	return nil
}
