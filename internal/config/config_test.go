package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Confidence.VeryLow != 30 {
		t.Errorf("Confidence.VeryLow = %d, want 30", cfg.Confidence.VeryLow)
	}
	if cfg.Confidence.Fallback != 50 {
		t.Errorf("Confidence.Fallback = %d, want 50", cfg.Confidence.Fallback)
	}
	if cfg.Classifier.Timeout.Std() != 15*time.Second {
		t.Errorf("Classifier.Timeout = %v, want 15s", cfg.Classifier.Timeout.Std())
	}
	if cfg.Router.CacheTTL.Std() != 60*time.Second {
		t.Errorf("Router.CacheTTL = %v, want 60s", cfg.Router.CacheTTL.Std())
	}
	if cfg.Log.MaxEntries != 1000 {
		t.Errorf("Log.MaxEntries = %d, want 1000", cfg.Log.MaxEntries)
	}
	if cfg.Suggestions.Cooldown.Std() != 5*time.Minute {
		t.Errorf("Suggestions.Cooldown = %v, want 5m", cfg.Suggestions.Cooldown.Std())
	}
	if cfg.Bottleneck.Blocked.Std() != 24*time.Hour {
		t.Errorf("Bottleneck.Blocked = %v, want 24h", cfg.Bottleneck.Blocked.Std())
	}
	if cfg.Approval.Policies["deploy"] != "human" {
		t.Errorf("Approval.Policies[deploy] = %q, want human", cfg.Approval.Policies["deploy"])
	}
	if cfg.Approval.MaxIterations != 10 {
		t.Errorf("Approval.MaxIterations = %d, want 10", cfg.Approval.MaxIterations)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

// TestLoadMergesOverDefaults verifies present fields override and
// absent fields keep their defaults
func TestLoadMergesOverDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `confidence:
  fallback: 60
suggestions:
  cooldown: 10m
bottleneck:
  slowing: 1h
  stalled: 3h
  blocked: 48h
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Confidence.Fallback != 60 {
		t.Errorf("Confidence.Fallback = %d, want 60", cfg.Confidence.Fallback)
	}
	if cfg.Confidence.VeryLow != 30 {
		t.Errorf("Confidence.VeryLow = %d, want default 30", cfg.Confidence.VeryLow)
	}
	if cfg.Suggestions.Cooldown.Std() != 10*time.Minute {
		t.Errorf("Suggestions.Cooldown = %v, want 10m", cfg.Suggestions.Cooldown.Std())
	}
	if cfg.Bottleneck.Slowing.Std() != time.Hour {
		t.Errorf("Bottleneck.Slowing = %v, want 1h", cfg.Bottleneck.Slowing.Std())
	}
	if cfg.Log.MaxEntries != 1000 {
		t.Errorf("Log.MaxEntries = %d, want default 1000", cfg.Log.MaxEntries)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Confidence.Fallback != 50 {
		t.Errorf("Confidence.Fallback = %d, want default 50", cfg.Confidence.Fallback)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("confidence: [not a map"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Load() expected error for malformed YAML")
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non-increasing confidence", func(c *Config) { c.Confidence.Low = 20 }},
		{"fallback out of range", func(c *Config) { c.Confidence.Fallback = 150 }},
		{"zero classifier timeout", func(c *Config) { c.Classifier.Timeout = 0 }},
		{"zero max entries", func(c *Config) { c.Log.MaxEntries = 0 }},
		{"non-increasing bottleneck", func(c *Config) { c.Bottleneck.Stalled = c.Bottleneck.Blocked * 2 }},
		{"invalid approval mode", func(c *Config) { c.Approval.Policies["deploy"] = "maybe" }},
		{"zero max iterations", func(c *Config) { c.Approval.MaxIterations = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() expected error for %s", tc.name)
			}
		})
	}
}

func TestDurationUnmarshalsStringsAndInts(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `classifier:
  timeout: 30s
router:
  cache_ttl: 120000000000
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Classifier.Timeout.Std() != 30*time.Second {
		t.Errorf("Classifier.Timeout = %v, want 30s", cfg.Classifier.Timeout.Std())
	}
	if cfg.Router.CacheTTL.Std() != 2*time.Minute {
		t.Errorf("Router.CacheTTL = %v, want 2m", cfg.Router.CacheTTL.Std())
	}
}

func TestGetHomeEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	home := filepath.Join(tmpDir, "custom-home")
	t.Setenv("SWITCHBOARD_HOME", home)

	got, err := GetHome()
	if err != nil {
		t.Fatalf("GetHome() error = %v", err)
	}
	if got != home {
		t.Errorf("GetHome() = %q, want %q", got, home)
	}
	if _, err := os.Stat(home); err != nil {
		t.Errorf("GetHome() did not create the directory: %v", err)
	}
}

func TestPathsFor(t *testing.T) {
	paths := PathsFor("/srv/sb")

	if paths.Decisions != filepath.Join("/srv/sb", "decisions.jsonl") {
		t.Errorf("Decisions = %q", paths.Decisions)
	}
	if paths.LearningDB != filepath.Join("/srv/sb", "learning.db") {
		t.Errorf("LearningDB = %q", paths.LearningDB)
	}
	if paths.Templates != filepath.Join("/srv/sb", "templates") {
		t.Errorf("Templates = %q", paths.Templates)
	}
}
