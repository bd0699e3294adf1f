package classify

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/switchboard/internal/models"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classifier.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestNoopClassifierHasNoOpinion(t *testing.T) {
	result, err := NoopClassifier{}.Classify(context.Background(), "anything", models.IntentUnknown)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestCommandClassifierParsesResult(t *testing.T) {
	script := writeScript(t, `echo '{"intent":"research","confidence":80,"reasoning":"exploratory phrasing"}'`)
	c := NewCommandClassifier(script, 5*time.Second)

	result, err := c.Classify(context.Background(), "look into caching options", models.IntentUnknown)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.IntentResearch, result.Intent)
	assert.Equal(t, 80, result.Confidence)
	assert.Equal(t, "exploratory phrasing", result.Reasoning)
}

func TestCommandClassifierDegradesToNoOpinion(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"non-zero exit", `exit 1`},
		{"malformed output", `echo 'not json'`},
		{"empty intent", `echo '{"intent":"","confidence":80}'`},
		{"confidence too high", `echo '{"intent":"research","confidence":150}'`},
		{"negative confidence", `echo '{"intent":"research","confidence":-1}'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCommandClassifier(writeScript(t, tt.script), 5*time.Second)
			result, err := c.Classify(context.Background(), "message", models.IntentUnknown)
			assert.NoError(t, err)
			assert.Nil(t, result)
		})
	}
}

func TestCommandClassifierEmptyCommand(t *testing.T) {
	c := NewCommandClassifier("", time.Second)
	result, err := c.Classify(context.Background(), "message", models.IntentUnknown)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestCommandClassifierTimeout(t *testing.T) {
	script := writeScript(t, `sleep 2; echo '{"intent":"research","confidence":80}'`)
	c := NewCommandClassifier(script, 100*time.Millisecond)

	start := time.Now()
	result, err := c.Classify(context.Background(), "message", models.IntentUnknown)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCommandClassifierMissingExecutable(t *testing.T) {
	c := NewCommandClassifier(filepath.Join(t.TempDir(), "does-not-exist"), time.Second)
	result, err := c.Classify(context.Background(), "message", models.IntentUnknown)
	assert.NoError(t, err)
	assert.Nil(t, result)
}
