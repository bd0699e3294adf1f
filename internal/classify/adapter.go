package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"os/exec"

	"github.com/harrison/switchboard/internal/models"
)

// ClassifierResult is the external classifier's opinion on a message.
type ClassifierResult struct {
	Intent     models.Intent `json:"intent"`
	Confidence int           `json:"confidence"`
	Reasoning  string        `json:"reasoning"`
}

// Classifier is the narrow contract to an optional external intent
// classifier. Implementations return (nil, nil) when they have no
// opinion; failures never propagate past this boundary.
type Classifier interface {
	Classify(ctx context.Context, message string, bestGuess models.Intent) (*ClassifierResult, error)
}

// NoopClassifier always reports "unavailable". It is the default when
// no classifier command is configured.
type NoopClassifier struct{}

// Classify implements Classifier.
func (NoopClassifier) Classify(ctx context.Context, message string, bestGuess models.Intent) (*ClassifierResult, error) {
	return nil, nil
}

// classifierRequest is the JSON document written to the command's stdin.
type classifierRequest struct {
	Message   string        `json:"message"`
	BestGuess models.Intent `json:"best_guess"`
}

// CommandClassifier shells out to a configured executable, writing the
// request JSON to stdin and reading a ClassifierResult JSON from
// stdout. The invocation is bounded by a deadline.
type CommandClassifier struct {
	Command string
	Timeout time.Duration
}

// NewCommandClassifier creates a command-backed classifier.
func NewCommandClassifier(command string, timeout time.Duration) *CommandClassifier {
	return &CommandClassifier{Command: command, Timeout: timeout}
}

// Classify implements Classifier. Any failure (spawn error, timeout,
// non-zero exit, malformed output, out-of-range confidence) degrades
// to (nil, nil): the heuristic result stands.
func (c *CommandClassifier) Classify(ctx context.Context, message string, bestGuess models.Intent) (*ClassifierResult, error) {
	if c.Command == "" {
		return nil, nil
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	request, err := json.Marshal(classifierRequest{Message: message, BestGuess: bestGuess})
	if err != nil {
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, c.Command)
	cmd.Stdin = bytes.NewReader(request)

	output, err := cmd.Output()
	if err != nil {
		return nil, nil
	}

	var result ClassifierResult
	if err := json.Unmarshal(bytes.TrimSpace(output), &result); err != nil {
		return nil, nil
	}
	if result.Intent == "" || result.Confidence < 0 || result.Confidence > 100 {
		return nil, nil
	}

	return &result, nil
}
