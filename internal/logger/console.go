// Package logger provides the leveled console logger used for
// switchboard diagnostics.
//
// Implementations are thread-safe. Output is prefixed with
// [HH:MM:SS] timestamps; warn and error lines are colorized when the
// destination is a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

const (
	levelDebug int = 0
	levelInfo  int = 1
	levelWarn  int = 2
	levelError int = 3
)

// ConsoleLogger logs diagnostics to a writer with timestamps and
// thread safety. Messages below the configured level are dropped.
type ConsoleLogger struct {
	writer   io.Writer
	logLevel int
	mutex    sync.Mutex
	colored  bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to w.
// If w is nil, messages are silently discarded. Valid levels are
// debug, info, warn and error (case-insensitive); empty or invalid
// levels default to info.
func NewConsoleLogger(w io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:   w,
		logLevel: parseLevel(logLevel),
		colored:  isTerminal(w),
	}
}

func parseLevel(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// isTerminal reports whether w is a standard stream with color
// support. color.NoColor already folds in TTY and NO_COLOR detection.
func isTerminal(w io.Writer) bool {
	if w == os.Stdout || w == os.Stderr {
		return !color.NoColor
	}
	return false
}

// Debugf logs a debug-level message.
func (cl *ConsoleLogger) Debugf(format string, args ...interface{}) {
	cl.logf(levelDebug, "DEBUG", nil, format, args...)
}

// Infof logs an info-level message.
func (cl *ConsoleLogger) Infof(format string, args ...interface{}) {
	cl.logf(levelInfo, "INFO", nil, format, args...)
}

// Warnf logs a warn-level message.
func (cl *ConsoleLogger) Warnf(format string, args ...interface{}) {
	cl.logf(levelWarn, "WARN", color.New(color.FgYellow), format, args...)
}

// Errorf logs an error-level message.
func (cl *ConsoleLogger) Errorf(format string, args ...interface{}) {
	cl.logf(levelError, "ERROR", color.New(color.FgRed), format, args...)
}

func (cl *ConsoleLogger) logf(level int, tag string, c *color.Color, format string, args ...interface{}) {
	if cl.writer == nil || level < cl.logLevel {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	prefix := fmt.Sprintf("[%s] [%s]", time.Now().Format("15:04:05"), tag)
	if cl.colored && c != nil {
		prefix = c.Sprint(prefix)
	}
	fmt.Fprintf(cl.writer, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}
