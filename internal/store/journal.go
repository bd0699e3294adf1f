// Package store implements the persisted state layout: append-only
// line-delimited record journals plus the small mutable documents that
// are rewritten wholesale under a file lock.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// maxLineSize bounds a single journal line on read. Records are small;
// this leaves generous headroom for free-text fields.
const maxLineSize = 1024 * 1024

// Warnf is called when a malformed journal line is skipped on read.
// Defaults to stderr; tests may silence it.
var Warnf = func(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// Journal is an append-only line-delimited JSON record store.
// Malformed lines are skipped on read, never fatal. Appends are single
// O_APPEND writes, atomic at the line level for records of this size.
type Journal[T any] struct {
	path string
}

// NewJournal creates a journal backed by the given file path.
// The file is created lazily on first append.
func NewJournal[T any](path string) *Journal[T] {
	return &Journal[T]{path: path}
}

// Path returns the backing file path.
func (j *Journal[T]) Path() string {
	return j.path
}

// Append marshals rec and appends it as one line.
func (j *Journal[T]) Append(rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return appendLine(j.path, data)
}

// ReadAll returns every valid record in append order.
// A missing file yields an empty slice without error.
func (j *Journal[T]) ReadAll() ([]T, error) {
	return readLines[T](j.path)
}

// Tail returns the most recent n valid records in append order.
func (j *Journal[T]) Tail(n int) ([]T, error) {
	records, err := j.ReadAll()
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

// Count returns the number of valid records.
func (j *Journal[T]) Count() (int, error) {
	records, err := j.ReadAll()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// encodeLine marshals rec with its trailing newline.
func encodeLine[T any](rec T) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// appendLine appends data plus a trailing newline in a single write.
func appendLine(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	line := append(data, '\n')
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append journal line: %w", err)
	}
	return nil
}

// readLines reads every valid record from path, skipping malformed lines.
func readLines[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var records []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			// Corrupt line, skip and keep the rest of the journal usable.
			Warnf("skipping malformed line %d in %s: %v", lineNum, filepath.Base(path), err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}

	if records == nil {
		records = []T{}
	}
	return records, nil
}
