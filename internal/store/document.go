package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/harrison/switchboard/internal/filelock"
)

// Document is a small mutable JSON file rewritten wholesale on each
// mutation. Update runs under an exclusive flock so two invocations
// cannot interleave a read-modify-write.
type Document[T any] struct {
	path string
	init func() T
}

// NewDocument creates a document store; init produces the value used
// when the file does not exist yet.
func NewDocument[T any](path string, init func() T) *Document[T] {
	return &Document[T]{path: path, init: init}
}

// Path returns the backing file path.
func (d *Document[T]) Path() string {
	return d.path
}

// Load reads the current document, or the initial value when absent.
func (d *Document[T]) Load() (T, error) {
	var zero T
	data, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return d.init(), nil
		}
		return zero, fmt.Errorf("read document: %w", err)
	}

	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		return zero, fmt.Errorf("unmarshal document %s: %w", d.path, err)
	}
	return doc, nil
}

// Save rewrites the document atomically.
func (d *Document[T]) Save(doc T) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := filelock.AtomicWrite(d.path, data); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Update applies fn to the current document and saves the result,
// holding the document's flock for the whole read-modify-write.
func (d *Document[T]) Update(fn func(*T) error) (T, error) {
	var result T
	err := filelock.WithLock(d.path, func() error {
		doc, err := d.Load()
		if err != nil {
			return err
		}
		if err := fn(&doc); err != nil {
			return err
		}
		if err := d.Save(doc); err != nil {
			return err
		}
		result = doc
		return nil
	})
	return result, err
}
