package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/harrison/switchboard/internal/filelock"
	"github.com/harrison/switchboard/internal/models"
)

// ErrDecisionNotFound is returned when a referenced decision does not
// exist in the active log or any archive.
var ErrDecisionNotFound = errors.New("decision not found")

// DecisionFilter narrows a decision query. Zero values match everything.
type DecisionFilter struct {
	Intent        models.Intent
	MinConfidence int
	Workflow      models.Workflow
}

// Matches reports whether a record passes the filter.
func (f DecisionFilter) Matches(rec models.DecisionRecord) bool {
	if f.Intent != "" && rec.Intent != f.Intent {
		return false
	}
	if rec.Confidence < f.MinConfidence {
		return false
	}
	if f.Workflow != "" && rec.Workflow != f.Workflow {
		return false
	}
	return true
}

// DecisionLog is the append-only decision record store with
// size-bounded rotation.
type DecisionLog struct {
	journal *Journal[models.DecisionRecord]
	dir     string
	base    string
}

// NewDecisionLog creates a decision log at path. Archives are written
// as siblings named <base>-<timestamp><ext>.
func NewDecisionLog(path string) *DecisionLog {
	return &DecisionLog{
		journal: NewJournal[models.DecisionRecord](path),
		dir:     filepath.Dir(path),
		base:    filepath.Base(path),
	}
}

// Log appends one decision record and returns it unchanged. The append
// takes the rotation lock so a record can never land inside a
// concurrent rotation's read-rewrite window.
func (l *DecisionLog) Log(rec models.DecisionRecord) (models.DecisionRecord, error) {
	err := filelock.WithLock(l.journal.Path(), func() error {
		return l.journal.Append(rec)
	})
	if err != nil {
		return rec, fmt.Errorf("log decision: %w", err)
	}
	return rec, nil
}

// Query returns the most recent limit records matching the filter, in
// append order. limit <= 0 means no limit.
func (l *DecisionLog) Query(filter DecisionFilter, limit int) ([]models.DecisionRecord, error) {
	records, err := l.journal.ReadAll()
	if err != nil {
		return nil, err
	}

	var matched []models.DecisionRecord
	for _, rec := range records {
		if filter.Matches(rec) {
			matched = append(matched, rec)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	if matched == nil {
		matched = []models.DecisionRecord{}
	}
	return matched, nil
}

// Count returns the number of valid records in the active log.
func (l *DecisionLog) Count() (int, error) {
	return l.journal.Count()
}

// FindByID looks up a decision in the active log, then in archives.
func (l *DecisionLog) FindByID(id string) (*models.DecisionRecord, error) {
	records, err := l.journal.ReadAll()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}

	archives, err := l.archivePaths()
	if err != nil {
		return nil, err
	}
	for _, archive := range archives {
		archived, err := readLines[models.DecisionRecord](archive)
		if err != nil {
			continue
		}
		for i := range archived {
			if archived[i].ID == id {
				return &archived[i], nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrDecisionNotFound, id)
}

// Rotate moves the oldest excess entries to a timestamped archive when
// the active log exceeds maxEntries. Total record count across active
// and archive is preserved. Returns the number of archived records.
// The whole read-archive-rewrite sequence runs under the same lock Log
// takes, so concurrent appends wait rather than being dropped by the
// rewrite.
func (l *DecisionLog) Rotate(maxEntries int) (int, error) {
	if maxEntries <= 0 {
		return 0, fmt.Errorf("rotate: maxEntries must be > 0, got %d", maxEntries)
	}

	archived := 0
	err := filelock.WithLock(l.journal.Path(), func() error {
		n, err := l.rotateLocked(maxEntries)
		archived = n
		return err
	})
	return archived, err
}

func (l *DecisionLog) rotateLocked(maxEntries int) (int, error) {
	records, err := l.journal.ReadAll()
	if err != nil {
		return 0, err
	}
	if len(records) <= maxEntries {
		return 0, nil
	}

	excess := records[:len(records)-maxEntries]
	keep := records[len(records)-maxEntries:]

	archived := NewJournal[models.DecisionRecord](l.archivePathFor(time.Now()))
	for _, rec := range excess {
		if err := archived.Append(rec); err != nil {
			return 0, fmt.Errorf("archive decision: %w", err)
		}
	}

	// Rewrite the active log with the survivors. Atomic rename keeps
	// concurrent readers on a consistent view.
	var sb strings.Builder
	for _, rec := range keep {
		line, err := encodeLine(rec)
		if err != nil {
			return 0, fmt.Errorf("encode kept decision: %w", err)
		}
		sb.Write(line)
	}
	if err := filelock.AtomicWrite(l.journal.Path(), []byte(sb.String())); err != nil {
		return 0, fmt.Errorf("rewrite active log: %w", err)
	}

	return len(excess), nil
}

// archivePathFor returns the archive file path for a rotation at t.
func (l *DecisionLog) archivePathFor(t time.Time) string {
	ext := filepath.Ext(l.base)
	stem := strings.TrimSuffix(l.base, ext)
	name := fmt.Sprintf("%s-%s%s", stem, t.Format("20060102-150405"), ext)
	return filepath.Join(l.dir, name)
}

// archivePaths lists existing archive files, oldest first.
func (l *DecisionLog) archivePaths() ([]string, error) {
	ext := filepath.Ext(l.base)
	stem := strings.TrimSuffix(l.base, ext)

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == l.base {
			continue
		}
		if strings.HasPrefix(name, stem+"-") && strings.HasSuffix(name, ext) {
			paths = append(paths, filepath.Join(l.dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ArchivedCount returns the total number of records across all archives.
func (l *DecisionLog) ArchivedCount() (int, error) {
	archives, err := l.archivePaths()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, archive := range archives {
		records, err := readLines[models.DecisionRecord](archive)
		if err != nil {
			return 0, err
		}
		total += len(records)
	}
	return total, nil
}
