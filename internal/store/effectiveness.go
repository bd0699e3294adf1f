package store

import (
	"fmt"

	"github.com/harrison/switchboard/internal/models"
)

// EffectivenessKey identifies one (intent, workflow) accumulator.
type EffectivenessKey struct {
	Intent   models.Intent
	Workflow models.Workflow
}

// EffectivenessLog persists effectiveness entries as an append-only
// journal of snapshots. Each mutation appends the full updated entry;
// reads fold the journal with last-entry-wins per key, so the store
// stays append-only while the table has read-modify-write semantics.
type EffectivenessLog struct {
	journal *Journal[models.EffectivenessEntry]
}

// NewEffectivenessLog creates the effectiveness store at path.
func NewEffectivenessLog(path string) *EffectivenessLog {
	return &EffectivenessLog{journal: NewJournal[models.EffectivenessEntry](path)}
}

// Load folds the journal into the current table.
func (l *EffectivenessLog) Load() (map[EffectivenessKey]models.EffectivenessEntry, error) {
	entries, err := l.journal.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("load effectiveness: %w", err)
	}

	table := make(map[EffectivenessKey]models.EffectivenessEntry, len(entries))
	for _, entry := range entries {
		table[EffectivenessKey{entry.Intent, entry.Workflow}] = entry
	}
	return table, nil
}

// Record appends the updated snapshot for one (intent, workflow) entry.
func (l *EffectivenessLog) Record(entry models.EffectivenessEntry) error {
	if err := l.journal.Append(entry); err != nil {
		return fmt.Errorf("record effectiveness: %w", err)
	}
	return nil
}

// Get returns the current entry for a key; ok is false when unseen.
func (l *EffectivenessLog) Get(key EffectivenessKey) (models.EffectivenessEntry, bool, error) {
	table, err := l.Load()
	if err != nil {
		return models.EffectivenessEntry{}, false, err
	}
	entry, ok := table[key]
	return entry, ok, nil
}

// BestWorkflow returns the workflow with the highest success rate for
// an intent among entries with at least minUses uses.
func (l *EffectivenessLog) BestWorkflow(intent models.Intent, minUses int) (models.Workflow, models.EffectivenessEntry, bool, error) {
	table, err := l.Load()
	if err != nil {
		return "", models.EffectivenessEntry{}, false, err
	}

	var best models.EffectivenessEntry
	found := false
	for key, entry := range table {
		if key.Intent != intent || entry.Uses < minUses {
			continue
		}
		if !found || entry.SuccessRate() > best.SuccessRate() {
			best = entry
			found = true
		}
	}
	return best.Workflow, best, found, nil
}
