package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type journalRec struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestJournalAppendAndReadAll(t *testing.T) {
	j := NewJournal[journalRec](filepath.Join(t.TempDir(), "recs.jsonl"))

	require.NoError(t, j.Append(journalRec{Name: "a", Value: 1}))
	require.NoError(t, j.Append(journalRec{Name: "b", Value: 2}))

	records, err := j.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].Name)
	assert.Equal(t, 2, records[1].Value)
}

func TestJournalMissingFile(t *testing.T) {
	j := NewJournal[journalRec](filepath.Join(t.TempDir(), "absent.jsonl"))

	records, err := j.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)

	count, err := j.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

// TestJournalSkipsMalformedLines verifies a corrupt line never takes
// down the rest of the journal
func TestJournalSkipsMalformedLines(t *testing.T) {
	origWarnf := Warnf
	var warnings int
	Warnf = func(format string, args ...interface{}) { warnings++ }
	defer func() { Warnf = origWarnf }()

	path := filepath.Join(t.TempDir(), "recs.jsonl")
	content := `{"name":"a","value":1}
{corrupt json
{"name":"b","value":2}

{"name":"c","value":3}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	j := NewJournal[journalRec](path)
	records, err := j.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{records[0].Name, records[1].Name, records[2].Name})
	assert.Equal(t, 1, warnings)
}

func TestJournalTail(t *testing.T) {
	j := NewJournal[journalRec](filepath.Join(t.TempDir(), "recs.jsonl"))
	for i := 1; i <= 5; i++ {
		require.NoError(t, j.Append(journalRec{Value: i}))
	}

	tail, err := j.Tail(2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, 4, tail[0].Value)
	assert.Equal(t, 5, tail[1].Value)

	all, err := j.Tail(100)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
