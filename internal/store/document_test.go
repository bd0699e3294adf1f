package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Counter int    `json:"counter"`
	Label   string `json:"label"`
}

func newTestDoc(t *testing.T) *Document[testDoc] {
	t.Helper()
	return NewDocument(filepath.Join(t.TempDir(), "doc.json"), func() testDoc {
		return testDoc{Label: "initial"}
	})
}

func TestDocumentLoadReturnsInitWhenAbsent(t *testing.T) {
	doc := newTestDoc(t)

	loaded, err := doc.Load()
	require.NoError(t, err)
	assert.Equal(t, "initial", loaded.Label)
	assert.Zero(t, loaded.Counter)
}

func TestDocumentSaveAndLoad(t *testing.T) {
	doc := newTestDoc(t)

	require.NoError(t, doc.Save(testDoc{Counter: 7, Label: "saved"}))

	loaded, err := doc.Load()
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Counter)
	assert.Equal(t, "saved", loaded.Label)
}

func TestDocumentUpdate(t *testing.T) {
	doc := newTestDoc(t)

	for i := 0; i < 3; i++ {
		_, err := doc.Update(func(d *testDoc) error {
			d.Counter++
			return nil
		})
		require.NoError(t, err)
	}

	loaded, err := doc.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Counter)
}

// TestDocumentUpdateAbortsOnError verifies a failing mutation leaves
// the stored document untouched
func TestDocumentUpdateAbortsOnError(t *testing.T) {
	doc := newTestDoc(t)
	require.NoError(t, doc.Save(testDoc{Counter: 1}))

	boom := errors.New("mutation failed")
	_, err := doc.Update(func(d *testDoc) error {
		d.Counter = 99
		return boom
	})
	require.ErrorIs(t, err, boom)

	loaded, err := doc.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Counter)
}
