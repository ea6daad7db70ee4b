package vectorindex

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintrag/internal/domain"
)

func sampleBundle(t *testing.T) *Bundle {
	t.Helper()
	chunks := []domain.Chunk{
		{ID: "0_1", Text: "charged twice for one purchase", Product: "Credit card", SourceRow: 0, Length: 30},
		{ID: "1_2", Text: "transfer never arrived", Product: "Money transfers", SourceRow: 1, Length: 22},
		{ID: "1_3", Text: "arrived late", Product: "Money transfers", SourceRow: 1, Length: 12},
	}
	vectors := [][]float32{{1, 0}, {0, 1}, {0.5, 0.5}}
	b, err := NewBundle(chunks, vectors, "hashing-tf-v1/2", 300, 50)
	require.NoError(t, err)
	return b
}

func TestNewBundle_Validation(t *testing.T) {
	_, err := NewBundle(nil, nil, "m", 300, 50)
	assert.ErrorIs(t, err, domain.ErrNoChunks)

	_, err = NewBundle([]domain.Chunk{{ID: "0_1"}}, [][]float32{{1}, {2}}, "m", 300, 50)
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, 2, nil)
	b := sampleBundle(t)

	version, err := s.Save(b)
	require.NoError(t, err)
	assert.NotEmpty(t, version)

	current, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, version, current)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Len())
	assert.Equal(t, 3, loaded.Index().Len())
	assert.Equal(t, "hashing-tf-v1/2", loaded.Model())
	assert.Equal(t, version, loaded.Manifest().Version)
	assert.Equal(t, b.Chunks(), loaded.Chunks())
	assert.Equal(t, []float32{0.5, 0.5}, loaded.Index().Vector(2))
}

func TestStore_LoadMissing(t *testing.T) {
	s := NewStore(t.TempDir(), 2, nil)
	_, err := s.Load()
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestStore_LoadDetectsCountMismatch(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, 2, nil)
	version, err := s.Save(sampleBundle(t))
	require.NoError(t, err)

	f, err := os.Create(filepath.Join(dir, versionsDir, version, documentsFile))
	require.NoError(t, err)
	require.NoError(t, gob.NewEncoder(f).Encode([]string{"only one"}))
	require.NoError(t, f.Close())

	_, err = s.Load()
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestStore_LoadDetectsMissingArtifact(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, 2, nil)
	version, err := s.Save(sampleBundle(t))
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, versionsDir, version, metadataFile)))

	_, err = s.Load()
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestStore_PrunesOldVersions(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, 2, nil)

	var last string
	for i := 0; i < 4; i++ {
		v, err := s.Save(sampleBundle(t))
		require.NoError(t, err)
		last = v
	}

	entries, err := os.ReadDir(filepath.Join(dir, versionsDir))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, last, loaded.Manifest().Version)
}

func TestStore_PruneKeepsPreviousVersion(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, 2, nil)

	var saved []string
	for i := 0; i < 5; i++ {
		v, err := s.Save(sampleBundle(t))
		require.NoError(t, err)
		saved = append(saved, v)
	}

	entries, err := os.ReadDir(filepath.Join(dir, versionsDir))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, saved[3:], names)
}

func TestStore_FailedPublishLeavesNoVersion(t *testing.T) {
	dir := t.TempDir()
	// CURRENT cannot be replaced while it is a non-empty directory
	require.NoError(t, os.MkdirAll(filepath.Join(dir, currentFile, "blocker"), 0o755))

	_, err := NewStore(dir, 2, nil).Save(sampleBundle(t))
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, versionsDir))
	require.NoError(t, err)
	assert.Empty(t, entries)

	top, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range top {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}
