package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintrag/internal/chunker"
	"complaintrag/internal/domain"
	"complaintrag/internal/embedding/hashing"
	"complaintrag/internal/vectorindex"
)

type failingEmbedder struct{}

func (failingEmbedder) ModelInfo() string { return "failing" }
func (failingEmbedder) Dimension() int    { return 4 }
func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, domain.ErrEmbedding
}

type recordingObserver struct{ chunks int }

func (o *recordingObserver) ObserveBuild(chunks int, _ float64) { o.chunks = chunks }

func newIndexer(t *testing.T, dir string, emb domain.Embedder) *Indexer {
	t.Helper()
	c, err := chunker.NewWindowChunker(300, 50)
	require.NoError(t, err)
	return New(c, emb, vectorindex.NewStore(dir, 2, nil), nil)
}

func hashingEmbedder(t *testing.T) domain.Embedder {
	t.Helper()
	e, err := hashing.NewEmbedder(64)
	require.NoError(t, err)
	return e
}

func TestBuild_SingleShortNarrative(t *testing.T) {
	ix := newIndexer(t, t.TempDir(), hashingEmbedder(t))
	records := []domain.Record{{Row: 0, Narrative: "My card was charged twice without authorization.", Product: "Credit Card"}}

	b, stats, err := ix.Build(context.Background(), records)
	require.NoError(t, err)
	require.Equal(t, 1, b.Len())
	assert.Equal(t, 1, b.Index().Len())

	c := b.Chunk(0)
	assert.Equal(t, records[0].Narrative, c.Text)
	assert.Equal(t, "0_1", c.ID)
	assert.Equal(t, "Credit Card", c.Product)
	assert.Equal(t, len(c.Text), c.Length)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 64, stats.Dimension)
	assert.Equal(t, "hashing-tf-v1/64", stats.Model)
}

func TestChunk_SkipsBadRecordsAndNumbersChunks(t *testing.T) {
	ix := newIndexer(t, t.TempDir(), hashingEmbedder(t))
	long := make([]rune, 400)
	for i := range long {
		long[i] = 'x'
	}
	records := []domain.Record{
		{Row: 0, Narrative: "", Product: "A"},
		{Row: 1, Narrative: "first complaint", Product: "A"},
		{Row: 2, Narrative: "ignored", Product: "B", Malformed: true},
		{Row: 3, Narrative: string(long), Product: "C"},
		{Row: 4, Narrative: "   ", Product: "D"},
	}

	chunks, skipped := ix.Chunk(records)
	assert.Equal(t, 3, skipped)
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"1_1", "3_2", "3_3"}, []string{chunks[0].ID, chunks[1].ID, chunks[2].ID})
	assert.Equal(t, 300, chunks[1].Length)
	assert.Equal(t, 150, chunks[2].Length)
	for _, c := range chunks {
		assert.NotEmpty(t, c.Text)
	}
}

func TestBuild_EmptyCorpus(t *testing.T) {
	ix := newIndexer(t, t.TempDir(), hashingEmbedder(t))

	_, _, err := ix.Build(context.Background(), nil)
	var be *domain.BuildError
	require.True(t, errors.As(err, &be))
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)

	_, _, err = ix.Build(context.Background(), []domain.Record{{Row: 0, Narrative: ""}})
	assert.ErrorIs(t, err, domain.ErrNoChunks)
}

func TestBuildAndSave_EmbeddingFailureLeavesNoIndex(t *testing.T) {
	dir := t.TempDir()
	ix := newIndexer(t, dir, failingEmbedder{})

	_, _, err := ix.BuildAndSave(context.Background(), []domain.Record{{Row: 0, Narrative: "text", Product: "A"}})
	var be *domain.BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "embed", be.Stage)
	assert.ErrorIs(t, err, domain.ErrEmbedding)

	_, err = vectorindex.NewStore(dir, 2, nil).Load()
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestBuildAndSave_PersistsAlignedStores(t *testing.T) {
	dir := t.TempDir()
	obs := &recordingObserver{}
	ix := newIndexer(t, dir, hashingEmbedder(t)).WithObserver(obs)
	records := []domain.Record{
		{Row: 0, Narrative: "charged twice for the same purchase", Product: "Credit card"},
		{Row: 1, Narrative: "the transfer never arrived at the bank", Product: "Money transfers"},
	}

	_, stats, err := ix.BuildAndSave(context.Background(), records)
	require.NoError(t, err)
	assert.NotEmpty(t, stats.Version)
	assert.Equal(t, 2, obs.chunks)

	loaded, err := vectorindex.NewStore(dir, 2, nil).Load()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, 2, loaded.Index().Len())
	assert.Equal(t, 2, loaded.Manifest().Count)
}

func TestBuild_Idempotent(t *testing.T) {
	ix := newIndexer(t, t.TempDir(), hashingEmbedder(t))
	records := []domain.Record{
		{Row: 0, Narrative: "late fee charged after payment was made on time", Product: "Credit card"},
		{Row: 1, Narrative: "savings account closed without notice", Product: "Savings account"},
	}

	first, _, err := ix.Build(context.Background(), records)
	require.NoError(t, err)
	second, _, err := ix.Build(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, first.Chunks(), second.Chunks())
	for i := 0; i < first.Len(); i++ {
		assert.Equal(t, first.Index().Vector(i), second.Index().Vector(i))
	}
}
