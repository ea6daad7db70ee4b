package vectorindex

import (
	"fmt"
	"time"

	"complaintrag/internal/domain"
)

// Manifest describes a persisted bundle.
type Manifest struct {
	Version   string    `json:"version"`
	Count     int       `json:"count"`
	Dimension int       `json:"dimension"`
	Model     string    `json:"model"`
	ChunkSize int       `json:"chunk_size"`
	Overlap   int       `json:"overlap"`
	CreatedAt time.Time `json:"created_at"`
}

// Bundle keeps the vector index and the parallel document and metadata
// stores together. Position i in each refers to the same chunk; the
// constructor and the loader refuse anything that breaks that alignment.
type Bundle struct {
	manifest  Manifest
	index     *Flat
	documents []string
	metadata  []domain.ChunkMetadata
}

// NewBundle builds a bundle from chunks and their embeddings, in the same order.
func NewBundle(chunks []domain.Chunk, vectors [][]float32, model string, chunkSize, overlap int) (*Bundle, error) {
	if len(chunks) == 0 {
		return nil, domain.ErrNoChunks
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: %d chunks, %d embeddings", domain.ErrIndexCorrupt, len(chunks), len(vectors))
	}
	idx, err := NewFlat(len(vectors[0]))
	if err != nil {
		return nil, err
	}
	if err := idx.Add(vectors); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	docs := make([]string, len(chunks))
	meta := make([]domain.ChunkMetadata, len(chunks))
	for i, c := range chunks {
		docs[i] = c.Text
		meta[i] = c.Metadata()
	}
	return &Bundle{
		manifest: Manifest{
			Count:     len(chunks),
			Dimension: idx.Dimension(),
			Model:     model,
			ChunkSize: chunkSize,
			Overlap:   overlap,
			CreatedAt: time.Now().UTC(),
		},
		index:     idx,
		documents: docs,
		metadata:  meta,
	}, nil
}

func assemble(m Manifest, idx *Flat, docs []string, meta []domain.ChunkMetadata) (*Bundle, error) {
	if idx.Len() != m.Count || len(docs) != m.Count || len(meta) != m.Count {
		return nil, fmt.Errorf("%w: manifest count %d, index %d, documents %d, metadata %d",
			domain.ErrIndexCorrupt, m.Count, idx.Len(), len(docs), len(meta))
	}
	if idx.Dimension() != m.Dimension {
		return nil, fmt.Errorf("%w: manifest dimension %d, index %d", domain.ErrIndexCorrupt, m.Dimension, idx.Dimension())
	}
	return &Bundle{manifest: m, index: idx, documents: docs, metadata: meta}, nil
}

// Manifest returns the bundle description.
func (b *Bundle) Manifest() Manifest { return b.manifest }

// Len returns the number of chunks.
func (b *Bundle) Len() int { return len(b.documents) }

// Model returns the embedder model the vectors were produced with.
func (b *Bundle) Model() string { return b.manifest.Model }

// Index returns the underlying vector index.
func (b *Bundle) Index() *Flat { return b.index }

// Chunk reassembles the chunk at position i from the document and metadata stores.
func (b *Bundle) Chunk(i int) domain.Chunk {
	m := b.metadata[i]
	return domain.Chunk{
		ID:        m.ChunkID,
		Text:      b.documents[i],
		Product:   m.Product,
		SourceRow: m.OriginalIndex,
		Length:    m.ChunkLength,
	}
}

// Chunks returns every chunk in index order.
func (b *Bundle) Chunks() []domain.Chunk {
	out := make([]domain.Chunk, b.Len())
	for i := range out {
		out[i] = b.Chunk(i)
	}
	return out
}
