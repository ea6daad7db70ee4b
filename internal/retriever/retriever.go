package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"complaintrag/internal/domain"
	"complaintrag/internal/logging"
	"complaintrag/internal/vectorindex"
)

// Retriever answers nearest-chunk queries against one loaded bundle.
// The bundle is read-only, so a Retriever is safe for concurrent use.
type Retriever struct {
	bundle   *vectorindex.Bundle
	embedder domain.Embedder
	logger   *slog.Logger
}

// New returns a retriever. It fails with ErrModelMismatch when embedder is not
// the model the bundle was built with.
func New(bundle *vectorindex.Bundle, embedder domain.Embedder, logger *slog.Logger) (*Retriever, error) {
	if bundle.Model() != embedder.ModelInfo() {
		return nil, fmt.Errorf("%w: index built with %q, embedder is %q", domain.ErrModelMismatch, bundle.Model(), embedder.ModelInfo())
	}
	return &Retriever{bundle: bundle, embedder: embedder, logger: logging.OrDefault(logger)}, nil
}

// Relevance maps a distance to (0,1]; zero distance is 1.
func Relevance(distance float64) float64 {
	return 1 / (1 + distance)
}

// Retrieve returns up to topK chunks nearest to question, rank 1 first.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]domain.RetrievedChunk, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be >= 1, got %d", domain.ErrInvalidInput, topK)
	}
	if r.bundle.Len() == 0 {
		return []domain.RetrievedChunk{}, nil
	}
	start := time.Now()
	vecs, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query vector, got %d", domain.ErrEmbedding, len(vecs))
	}
	hits, err := r.bundle.Index().Search(vecs[0], topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelMismatch, err)
	}
	out := make([]domain.RetrievedChunk, len(hits))
	for i, h := range hits {
		out[i] = domain.RetrievedChunk{
			Chunk:          r.bundle.Chunk(h.Position),
			RelevanceScore: Relevance(h.Distance),
			Rank:           i + 1,
			Distance:       h.Distance,
		}
	}
	r.logger.Debug("retrieve", slog.Int("top_k", topK), slog.Int("hits", len(out)), slog.Float64("ms", logging.Since(start)))
	return out, nil
}
