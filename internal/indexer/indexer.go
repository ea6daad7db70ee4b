package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"complaintrag/internal/domain"
	"complaintrag/internal/logging"
	"complaintrag/internal/vectorindex"
)

// Stats summarizes one index build.
type Stats struct {
	Records        int    `json:"records"`
	SkippedRecords int    `json:"skipped_records"`
	Chunks         int    `json:"chunks"`
	Dimension      int    `json:"dimension"`
	ChunkSize      int    `json:"chunk_size"`
	Overlap        int    `json:"overlap"`
	Model          string `json:"model"`
	Version        string `json:"version,omitempty"`
}

// WindowChunker is a chunker that reports its window parameters.
type WindowChunker interface {
	domain.Chunker
	ChunkSize() int
	Overlap() int
}

// Observer receives build results; the metrics package implements it.
type Observer interface {
	ObserveBuild(chunks int, seconds float64)
}

type Indexer struct {
	chunker  WindowChunker
	embedder domain.Embedder
	store    *vectorindex.Store
	logger   *slog.Logger
	observer Observer
}

func New(chunker WindowChunker, embedder domain.Embedder, store *vectorindex.Store, logger *slog.Logger) *Indexer {
	return &Indexer{chunker: chunker, embedder: embedder, store: store, logger: logging.OrDefault(logger)}
}

// WithObserver attaches o and returns the indexer.
func (ix *Indexer) WithObserver(o Observer) *Indexer {
	ix.observer = o
	return ix
}

// Chunk runs the chunker over every usable record. Malformed and empty
// records are logged and skipped.
func (ix *Indexer) Chunk(records []domain.Record) ([]domain.Chunk, int) {
	var chunks []domain.Chunk
	skipped := 0
	for _, r := range records {
		if r.Malformed {
			ix.logger.Warn("skipping malformed record", slog.Int("row", r.Row))
			skipped++
			continue
		}
		if strings.TrimSpace(r.Narrative) == "" {
			ix.logger.Debug("skipping record without narrative", slog.Int("row", r.Row))
			skipped++
			continue
		}
		for _, text := range ix.chunker.Split(r.Narrative) {
			if strings.TrimSpace(text) == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				ID:        fmt.Sprintf("%d_%d", r.Row, len(chunks)+1),
				Text:      text,
				Product:   r.Product,
				SourceRow: r.Row,
				Length:    utf8.RuneCountInString(text),
			})
		}
	}
	return chunks, skipped
}

// Build chunks and embeds the corpus into a new bundle. Nothing is persisted.
func (ix *Indexer) Build(ctx context.Context, records []domain.Record) (*vectorindex.Bundle, Stats, error) {
	stats := Stats{
		Records:   len(records),
		ChunkSize: ix.chunker.ChunkSize(),
		Overlap:   ix.chunker.Overlap(),
		Model:     ix.embedder.ModelInfo(),
	}
	if len(records) == 0 {
		return nil, stats, &domain.BuildError{Stage: "chunk", Err: domain.ErrEmptyCorpus}
	}

	start := time.Now()
	chunks, skipped := ix.Chunk(records)
	stats.SkippedRecords = skipped
	stats.Chunks = len(chunks)
	ix.logger.Info("index.chunk", slog.Int("records", len(records)), slog.Int("skipped", skipped),
		slog.Int("chunks", len(chunks)), slog.Float64("ms", logging.Since(start)))
	if len(chunks) == 0 {
		return nil, stats, &domain.BuildError{Stage: "chunk", Err: domain.ErrNoChunks}
	}

	start = time.Now()
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, stats, &domain.BuildError{Stage: "embed", Err: err}
	}
	ix.logger.Info("index.embed", slog.Int("chunks", len(chunks)), slog.Float64("ms", logging.Since(start)))

	b, err := vectorindex.NewBundle(chunks, vectors, ix.embedder.ModelInfo(), stats.ChunkSize, stats.Overlap)
	if err != nil {
		return nil, stats, &domain.BuildError{Stage: "embed", Err: err}
	}
	stats.Dimension = b.Manifest().Dimension
	return b, stats, nil
}

// BuildAndSave builds a bundle and publishes it through the store.
func (ix *Indexer) BuildAndSave(ctx context.Context, records []domain.Record) (*vectorindex.Bundle, Stats, error) {
	start := time.Now()
	b, stats, err := ix.Build(ctx, records)
	if err != nil {
		return nil, stats, err
	}
	persistStart := time.Now()
	version, err := ix.store.Save(b)
	if err != nil {
		return nil, stats, &domain.BuildError{Stage: "persist", Err: err}
	}
	stats.Version = version
	ix.logger.Info("index.persist", slog.String("version", version), slog.Float64("ms", logging.Since(persistStart)))
	if ix.observer != nil {
		ix.observer.ObserveBuild(stats.Chunks, time.Since(start).Seconds())
	}
	return b, stats, nil
}
