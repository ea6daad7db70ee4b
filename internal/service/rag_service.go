package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"complaintrag/internal/chunker"
	"complaintrag/internal/config"
	"complaintrag/internal/corpus"
	"complaintrag/internal/domain"
	"complaintrag/internal/indexer"
	"complaintrag/internal/logging"
	"complaintrag/internal/pipeline"
	"complaintrag/internal/retriever"
	"complaintrag/internal/vectorindex"
)

// ErrNotReady is returned by Ask before an index has been loaded.
var ErrNotReady = errors.New("index not loaded")

// Observer combines the build and query observers.
type Observer interface {
	indexer.Observer
	pipeline.Observer
	SetIndexSize(chunks int)
}

// RAGService wires index build and question answering for the front ends.
// Load may be called again to swap in a newly published index while queries
// are in flight.
type RAGService struct {
	cfg       *config.AppConfig
	embedder  domain.Embedder
	generator domain.Generator
	store     *vectorindex.Store
	logger    *slog.Logger
	observer  Observer

	mu       sync.RWMutex
	pipeline *pipeline.Pipeline
	manifest vectorindex.Manifest
}

func NewRAGService(cfg *config.AppConfig, embedder domain.Embedder, generator domain.Generator, logger *slog.Logger) *RAGService {
	logger = logging.OrDefault(logger)
	return &RAGService{
		cfg:       cfg,
		embedder:  embedder,
		generator: generator,
		store:     vectorindex.NewStore(cfg.Index.Dir, cfg.Index.KeepVersions, logger),
		logger:    logger,
	}
}

// WithObserver attaches o and returns the service.
func (s *RAGService) WithObserver(o Observer) *RAGService {
	s.observer = o
	return s
}

// BuildResult reports an index build.
type BuildResult struct {
	Corpus corpus.Stats  `json:"corpus"`
	Index  indexer.Stats `json:"index"`
}

// BuildIndex loads the configured corpus, builds the index and publishes it.
// A successful build is also made live for this service.
func (s *RAGService) BuildIndex(ctx context.Context) (BuildResult, error) {
	records, err := corpus.LoadCSV(s.cfg.Corpus.Path, s.cfg.Corpus.NarrativeColumn, s.cfg.Corpus.ProductColumn)
	if err != nil {
		return BuildResult{}, &domain.BuildError{Stage: "load", Err: err}
	}
	return s.BuildFromRecords(ctx, records)
}

// BuildFromRecords builds and publishes an index over records.
func (s *RAGService) BuildFromRecords(ctx context.Context, records []domain.Record) (BuildResult, error) {
	res := BuildResult{Corpus: corpus.Summarize(records)}
	c, err := chunker.NewWindowChunker(s.cfg.Chunker.ChunkSize, s.cfg.Chunker.Overlap)
	if err != nil {
		return res, &domain.BuildError{Stage: "chunk", Err: err}
	}
	ix := indexer.New(c, s.embedder, s.store, s.logger)
	if s.observer != nil {
		ix.WithObserver(s.observer)
	}
	b, stats, err := ix.BuildAndSave(ctx, records)
	res.Index = stats
	if err != nil {
		return res, err
	}
	if err := s.use(b); err != nil {
		return res, err
	}
	return res, nil
}

// Load makes the currently published index live.
func (s *RAGService) Load() error {
	start := time.Now()
	b, err := s.store.Load()
	if err != nil {
		return err
	}
	if err := s.use(b); err != nil {
		return err
	}
	s.logger.Info("index loaded", slog.String("version", b.Manifest().Version),
		slog.Int("chunks", b.Len()), slog.Float64("ms", logging.Since(start)))
	return nil
}

func (s *RAGService) use(b *vectorindex.Bundle) error {
	r, err := retriever.New(b, s.embedder, s.logger)
	if err != nil {
		return err
	}
	p := pipeline.New(r, s.generator, pipeline.Options{
		TopK:              s.cfg.Retrieval.TopK,
		GenerateTimeout:   time.Duration(s.cfg.Generator.TimeoutSecs) * time.Second,
		MinConfidence:     s.cfg.Generator.MinConfidence,
		MaxResponseTimeMS: s.cfg.Generator.MaxResponseTimeMS,
	}, s.logger)
	if s.observer != nil {
		p.WithObserver(s.observer)
		s.observer.SetIndexSize(b.Len())
	}

	s.mu.Lock()
	s.pipeline = p
	s.manifest = b.Manifest()
	s.mu.Unlock()
	return nil
}

// Ask answers one question against the live index.
func (s *RAGService) Ask(ctx context.Context, question string) (*domain.PipelineResult, error) {
	s.mu.RLock()
	p := s.pipeline
	s.mu.RUnlock()
	if p == nil {
		return nil, ErrNotReady
	}
	return p.Process(ctx, question)
}

// Manifest describes the live index; ok is false before Load.
func (s *RAGService) Manifest() (m vectorindex.Manifest, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest, s.pipeline != nil
}
