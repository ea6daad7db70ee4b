package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"complaintrag/internal/domain"
	"complaintrag/internal/logging"
	"complaintrag/internal/prompt"
	"complaintrag/internal/scoring"
)

// Retriever finds the chunks nearest to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]domain.RetrievedChunk, error)
}

// Observer receives per-query outcomes; the metrics package implements it.
type Observer interface {
	ObserveQuery(m domain.PerformanceMetrics)
	ObserveFailure(stage string)
}

// Options tunes the pipeline. Zero values take the defaults noted on each field.
type Options struct {
	TopK              int           // 5
	GenerateTimeout   time.Duration // 60s
	MinConfidence     float64       // 0.7
	MaxResponseTimeMS float64       // 3000
}

type Pipeline struct {
	retriever Retriever
	generator domain.Generator
	scorer    domain.ConfidenceScorer
	explainer domain.Explainer
	opts      Options
	logger    *slog.Logger
	observer  Observer
}

func New(r Retriever, g domain.Generator, opts Options, logger *slog.Logger) *Pipeline {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = 60 * time.Second
	}
	if opts.MinConfidence == 0 {
		opts.MinConfidence = 0.7
	}
	if opts.MaxResponseTimeMS == 0 {
		opts.MaxResponseTimeMS = 3000
	}
	return &Pipeline{
		retriever: r,
		generator: g,
		scorer:    scoring.NewHeuristicScorer(),
		explainer: scoring.NewKeywordExplainer(),
		opts:      opts,
		logger:    logging.OrDefault(logger),
	}
}

// WithScorer replaces the confidence strategy.
func (p *Pipeline) WithScorer(s domain.ConfidenceScorer) *Pipeline {
	p.scorer = s
	return p
}

// WithExplainer replaces the explainability strategy.
func (p *Pipeline) WithExplainer(e domain.Explainer) *Pipeline {
	p.explainer = e
	return p
}

// WithObserver attaches o and returns the pipeline.
func (p *Pipeline) WithObserver(o Observer) *Pipeline {
	p.observer = o
	return p
}

// Answer generates and scores an answer for an already built prompt.
func (p *Pipeline) Answer(ctx context.Context, grounded string) (domain.AnswerResult, error) {
	gctx, cancel := context.WithTimeout(ctx, p.opts.GenerateTimeout)
	defer cancel()

	start := time.Now()
	answer, err := p.generator.Generate(gctx, grounded)
	if err != nil {
		if !errors.Is(err, domain.ErrGeneration) {
			err = fmt.Errorf("%w: %v", domain.ErrGeneration, err)
		}
		return domain.AnswerResult{}, err
	}
	if gctx.Err() != nil {
		return domain.AnswerResult{}, fmt.Errorf("%w: %v", domain.ErrGeneration, gctx.Err())
	}
	p.logger.Debug("generate", slog.String("model", p.generator.ModelInfo()), slog.Float64("ms", logging.Since(start)))

	return domain.AnswerResult{
		Answer:          answer,
		ConfidenceScore: scoring.SafeScore(p.scorer, answer, grounded, p.logger),
		Explainability:  scoring.SafeExplain(p.explainer, answer, grounded, p.logger),
		ModelUsed:       p.generator.ModelInfo(),
		MaxTokens:       p.generator.MaxTokens(),
	}, nil
}

// Process answers one question. Retrieval and generation failures are
// returned as *domain.QueryError; scoring failures never fail the call.
func (p *Pipeline) Process(ctx context.Context, question string) (*domain.PipelineResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, p.fail("input", fmt.Errorf("%w: question is empty", domain.ErrInvalidInput))
	}
	start := time.Now()

	chunks, err := p.retriever.Retrieve(ctx, question, p.opts.TopK)
	if err != nil {
		return nil, p.fail("retrieve", err)
	}

	ans, err := p.Answer(ctx, prompt.Build(question, chunks))
	if err != nil {
		return nil, p.fail("generate", err)
	}

	elapsed := logging.Since(start)
	metrics := CalculateMetrics(elapsed, ans.ConfidenceScore)
	result := &domain.PipelineResult{
		ID:                 uuid.NewString(),
		Question:           question,
		Answer:             ans.Answer,
		ConfidenceScore:    ans.ConfidenceScore,
		Explainability:     ans.Explainability,
		RetrievedChunks:    chunks,
		PerformanceMetrics: metrics,
		ModelUsed:          ans.ModelUsed,
		Timestamp:          time.Now().UTC(),
	}

	attrs := []any{
		slog.String("id", result.ID),
		slog.Float64("ms", elapsed),
		slog.Float64("confidence", ans.ConfidenceScore),
		slog.Int("chunks", len(chunks)),
		slog.String("grade", string(metrics.PerformanceGrade)),
	}
	p.logger.Info("pipeline.process", attrs...)
	if ans.ConfidenceScore < p.opts.MinConfidence {
		p.logger.Warn("answer confidence below threshold", slog.String("id", result.ID),
			slog.Float64("confidence", ans.ConfidenceScore), slog.Float64("threshold", p.opts.MinConfidence))
	}
	if elapsed > p.opts.MaxResponseTimeMS {
		p.logger.Warn("response time above threshold", slog.String("id", result.ID),
			slog.Float64("ms", elapsed), slog.Float64("threshold_ms", p.opts.MaxResponseTimeMS))
	}
	if p.observer != nil {
		p.observer.ObserveQuery(metrics)
	}
	return result, nil
}

func (p *Pipeline) fail(stage string, err error) error {
	p.logger.Error("failed to process question", slog.String("stage", stage), slog.Any("error", err))
	if p.observer != nil {
		p.observer.ObserveFailure(stage)
	}
	return &domain.QueryError{Stage: stage, Err: err}
}

// CalculateMetrics grades a response: under 1000ms is excellent, under 2000ms
// good; confidence above 0.8 is high reliability, above 0.6 medium.
func CalculateMetrics(responseTimeMS, confidence float64) domain.PerformanceMetrics {
	m := domain.PerformanceMetrics{
		ResponseTimeMS:   responseTimeMS,
		ConfidenceScore:  confidence,
		PerformanceGrade: domain.GradeNeedsImprovement,
		ReliabilityScore: domain.ReliabilityLow,
	}
	switch {
	case responseTimeMS < 1000:
		m.PerformanceGrade = domain.GradeExcellent
	case responseTimeMS < 2000:
		m.PerformanceGrade = domain.GradeGood
	}
	switch {
	case confidence > 0.8:
		m.ReliabilityScore = domain.ReliabilityHigh
	case confidence > 0.6:
		m.ReliabilityScore = domain.ReliabilityMedium
	}
	return m
}
