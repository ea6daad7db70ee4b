package domain

import (
	"context"
	"time"
)

// Record is one row of the complaint corpus.
type Record struct {
	Row       int
	Narrative string
	Product   string
	// Malformed marks a row that could not be read cleanly; the indexer skips it.
	Malformed bool
}

// ChunkMetadata is the per-chunk entry of the persisted metadata store.
type ChunkMetadata struct {
	Product       string `json:"product"`
	OriginalIndex int    `json:"original_index"`
	ChunkID       string `json:"chunk_id"`
	ChunkLength   int    `json:"chunk_length"`
}

// Chunk is a bounded excerpt of a complaint narrative, the unit of retrieval.
type Chunk struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Product   string `json:"product"`
	SourceRow int    `json:"source_row"`
	Length    int    `json:"length"`
}

// Metadata returns the metadata-store view of the chunk.
func (c Chunk) Metadata() ChunkMetadata {
	return ChunkMetadata{
		Product:       c.Product,
		OriginalIndex: c.SourceRow,
		ChunkID:       c.ID,
		ChunkLength:   c.Length,
	}
}

// RetrievedChunk is a chunk returned for one query together with its ranking.
type RetrievedChunk struct {
	Chunk          Chunk   `json:"chunk"`
	RelevanceScore float64 `json:"relevance_score"`
	Rank           int     `json:"rank"`
	Distance       float64 `json:"distance"`
}

// ResponseQuality buckets answer length.
type ResponseQuality string

const (
	QualityLow    ResponseQuality = "low"
	QualityMedium ResponseQuality = "medium"
	QualityHigh   ResponseQuality = "high"
)

// ComplianceIndicators lists compliance-relevant terms found in an answer.
type ComplianceIndicators struct {
	HighRiskTerms        []string `json:"high_risk_terms"`
	RegulatoryMentions   []string `json:"regulatory_mentions"`
	CustomerRights       []string `json:"customer_rights"`
	ResolutionTimeframes []string `json:"resolution_timeframes"`
}

// ExplainabilityReport describes how an answer relates to its input.
type ExplainabilityReport struct {
	InputTokens          int                  `json:"input_tokens"`
	OutputTokens         int                  `json:"output_tokens"`
	ResponseQuality      ResponseQuality      `json:"response_quality"`
	KeyTopics            []string             `json:"key_topics"`
	ComplianceIndicators ComplianceIndicators `json:"compliance_indicators"`
}

// AnswerResult is the generator output plus its heuristic scores.
type AnswerResult struct {
	Answer          string               `json:"answer"`
	ConfidenceScore float64              `json:"confidence_score"`
	Explainability  ExplainabilityReport `json:"explainability"`
	ModelUsed       string               `json:"model_used"`
	MaxTokens       int                  `json:"max_tokens"`
}

// PerformanceGrade grades response time.
type PerformanceGrade string

const (
	GradeExcellent        PerformanceGrade = "excellent"
	GradeGood             PerformanceGrade = "good"
	GradeNeedsImprovement PerformanceGrade = "needs_improvement"
)

// Reliability grades confidence.
type Reliability string

const (
	ReliabilityHigh   Reliability = "high"
	ReliabilityMedium Reliability = "medium"
	ReliabilityLow    Reliability = "low"
)

// PerformanceMetrics are derived per query from elapsed time and confidence.
type PerformanceMetrics struct {
	ResponseTimeMS   float64          `json:"response_time_ms"`
	ConfidenceScore  float64          `json:"confidence_score"`
	PerformanceGrade PerformanceGrade `json:"performance_grade"`
	ReliabilityScore Reliability      `json:"reliability_score"`
}

// PipelineResult is everything produced for one question. It is owned by the caller.
type PipelineResult struct {
	ID                 string               `json:"id"`
	Question           string               `json:"question"`
	Answer             string               `json:"answer"`
	ConfidenceScore    float64              `json:"confidence_score"`
	Explainability     ExplainabilityReport `json:"explainability"`
	RetrievedChunks    []RetrievedChunk     `json:"retrieved_chunks"`
	PerformanceMetrics PerformanceMetrics   `json:"performance_metrics"`
	ModelUsed          string               `json:"model_used"`
	Timestamp          time.Time            `json:"timestamp"`
}

// Chunker splits a narrative into overlapping windows.
type Chunker interface {
	Split(narrative string) []string
}

// Embedder converts text into fixed-dimension vectors.
// ModelInfo identifies the model; vectors from different models are not comparable.
type Embedder interface {
	ModelInfo() string
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces answer text for a grounded prompt.
type Generator interface {
	ModelInfo() string
	MaxTokens() int
	Generate(ctx context.Context, prompt string) (string, error)
}

// ConfidenceScorer estimates answer quality in [0,1].
type ConfidenceScorer interface {
	Score(answer, prompt string) float64
}

// Explainer derives an explainability report from an answer and its prompt.
type Explainer interface {
	Explain(answer, prompt string) ExplainabilityReport
}
