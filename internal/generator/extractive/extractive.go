package extractive

import (
	"context"
	"fmt"
	"strings"

	"complaintrag/internal/domain"
	"complaintrag/internal/prompt"
	"complaintrag/internal/summarizer"
)

// ModelID identifies answers produced offline by this generator.
const ModelID = "extractive-frequency-v1"

const noEvidence = "No relevant complaints were found for this question."

// Generator answers without a language model: it ranks the sentences of the
// complaints quoted in the prompt and returns the best ones.
type Generator struct {
	summarizer   *summarizer.FrequencySummarizer
	maxSentences int
	maxTokens    int
}

func New(maxSentences, maxTokens int) *Generator {
	if maxSentences <= 0 {
		maxSentences = 4
	}
	if maxTokens <= 0 {
		maxTokens = 200
	}
	return &Generator{summarizer: summarizer.NewFrequencySummarizer(), maxSentences: maxSentences, maxTokens: maxTokens}
}

func (g *Generator) ModelInfo() string { return ModelID }

func (g *Generator) MaxTokens() int { return g.maxTokens }

func (g *Generator) Generate(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	evidence := prompt.Evidence(p)
	if len(evidence) == 0 {
		return noEvidence, nil
	}

	var sentences []string
	for _, e := range evidence {
		sentences = append(sentences, summarizer.Sentences(e)...)
	}
	joined := strings.Join(evidence, " ")
	terms := g.summarizer.KeyTerms(joined, 3)

	var b strings.Builder
	if len(terms) > 0 {
		fmt.Fprintf(&b, "1. Key issues identified: %s across %d related complaint(s).", strings.Join(terms, ", "), len(evidence))
	}
	for _, s := range g.summarizer.Rank(sentences, g.maxSentences) {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(s)
	}
	return truncateWords(b.String(), g.maxTokens), nil
}

func truncateWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ")
}
