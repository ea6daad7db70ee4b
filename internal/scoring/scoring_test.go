package scoring

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"complaintrag/internal/domain"
)

func TestHeuristicScorer(t *testing.T) {
	s := NewHeuristicScorer()

	assert.InDelta(t, 0.15, s.Score("", ""), 1e-9)
	assert.InDelta(t, 0.58, s.Score("1. Customer complaint about product risk", ""), 1e-9)

	full := "1. " + strings.Join(DomainTerms, " ") + strings.Repeat(" detail", 10)
	assert.InDelta(t, 1.0, s.Score(full, ""), 1e-9)
}

func TestHeuristicScorer_AlwaysInRange(t *testing.T) {
	s := NewHeuristicScorer()
	inputs := []string{"", " ", "0", "ÜNICODE ✓ 日本語", strings.Repeat("compliance risk 9 ", 1000), "\x00\xff"}
	for _, in := range inputs {
		v := s.Score(in, in)
		assert.GreaterOrEqual(t, v, 0.0, in)
		assert.LessOrEqual(t, v, 1.0, in)
	}
}

func TestKeywordExplainer(t *testing.T) {
	e := NewKeywordExplainer()
	answer := "Customer support failed; the product had a risk of fraud and a legal violation under federal law."

	r := e.Explain(answer, "one two three")
	assert.Equal(t, 3, r.InputTokens)
	assert.Equal(t, len(strings.Fields(answer)), r.OutputTokens)
	assert.Equal(t, domain.QualityMedium, r.ResponseQuality)
	// financial_risk also matches but only the first three topics are kept
	assert.Equal(t, []string{"customer_service", "compliance", "product_issues"}, r.KeyTopics)
	assert.Equal(t, []string{"fraud", "violation"}, r.ComplianceIndicators.HighRiskTerms)
	assert.Equal(t, []string{"federal", "law"}, r.ComplianceIndicators.RegulatoryMentions)
	assert.Empty(t, r.ComplianceIndicators.CustomerRights)
	assert.NotNil(t, r.ComplianceIndicators.CustomerRights)
}

func TestKeywordExplainer_TopicsBounded(t *testing.T) {
	e := NewKeywordExplainer()
	allowed := map[string]bool{}
	for _, tp := range DefaultTopics {
		allowed[tp.Name] = true
	}
	for _, in := range []string{"", "fix", "service compliance product risk resolution", "nothing relevant"} {
		r := e.Explain(in, "")
		assert.LessOrEqual(t, len(r.KeyTopics), MaxTopics)
		for _, tp := range r.KeyTopics {
			assert.True(t, allowed[tp], tp)
		}
	}
	assert.Equal(t, []string{"resolution"}, e.Explain("we will fix it", "").KeyTopics)
}

func TestQuality(t *testing.T) {
	assert.Equal(t, domain.QualityLow, Quality(strings.Repeat("a", 50)))
	assert.Equal(t, domain.QualityMedium, Quality(strings.Repeat("a", 51)))
	assert.Equal(t, domain.QualityMedium, Quality(strings.Repeat("a", 100)))
	assert.Equal(t, domain.QualityHigh, Quality(strings.Repeat("a", 101)))
}

type panickingScorer struct{}

func (panickingScorer) Score(string, string) float64 { panic("boom") }

type nanScorer struct{}

func (nanScorer) Score(string, string) float64 { return math.NaN() }

type panickingExplainer struct{}

func (panickingExplainer) Explain(string, string) domain.ExplainabilityReport { panic("boom") }

func TestSafeScore(t *testing.T) {
	assert.Equal(t, NeutralConfidence, SafeScore(panickingScorer{}, "a", "p", nil))
	assert.Equal(t, NeutralConfidence, SafeScore(nanScorer{}, "a", "p", nil))
	assert.InDelta(t, 0.15, SafeScore(NewHeuristicScorer(), "", "", nil), 1e-9)
}

func TestSafeExplain(t *testing.T) {
	r := SafeExplain(panickingExplainer{}, "a", "p", nil)
	assert.Equal(t, EmptyReport(), r)
	assert.Empty(t, r.KeyTopics)
}
