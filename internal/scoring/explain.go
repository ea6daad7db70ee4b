package scoring

import (
	"strings"
	"unicode/utf8"

	"complaintrag/internal/domain"
)

// MaxTopics bounds ExplainabilityReport.KeyTopics.
const MaxTopics = 3

// Topic is a named keyword set.
type Topic struct {
	Name     string
	Keywords []string
}

// DefaultTopics in declaration order; earlier topics win when more than MaxTopics match.
var DefaultTopics = []Topic{
	{Name: "customer_service", Keywords: []string{"service", "support", "assistance"}},
	{Name: "compliance", Keywords: []string{"compliance", "regulation", "legal"}},
	{Name: "product_issues", Keywords: []string{"product", "feature", "functionality"}},
	{Name: "financial_risk", Keywords: []string{"risk", "exposure", "liability"}},
	{Name: "resolution", Keywords: []string{"resolution", "fix", "solution"}},
}

var (
	highRiskTerms   = []string{"fraud", "unauthorized", "breach", "violation", "illegal"}
	regulatoryTerms = []string{"cfpb", "federal", "state", "regulation", "law"}
)

// KeywordExplainer builds reports by case-insensitive substring matching.
type KeywordExplainer struct {
	topics []Topic
}

func NewKeywordExplainer() *KeywordExplainer {
	return &KeywordExplainer{topics: DefaultTopics}
}

func (e *KeywordExplainer) Explain(answer, prompt string) domain.ExplainabilityReport {
	lower := strings.ToLower(answer)
	return domain.ExplainabilityReport{
		InputTokens:     len(strings.Fields(prompt)),
		OutputTokens:    len(strings.Fields(answer)),
		ResponseQuality: Quality(answer),
		KeyTopics:       e.topicsIn(lower),
		ComplianceIndicators: domain.ComplianceIndicators{
			HighRiskTerms:        matching(lower, highRiskTerms),
			RegulatoryMentions:   matching(lower, regulatoryTerms),
			CustomerRights:       []string{},
			ResolutionTimeframes: []string{},
		},
	}
}

// Quality buckets an answer by length: >100 high, >50 medium, else low.
func Quality(answer string) domain.ResponseQuality {
	switch n := utf8.RuneCountInString(answer); {
	case n > 100:
		return domain.QualityHigh
	case n > 50:
		return domain.QualityMedium
	default:
		return domain.QualityLow
	}
}

func (e *KeywordExplainer) topicsIn(lower string) []string {
	topics := []string{}
	for _, t := range e.topics {
		if len(topics) == MaxTopics {
			break
		}
		if len(matching(lower, t.Keywords)) > 0 {
			topics = append(topics, t.Name)
		}
	}
	return topics
}

func matching(lower string, terms []string) []string {
	out := []string{}
	for _, t := range terms {
		if strings.Contains(lower, t) {
			out = append(out, t)
		}
	}
	return out
}

// EmptyReport is the neutral report used when explanation fails.
func EmptyReport() domain.ExplainabilityReport {
	return domain.ExplainabilityReport{
		ResponseQuality: domain.QualityLow,
		KeyTopics:       []string{},
		ComplianceIndicators: domain.ComplianceIndicators{
			HighRiskTerms:        []string{},
			RegulatoryMentions:   []string{},
			CustomerRights:       []string{},
			ResolutionTimeframes: []string{},
		},
	}
}
