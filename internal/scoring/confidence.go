package scoring

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DomainTerms is the default vocabulary for the specificity factor.
var DomainTerms = []string{
	"compliance", "risk", "regulation", "financial", "customer",
	"service", "product", "issue", "complaint", "resolution",
}

// HeuristicScorer scores answers by length, domain vocabulary and structure:
//
//	0.3 * min(len/100, 1) + 0.4 * matched/len(terms) + 0.3 * (1 if digits else 0.5)
type HeuristicScorer struct {
	terms []string
}

// NewHeuristicScorer returns a scorer over terms, or DomainTerms when none are given.
func NewHeuristicScorer(terms ...string) *HeuristicScorer {
	if len(terms) == 0 {
		terms = DomainTerms
	}
	lower := make([]string, len(terms))
	for i, t := range terms {
		lower[i] = strings.ToLower(t)
	}
	return &HeuristicScorer{terms: lower}
}

// Score ignores prompt; it is part of the signature so other strategies can use it.
func (h *HeuristicScorer) Score(answer, _ string) float64 {
	length := float64(utf8.RuneCountInString(answer)) / 100
	if length > 1 {
		length = 1
	}

	lower := strings.ToLower(answer)
	matched := 0
	for _, t := range h.terms {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	specificity := float64(matched) / float64(len(h.terms))

	structure := 0.5
	if strings.IndexFunc(answer, unicode.IsDigit) >= 0 {
		structure = 1
	}

	return clamp(length*0.3 + specificity*0.4 + structure*0.3)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
