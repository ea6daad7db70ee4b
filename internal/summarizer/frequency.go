package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	tokenPattern    = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentencePattern = regexp.MustCompile(`(?m)[^.!?\n]+(?:[.!?]+|$)`)
	// CFPB narratives redact names, dates and amounts as runs of X
	redactionPattern = regexp.MustCompile(`(?i)\bx{2,}\b`)
)

// FrequencySummarizer ranks sentences by word frequency (stopwords filtered).
type FrequencySummarizer struct {
	stopwords map[string]struct{}
}

// NewFrequencySummarizer creates a frequency-based sentence ranker summarizer.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{stopwords: defaultStopwords()}
}

// Sentences splits text into trimmed sentences. A trailing fragment without
// terminal punctuation counts as a sentence; repeated sentences are dropped,
// which matters for overlapping excerpts.
func Sentences(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, m := range sentencePattern.FindAllString(text, -1) {
		s := strings.TrimSpace(m)
		if s == "" || !tokenPattern.MatchString(s) {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Rank picks the maxSentences best sentences, keeping their input order.
func (s *FrequencySummarizer) Rank(sentences []string, maxSentences int) []string {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	if len(sentences) == 0 {
		return nil
	}
	freq := map[string]float64{}
	tokens := make([][]string, len(sentences))
	for i, sent := range sentences {
		tokens[i] = s.tokens(sent)
		for _, tok := range tokens[i] {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i := range sentences {
		sscore := 0.0
		for _, tok := range tokens[i] {
			sscore += freq[tok]
		}
		// Normalize by sentence length to avoid bias
		if l := float64(len(tokens[i])); l > 0 {
			sscore /= math.Sqrt(l)
		}
		scores[i] = pair{i, sscore}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}
	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return out
}

// KeyTerms returns up to n of the most frequent non-stopword terms in text,
// most frequent first and alphabetical among ties.
func (s *FrequencySummarizer) KeyTerms(text string, n int) []string {
	freq := map[string]int{}
	for _, tok := range s.tokens(text) {
		freq[tok]++
	}
	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if n < len(terms) {
		terms = terms[:n]
	}
	return terms
}

func (s *FrequencySummarizer) tokens(text string) []string {
	lower := strings.ToLower(redactionPattern.ReplaceAllString(text, " "))
	var out []string
	for _, tok := range tokenPattern.FindAllString(lower, -1) {
		if _, ok := s.stopwords[tok]; ok || len([]rune(tok)) < 3 {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"i", "me", "my", "we", "our", "you", "your", "they", "them", "their", "he", "she", "his", "her", "had", "has", "have", "did", "does", "not", "no", "all", "any", "also", "would", "could", "there", "what", "which", "when", "who",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
