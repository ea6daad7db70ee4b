package prompt

import (
	"sort"
	"strings"

	"complaintrag/internal/domain"
)

// MaxContextChunks is how many retrieved chunks go into a prompt.
const MaxContextChunks = 3

// ComplaintPrefix starts every evidence line in the context section.
const ComplaintPrefix = "Complaint: "

const (
	contextDelimiter = "---"
	contextHeader    = "Context from customer complaints:\n"
	questionMarker   = "\nQuestion: "
)

const template = `You are a financial compliance analyst for CrediTrust Financial.
Your task is to analyze customer complaints and provide clear, actionable insights.

Context from customer complaints:
{{context}}

Question: {{question}}

Please provide a comprehensive analysis that includes:
1. Key issues identified
2. Potential compliance risks
3. Recommended actions
4. Business impact assessment

Answer:`

// Build renders the grounded prompt for question from the most relevant chunks.
// The input order is not trusted; chunks are re-sorted by relevance first.
// An empty chunk list yields an empty context section.
func Build(question string, chunks []domain.RetrievedChunk) string {
	sorted := make([]domain.RetrievedChunk, len(chunks))
	copy(sorted, chunks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RelevanceScore > sorted[j].RelevanceScore })
	if len(sorted) > MaxContextChunks {
		sorted = sorted[:MaxContextChunks]
	}

	var lines []string
	for _, c := range sorted {
		lines = append(lines, ComplaintPrefix+flatten(c.Chunk.Text))
		if p := flatten(c.Chunk.Product); p != "" {
			lines = append(lines, "Product: "+p)
		}
		lines = append(lines, contextDelimiter)
	}

	r := strings.NewReplacer("{{context}}", strings.Join(lines, "\n"), "{{question}}", question)
	return r.Replace(template)
}

// Evidence returns the complaint texts quoted in the context section of a
// prompt built by Build. Lines in the question are never evidence.
func Evidence(prompt string) []string {
	start := strings.Index(prompt, contextHeader)
	if start < 0 {
		return nil
	}
	section := prompt[start+len(contextHeader):]
	if end := strings.Index(section, questionMarker); end >= 0 {
		section = section[:end]
	}
	var out []string
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, ComplaintPrefix) {
			out = append(out, strings.TrimPrefix(line, ComplaintPrefix))
		}
	}
	return out
}

// flatten collapses runs of whitespace, newlines included, so each chunk
// renders as a single context line.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
