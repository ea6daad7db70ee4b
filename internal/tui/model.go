package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"complaintrag/internal/domain"
	"complaintrag/internal/summarizer"
)

// AskPort is the TUI-facing subset of the RAG service.
type AskPort interface {
	Ask(ctx context.Context, question string) (*domain.PipelineResult, error)
}

// Session is the chat history with its running averages.
type Session struct {
	History         []*domain.PipelineResult
	totalResponseMS float64
	totalConfidence float64
}

// Add appends r to the history.
func (s *Session) Add(r *domain.PipelineResult) {
	s.History = append(s.History, r)
	s.totalResponseMS += r.PerformanceMetrics.ResponseTimeMS
	s.totalConfidence += r.ConfidenceScore
}

// Averages returns mean response time and confidence; zeros for an empty session.
func (s *Session) Averages() (responseMS, confidence float64) {
	n := float64(len(s.History))
	if n == 0 {
		return 0, 0
	}
	return s.totalResponseMS / n, s.totalConfidence / n
}

type answerMsg struct {
	result *domain.PipelineResult
	err    error
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	service  AskPort
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	session  Session
	header   string
	status   string
	cursor   int
	sources  int
	busy     bool
	ready    bool
}

// New creates a chat model. header is shown above the conversation,
// sources is how many retrieved chunks to show per answer.
func New(service AskPort, header string, sources int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about customer complaints and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	if sources <= 0 {
		sources = 2
	}
	return Model{
		service:  service,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		header:   header,
		status:   "Ready. Up/Down browse history, Ctrl+C quits.",
		sources:  sources,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(q string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.service.Ask(context.Background(), q)
		return answerMsg{result: res, err: err}
	}
}

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 2 + qh + 1 // header, stats, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.session.Add(msg.result)
		m.cursor = len(m.session.History) - 1
		m.status = fmt.Sprintf("Answered in %.0fms (%s)", msg.result.PerformanceMetrics.ResponseTimeMS, msg.result.PerformanceMetrics.PerformanceGrade)
		m.viewport.SetContent(m.renderCurrent())
		m.viewport.GotoTop()
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.input.SetValue("")
			m.status = fmt.Sprintf("Analyzing %q", q)
			return m, tea.Batch(m.ask(q), m.spinner.Tick)
		case "up":
			if len(m.session.History) > 0 {
				m.cursor = (m.cursor - 1 + len(m.session.History)) % len(m.session.History)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "down":
			if len(m.session.History) > 0 {
				m.cursor = (m.cursor + 1) % len(m.session.History)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the header, the selected exchange, the input and the status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("CrediTrust Complaint Analysis")
	sub := dimStyle.Render(m.header)
	avgMS, avgConf := m.session.Averages()
	stats := dimStyle.Render(fmt.Sprintf("Questions: %d  Avg response: %.0fms  Avg confidence: %.1f%%",
		len(m.session.History), avgMS, avgConf*100))
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + sub + "\n" + stats + "\n" + resultBoxStyle.Render(m.viewport.View()) + "\n" +
		queryBoxStyle.Render(m.input.View()) + "\n" + status
}

func (m Model) renderCurrent() string {
	if len(m.session.History) == 0 {
		return "No questions yet."
	}
	return renderResult(m.session.History[m.cursor], m.cursor+1, len(m.session.History), m.sources)
}

func renderResult(r *domain.PipelineResult, pos, total, sources int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", labelStyle.Render(fmt.Sprintf("Q%d/%d", pos, total)), r.Question)
	b.WriteString(r.Answer)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Confidence %.1f%% (%s)  Quality %s  Model %s\n",
		r.ConfidenceScore*100, r.PerformanceMetrics.ReliabilityScore, r.Explainability.ResponseQuality, r.ModelUsed)
	if len(r.Explainability.KeyTopics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(r.Explainability.KeyTopics, ", "))
	}
	if risk := r.Explainability.ComplianceIndicators.HighRiskTerms; len(risk) > 0 {
		b.WriteString(riskStyle.Render("High risk terms: "+strings.Join(risk, ", ")) + "\n")
	}
	for i, c := range r.RetrievedChunks {
		if i == sources {
			break
		}
		fmt.Fprintf(&b, "\n%s  relevance=%.3f\n%s\n",
			labelStyle.Render(fmt.Sprintf("Source %d: %s", c.Rank, c.Chunk.Product)),
			c.RelevanceScore, highlightBestSentence(c.Chunk.Text, r.Question))
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	riskStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := summarizer.Sentences(text)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
