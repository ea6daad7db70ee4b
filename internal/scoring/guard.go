package scoring

import (
	"log/slog"
	"math"

	"complaintrag/internal/domain"
	"complaintrag/internal/logging"
)

// NeutralConfidence replaces a score that could not be computed.
const NeutralConfidence = 0.5

// SafeScore runs s and never fails: a panic or a non-finite result yields
// NeutralConfidence, and the result is clamped to [0,1].
func SafeScore(s domain.ConfidenceScorer, answer, prompt string, logger *slog.Logger) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			logging.OrDefault(logger).Warn("confidence scoring failed", slog.Any("panic", r))
			score = NeutralConfidence
		}
	}()
	v := s.Score(answer, prompt)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		logging.OrDefault(logger).Warn("confidence scoring returned non-finite value", slog.Float64("score", v))
		return NeutralConfidence
	}
	return clamp(v)
}

// SafeExplain runs e and returns EmptyReport if it panics.
func SafeExplain(e domain.Explainer, answer, prompt string, logger *slog.Logger) (report domain.ExplainabilityReport) {
	defer func() {
		if r := recover(); r != nil {
			logging.OrDefault(logger).Warn("explainability failed", slog.Any("panic", r))
			report = EmptyReport()
		}
	}()
	return e.Explain(answer, prompt)
}
