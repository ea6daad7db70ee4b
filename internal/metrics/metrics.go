package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"complaintrag/internal/domain"
)

const namespace = "complaintrag"

// Collectors holds the Prometheus instruments for query answering and index builds.
type Collectors struct {
	responseTime *prometheus.HistogramVec
	confidence   prometheus.Histogram
	queries      *prometheus.CounterVec
	indexChunks  prometheus.Gauge
	buildSeconds prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		responseTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "End-to-end question answering latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10, 30, 60},
		}, []string{"grade"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_confidence",
			Help:      "Heuristic confidence of generated answers.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Questions processed, by outcome and reliability.",
		}, []string{"outcome", "reliability"}),
		indexChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_chunks",
			Help:      "Chunks in the most recently built or loaded index.",
		}),
		buildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Index build and persist duration.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
	reg.MustRegister(c.responseTime, c.confidence, c.queries, c.indexChunks, c.buildSeconds)
	return c
}

// ObserveQuery records a successful answer.
func (c *Collectors) ObserveQuery(m domain.PerformanceMetrics) {
	c.responseTime.WithLabelValues(string(m.PerformanceGrade)).Observe(m.ResponseTimeMS / 1000)
	c.confidence.Observe(m.ConfidenceScore)
	c.queries.WithLabelValues("ok", string(m.ReliabilityScore)).Inc()
}

// ObserveFailure records a question that failed at stage.
func (c *Collectors) ObserveFailure(stage string) {
	c.queries.WithLabelValues("error_"+stage, "").Inc()
}

// ObserveBuild records a finished index build.
func (c *Collectors) ObserveBuild(chunks int, seconds float64) {
	c.indexChunks.Set(float64(chunks))
	c.buildSeconds.Observe(seconds)
}

// SetIndexSize records the population of a loaded index.
func (c *Collectors) SetIndexSize(chunks int) {
	c.indexChunks.Set(float64(chunks))
}
