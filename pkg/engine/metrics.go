package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mercator-hq/janus/pkg/decision"
)

// Metrics holds the engine's prometheus instruments. A nil *Metrics is a
// valid no-op, so the engine can run unmetered in tests and embedded use.
type Metrics struct {
	decisions *prometheus.CounterVec
	reasons   *prometheus.CounterVec
	degraded  *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics registers the engine metrics with the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the engine metrics with a custom registerer.
// Tests use a fresh registry per case to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "janus",
			Subsystem: "engine",
			Name:      "decisions_total",
			Help:      "Decisions produced, by outcome.",
		}, []string{"outcome"}),

		reasons: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "janus",
			Subsystem: "engine",
			Name:      "reason_codes_total",
			Help:      "Reason codes attached to decisions.",
		}, []string{"reason"}),

		degraded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "janus",
			Subsystem: "engine",
			Name:      "degraded_evaluations_total",
			Help:      "Evaluations that fell back to a conservative default because a store was unreachable.",
		}, []string{"store"}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "janus",
			Subsystem: "engine",
			Name:      "evaluation_duration_seconds",
			Help:      "Wall-clock duration of the evaluation pipeline.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// observeDecision records a finished decision.
func (m *Metrics) observeDecision(d *decision.Decision) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(d.Outcome)).Inc()
	for _, r := range d.Reasons {
		m.reasons.WithLabelValues(string(r)).Inc()
	}
	m.duration.Observe(d.EvaluationTime.Seconds())
}

// observeDegraded records a store fallback.
func (m *Metrics) observeDegraded(store string) {
	if m == nil {
		return
	}
	m.degraded.WithLabelValues(store).Inc()
}

// Collectors exposes the instruments for callers that wire their own
// registry handler.
func (m *Metrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{m.decisions, m.reasons, m.degraded, m.duration}
}
