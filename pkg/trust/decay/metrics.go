package decay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the sweep's prometheus instruments. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	swept    prometheus.Counter
	failed   prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics registers the sweep metrics with the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the sweep metrics with a custom registerer.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		swept: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "janus",
			Subsystem: "trust_decay",
			Name:      "profiles_swept_total",
			Help:      "Trust profiles shrunk by the decay sweep.",
		}),

		failed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "janus",
			Subsystem: "trust_decay",
			Name:      "profile_failures_total",
			Help:      "Per-profile update failures during decay sweeps.",
		}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "janus",
			Subsystem: "trust_decay",
			Name:      "sweep_duration_seconds",
			Help:      "Wall-clock duration of decay sweeps.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// observeSweep records a finished sweep.
func (m *Metrics) observeSweep(stats *Stats) {
	if m == nil {
		return
	}
	m.swept.Add(float64(stats.Decayed))
	m.failed.Add(float64(stats.Errors))
	m.duration.Observe(stats.Duration.Seconds())
}
