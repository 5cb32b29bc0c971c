package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the monitoring engine.
type Metrics struct {
	// Detections classified, by verdict
	Classifications *prometheus.CounterVec

	// Alerts raised (post-debounce), by kind
	AlertsRaised *prometheus.CounterVec

	// Ticks that failed-closed because the matcher errored
	MatcherFailures prometheus.Counter

	// Access log / alert persistence failures (best-effort writes)
	PersistenceFailures prometheus.Counter

	// Grants removed by the expiry sweep
	GrantsExpired prometheus.Counter

	// Detection tick latency
	TickLatency prometheus.Histogram
}

// New creates a new Metrics instance with all engine metrics registered.
func New() *Metrics {
	return &Metrics{
		Classifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatewatch_classifications_total",
			Help: "Total classified detections by verdict",
		}, []string{"classification"}),

		AlertsRaised: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatewatch_alerts_raised_total",
			Help: "Total alerts raised after debouncing, by kind",
		}, []string{"kind"}),

		MatcherFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatewatch_matcher_failures_total",
			Help: "Total matcher failures degraded to unknown classifications",
		}),

		PersistenceFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatewatch_persistence_failures_total",
			Help: "Total best-effort persistence failures (log and alert writes)",
		}),

		GrantsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatewatch_grants_expired_total",
			Help: "Total visitor grants removed by the expiry sweep",
		}),

		TickLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatewatch_tick_duration_seconds",
			Help:    "Duration of one detection tick through classification and alerting",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
	}
}

// IncClassification records one classified detection.
func (m *Metrics) IncClassification(classification string) {
	if m != nil {
		m.Classifications.WithLabelValues(classification).Inc()
	}
}

// IncAlert records one raised alert.
func (m *Metrics) IncAlert(kind string) {
	if m != nil {
		m.AlertsRaised.WithLabelValues(kind).Inc()
	}
}

// IncMatcherFailure records one matcher error degraded to unknown.
func (m *Metrics) IncMatcherFailure() {
	if m != nil {
		m.MatcherFailures.Inc()
	}
}

// IncPersistenceFailure records one failed best-effort write.
func (m *Metrics) IncPersistenceFailure() {
	if m != nil {
		m.PersistenceFailures.Inc()
	}
}

// AddGrantsExpired records grants removed by one sweep.
func (m *Metrics) AddGrantsExpired(n int) {
	if m != nil && n > 0 {
		m.GrantsExpired.Add(float64(n))
	}
}

// ObserveTickLatency records the duration of one detection tick.
func (m *Metrics) ObserveTickLatency(d time.Duration) {
	if m != nil {
		m.TickLatency.Observe(d.Seconds())
	}
}
