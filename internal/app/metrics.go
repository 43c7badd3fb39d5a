package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for command metrics.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Metrics holds the Prometheus collectors for session activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	commands        *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	loadDuration    *prometheus.HistogramVec
	activeSessions  prometheus.Gauge
}

// NewMetrics registers the session collectors with reg.
// Pass prometheus.DefaultRegisterer to expose them on /-/metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quote_session",
			Name:      "commands_total",
			Help:      "Session commands by name and outcome.",
		}, []string{"command", "outcome"}),
		persistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quote_session",
			Name:      "persistence_failures_total",
			Help:      "Durable store operations that failed, by operation.",
		}, []string{"op"}),
		loadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quote_session",
			Name:      "load_duration_seconds",
			Help:      "Time spent loading a quote collection.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "outcome"}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "quote_session",
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
	}
}

func outcome(err error) string {
	if err != nil {
		return outcomeError
	}

	return outcomeOK
}

func (m *Metrics) command(name string, err error) {
	if m == nil {
		return
	}

	m.commands.WithLabelValues(name, outcome(err)).Inc()
}

func (m *Metrics) persistFailure(op string) {
	if m == nil {
		return
	}

	m.persistFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) load(source string, d time.Duration, err error) {
	if m == nil {
		return
	}

	m.loadDuration.WithLabelValues(source, outcome(err)).Observe(d.Seconds())
}

func (m *Metrics) sessions(n int) {
	if m == nil {
		return
	}

	m.activeSessions.Set(float64(n))
}
