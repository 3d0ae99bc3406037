package completion

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	modeGenerate = "generate"
	modeValidate = "validate"
)

// Metrics records completion call outcomes. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the completion collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rehearse_completion_requests_total",
			Help: "Completion calls by mode and outcome.",
		}, []string{"mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rehearse_completion_duration_seconds",
			Help:    "Completion call latency including retries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *Metrics) observe(mode string, kind Kind, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if kind != "" {
		outcome = string(kind)
	}
	m.requests.WithLabelValues(mode, outcome).Inc()
	if elapsed > 0 {
		m.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
	}
}
