package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the qualification and HTTP collectors. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	FlowsStarted        prometheus.Counter
	FlowOutcomes        *prometheus.CounterVec
	ValidationFailures  *prometheus.CounterVec
	PersistenceFailures *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FlowsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "donorlink_qualification_flows_started_total",
			Help: "Qualification flows started",
		}),
		FlowOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "donorlink_qualification_outcomes_total",
			Help: "Terminal qualification outcomes by status and deciding rule",
		}, []string{"status", "rule"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "donorlink_qualification_validation_failures_total",
			Help: "Rejected answers by question id",
		}, []string{"question"}),
		PersistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "donorlink_qualification_persistence_failures_total",
			Help: "Failed terminal writes by operation",
		}, []string{"op"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "donorlink_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method", "code"}),
	}
	reg.MustRegister(m.FlowsStarted, m.FlowOutcomes, m.ValidationFailures, m.PersistenceFailures, m.HTTPDuration)
	return m
}

func (m *Metrics) IncFlowStarted() {
	if m != nil {
		m.FlowsStarted.Inc()
	}
}

func (m *Metrics) IncOutcome(status, rule string) {
	if m != nil {
		m.FlowOutcomes.WithLabelValues(status, rule).Inc()
	}
}

func (m *Metrics) IncValidationFailure(questionID string) {
	if m != nil {
		m.ValidationFailures.WithLabelValues(questionID).Inc()
	}
}

func (m *Metrics) IncPersistenceFailure(op string) {
	if m != nil {
		m.PersistenceFailures.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) ObserveHTTP(route, method, code string, d time.Duration) {
	if m != nil {
		m.HTTPDuration.WithLabelValues(route, method, code).Observe(d.Seconds())
	}
}
