package observe

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smallnest/langfix/repair"
)

// Metrics is a repair.Listener that records Prometheus metrics.
type Metrics struct {
	attemptsTotal    *prometheus.CounterVec
	invocationsTotal *prometheus.CounterVec
	attemptDuration  *prometheus.HistogramVec
	callsPerRun      prometheus.Histogram
}

var _ repair.Listener = (*Metrics)(nil)

// NewMetrics registers the repair metrics with reg. A nil reg creates
// unregistered metrics.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "repair_attempts_total",
				Help:      "Total number of generation attempts by result",
			},
			[]string{"result"},
		),
		invocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "repair_invocations_total",
				Help:      "Total number of repair loop invocations by outcome",
			},
			[]string{"outcome"},
		),
		attemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "repair_attempt_duration_seconds",
				Help:      "Generation call duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30},
			},
			[]string{"result"},
		),
		callsPerRun: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "repair_calls_per_invocation",
				Help:      "Generation calls made by one invocation",
				Buckets:   []float64{1, 2, 3, 4, 5, 8},
			},
		),
	}
}

// OnRepairEvent implements repair.Listener.
func (m *Metrics) OnRepairEvent(_ context.Context, e repair.Event) {
	switch e.Type {
	case repair.EventAttemptSuccess:
		m.observeAttempt("success", e.Attempt)
		m.finish("success", e.Attempt)
	case repair.EventAttemptFailure:
		m.observeAttempt(string(e.Attempt.Failure), e.Attempt)
	case repair.EventTransportFailure:
		m.observeAttempt(string(repair.FailureTransport), e.Attempt)
		m.finish("transport_failure", e.Attempt)
	case repair.EventExhausted:
		m.finish("exhausted", e.Attempt)
	case repair.EventCancelled:
		m.finish("cancelled", e.Attempt)
	}
}

func (m *Metrics) observeAttempt(result string, a repair.Attempt) {
	m.attemptsTotal.WithLabelValues(result).Inc()
	m.attemptDuration.WithLabelValues(result).Observe(a.Duration.Seconds())
}

// finish records a terminal outcome. a is the last finished attempt, Index -1
// when none ran.
func (m *Metrics) finish(outcome string, a repair.Attempt) {
	m.invocationsTotal.WithLabelValues(outcome).Inc()
	m.callsPerRun.Observe(float64(a.Index + 1))
}
