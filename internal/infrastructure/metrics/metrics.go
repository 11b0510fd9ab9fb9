// Package metrics exposes prometheus instruments for the workflow and notification paths.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the expense service instruments. A nil *Metrics is a valid no-op.
type Metrics struct {
	// Transitions counts workflow operations by operation and outcome (success or an error kind)
	Transitions *prometheus.CounterVec

	// Notifications counts sink deliveries by sink name and outcome
	Notifications *prometheus.CounterVec

	// OperationLatency tracks service operation durations
	OperationLatency *prometheus.HistogramVec
}

// New registers the instruments with reg. Pass prometheus.DefaultRegisterer in production
// and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "expense_transitions_total",
			Help: "Total workflow operations by operation and outcome",
		}, []string{"operation", "outcome"}),

		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "expense_notifications_total",
			Help: "Total notification deliveries by sink and outcome",
		}, []string{"sink", "outcome"}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "expense_operation_duration_seconds",
			Help:    "Duration of workflow service operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

// ObserveOperation records one finished service operation
func (m *Metrics) ObserveOperation(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(operation, outcome).Inc()
	m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrementNotification records one sink delivery
func (m *Metrics) IncrementNotification(sink, outcome string) {
	if m != nil {
		m.Notifications.WithLabelValues(sink, outcome).Inc()
	}
}
