package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("manager_approve", OutcomeSuccess, 5*time.Millisecond)
	m.ObserveOperation("manager_approve", OutcomeSuccess, time.Millisecond)
	m.ObserveOperation("manager_approve", "INVALID_TRANSITION", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("manager_approve", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("manager_approve", "INVALID_TRANSITION")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OperationLatency))
}

func TestIncrementNotification(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementNotification("inbox", OutcomeSuccess)
	m.IncrementNotification("lark", OutcomeFailure)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("inbox", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("lark", OutcomeFailure)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("create", OutcomeSuccess, time.Second)
		m.IncrementNotification("log", OutcomeSuccess)
	})
}
