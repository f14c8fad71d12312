package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.OrderCreated()
	m.OrderCreated()
	m.Payment("CASH", "completed")
	m.KOTPrintJob("enqueued")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OrdersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Payments.WithLabelValues("CASH", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KOTPrintJobs.WithLabelValues("enqueued")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderCreated()
		m.ObserveRequest("GET", "/health", "200", 0.01)
		m.StockMovement("PURCHASE")
	})
}
