package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors exported by the API and the print worker.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	OrdersCreated   prometheus.Counter
	OrderFailures   *prometheus.CounterVec
	StockMovements  *prometheus.CounterVec
	InvoicesCreated prometheus.Counter
	Payments        *prometheus.CounterVec
	KOTPrintJobs    *prometheus.CounterVec
}

// New registers every collector on reg under the given name prefix.
func New(prefix string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		OrdersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_orders_created_total",
			Help: "Orders committed",
		}),
		OrderFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_order_failures_total",
				Help: "Order creations rejected, by reason",
			},
			[]string{"reason"},
		),
		StockMovements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_stock_movements_total",
				Help: "Stock movements recorded, by type",
			},
			[]string{"type"},
		),
		InvoicesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_invoices_created_total",
			Help: "Invoices issued",
		}),
		Payments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_payments_total",
				Help: "Payment attempts, by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		KOTPrintJobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_kot_print_jobs_total",
				Help: "Kitchen ticket print jobs, by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) ObserveRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
}

func (m *Metrics) OrderFailed(reason string) {
	if m == nil {
		return
	}
	m.OrderFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) StockMovement(movementType string) {
	if m == nil {
		return
	}
	m.StockMovements.WithLabelValues(movementType).Inc()
}

func (m *Metrics) InvoiceCreated() {
	if m == nil {
		return
	}
	m.InvoicesCreated.Inc()
}

func (m *Metrics) Payment(method, outcome string) {
	if m == nil {
		return
	}
	m.Payments.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) KOTPrintJob(outcome string) {
	if m == nil {
		return
	}
	m.KOTPrintJobs.WithLabelValues(outcome).Inc()
}
