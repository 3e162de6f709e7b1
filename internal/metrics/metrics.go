package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns its registry so tests can build as many as they like.
// Every helper is safe on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	BookingsTotal     *prometheus.CounterVec
	TransitionsTotal  *prometheus.CounterVec
	WaitlistOpsTotal  *prometheus.CounterVec
	LockWaitDuration  prometheus.Histogram
	TxRetriesTotal    prometheus.Counter
	NotifyDropped     prometheus.Counter
	AuditDropped      prometheus.Counter
	GatewayCallsTotal *prometheus.CounterVec
}

func NewCollector(serviceName string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Collector{
		registry: reg,

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: f.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		BookingsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking and reschedule attempts by operation and outcome code.",
		}, []string{"operation", "outcome"}),

		TransitionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "scheduling",
			Name:      "transitions_total",
			Help:      "Appointment status transitions by target status.",
		}, []string{"status"}),

		WaitlistOpsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "waitlist",
			Name:      "operations_total",
			Help:      "Waitlist operations by operation and outcome code.",
		}, []string{"operation", "outcome"}),

		LockWaitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "lock",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for a schedule lock.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 3.0},
		}),

		TxRetriesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "db",
			Name:      "tx_retries_total",
			Help:      "Transactions retried after a serialization failure or deadlock.",
		}),

		NotifyDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "notify",
			Name:      "dropped_total",
			Help:      "Notifications dropped due to a full queue. Alert if non-zero.",
		}),

		AuditDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),

		GatewayCallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "payment",
			Name:      "gateway_calls_total",
			Help:      "Payment gateway calls by processor and result.",
		}, []string{"processor", "result"}),
	}
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Booking(operation, outcome string) {
	if c == nil {
		return
	}
	c.BookingsTotal.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) Transition(status string) {
	if c == nil {
		return
	}
	c.TransitionsTotal.WithLabelValues(status).Inc()
}

func (c *Collector) Waitlist(operation, outcome string) {
	if c == nil {
		return
	}
	c.WaitlistOpsTotal.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) LockWaited(seconds float64) {
	if c == nil {
		return
	}
	c.LockWaitDuration.Observe(seconds)
}

func (c *Collector) TxRetried() {
	if c == nil {
		return
	}
	c.TxRetriesTotal.Inc()
}

func (c *Collector) NotificationDropped() {
	if c == nil {
		return
	}
	c.NotifyDropped.Inc()
}

func (c *Collector) AuditEventDropped() {
	if c == nil {
		return
	}
	c.AuditDropped.Inc()
}

func (c *Collector) GatewayCall(processor, result string) {
	if c == nil {
		return
	}
	c.GatewayCallsTotal.WithLabelValues(processor, result).Inc()
}
