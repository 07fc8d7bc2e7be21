package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "tokgate"

// Handshake methods and results used as label values.
const (
	MethodPassword = "password"
	MethodTicket   = "ticket"
	MethodNone     = "none"

	ResultSuccess     = "success"
	ResultRejected    = "rejected"
	ResultRateLimited = "rate_limited"
	ResultError       = "error"
)

// Registry holds all application metrics.
//
// A nil *Registry is valid: every recording method is a no-op, so
// components can be built without metrics in tests.
type Registry struct {
	reg *prometheus.Registry

	TicketsRegistered prometheus.Counter
	TicketsConsumed   prometheus.Counter
	TicketsSwept      prometheus.Counter
	SweepDuration     prometheus.Histogram

	HandshakesTotal   *prometheus.CounterVec
	ConnectionsActive prometheus.Gauge
	MessagesReceived  prometheus.Counter
}

// NewRegistry creates a registry with the application metrics and the
// standard Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Registry{
		reg: reg,
		TicketsRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tickets_registered_total",
			Help:      "Total number of reconnection tickets registered.",
		}),
		TicketsConsumed: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tickets_consumed_total",
			Help:      "Total number of tickets redeemed by a reconnecting client.",
		}),
		TicketsSwept: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tickets_swept_total",
			Help:      "Total number of expired tickets evicted by the sweeper.",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of ticket expiry sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		HandshakesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "handshakes_total",
			Help:      "Total number of connection handshakes by method and result.",
		}, []string{"method", "result"}),
		ConnectionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "connections_active",
			Help:      "Number of authenticated connections currently open.",
		}),
		MessagesReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "messages_received_total",
			Help:      "Total number of messages received on authenticated connections.",
		}),
	}
}

// Register adds an extra collector to the registry.
func (r *Registry) Register(c prometheus.Collector) error {
	if r == nil {
		return nil
	}
	return r.reg.Register(c)
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns the HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// TicketRegistered records a ticket registration.
func (r *Registry) TicketRegistered() {
	if r != nil {
		r.TicketsRegistered.Inc()
	}
}

// TicketConsumed records a successful ticket redemption.
func (r *Registry) TicketConsumed() {
	if r != nil {
		r.TicketsConsumed.Inc()
	}
}

// ObserveSweep records one sweep pass.
func (r *Registry) ObserveSweep(evicted int, took time.Duration) {
	if r == nil {
		return
	}
	r.TicketsSwept.Add(float64(evicted))
	r.SweepDuration.Observe(took.Seconds())
}

// Handshake records a handshake outcome.
func (r *Registry) Handshake(method, result string) {
	if r != nil {
		r.HandshakesTotal.WithLabelValues(method, result).Inc()
	}
}

// ConnectionOpened increments the live connection gauge.
func (r *Registry) ConnectionOpened() {
	if r != nil {
		r.ConnectionsActive.Inc()
	}
}

// ConnectionClosed decrements the live connection gauge.
func (r *Registry) ConnectionClosed() {
	if r != nil {
		r.ConnectionsActive.Dec()
	}
}

// MessageReceived counts one inbound message.
func (r *Registry) MessageReceived() {
	if r != nil {
		r.MessagesReceived.Inc()
	}
}
