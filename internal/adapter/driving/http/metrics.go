package httphandler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's Prometheus collectors on a private
// registry so tests can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	inFlight      prometheus.Gauge
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	webhookEvents *prometheus.CounterVec
	chatMessages  *prometheus.CounterVec
	downloads     *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors, including the Go runtime
// and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "automatrix",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "automatrix",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "automatrix",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "automatrix",
			Subsystem: "billing",
			Name:      "webhook_events_total",
			Help:      "Payment webhook deliveries by event kind and outcome.",
		}, []string{"kind", "outcome"}),
		chatMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "automatrix",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Chat messages by outcome.",
		}, []string{"outcome"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "automatrix",
			Subsystem: "workflows",
			Name:      "downloads_total",
			Help:      "Workflow download attempts by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.inFlight,
		m.requests,
		m.duration,
		m.webhookEvents,
		m.chatMessages,
		m.downloads,
	)
	return m
}

// Handler serves the Prometheus exposition format for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) webhook(kind, outcome string) {
	m.webhookEvents.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) chat(outcome string) {
	m.chatMessages.WithLabelValues(outcome).Inc()
}

func (m *Metrics) download(outcome string) {
	m.downloads.WithLabelValues(outcome).Inc()
}
