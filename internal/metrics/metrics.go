// Package metrics owns the prometheus collectors of the service. All
// Record methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "library"

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	BooksAdded        prometheus.Counter
	NotifySubscribers prometheus.Gauge
	NotifyDropped     prometheus.Counter
}

// New builds the collectors on a private registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		BooksAdded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "books_added_total",
				Help:      "Total number of books added",
			},
		),
		NotifySubscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "notify",
				Name:      "subscribers",
				Help:      "Active bookAdded subscribers",
			},
		),
		NotifyDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notify",
				Name:      "dropped_total",
				Help:      "Events discarded because a subscriber queue was full",
			},
		),
	}
	m.registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.BooksAdded,
		m.NotifySubscribers,
		m.NotifyDropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) RecordBookAdded() {
	if m == nil {
		return
	}
	m.BooksAdded.Inc()
}

func (m *Metrics) RecordSubscribe() {
	if m == nil {
		return
	}
	m.NotifySubscribers.Inc()
}

func (m *Metrics) RecordUnsubscribe() {
	if m == nil {
		return
	}
	m.NotifySubscribers.Dec()
}

func (m *Metrics) RecordDropped() {
	if m == nil {
		return
	}
	m.NotifyDropped.Inc()
}
