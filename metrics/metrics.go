// Package metrics holds the Prometheus collectors shared by the services and the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rest_gateway"

// Option configures the /metrics endpoint.
type Option struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path" validate:"omitempty,startswith=/"`
}

// Metrics bundles every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Total number of calls from the gateway to a backing service",
			},
			[]string{"service", "outcome"},
		),

		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "duration_seconds",
				Help:      "Duration of calls from the gateway to a backing service",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"component", "route", "code"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"component", "route"},
		),
	}

	reg.MustRegister(m.UpstreamRequests, m.UpstreamDuration, m.HTTPRequests, m.HTTPDuration)

	return m
}

// ObserveUpstream records one call to service that started at start.
func (m *Metrics) ObserveUpstream(service string, start time.Time, err error) {
	if m == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.UpstreamRequests.WithLabelValues(service, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(component, route string, code int, start time.Time) {
	if m == nil {
		return
	}

	m.HTTPRequests.WithLabelValues(component, route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(component, route).Observe(time.Since(start).Seconds())
}

// Handler exposes the collectors registered on g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
