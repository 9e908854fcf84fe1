// Package observability holds the console's Prometheus metrics.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// API gateway
	UpstreamCallsTotal   *prometheus.CounterVec
	UpstreamCallDuration *prometheus.HistogramVec

	// Guard
	SessionsRejectedTotal prometheus.Counter
}

// NewMetrics registers every metric on a fresh registry, so several
// instances may live side by side in tests.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopconsole_http_requests_total",
				Help: "Total number of HTTP requests served by the console",
			},
			[]string{"method", "route", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shopconsole_http_request_duration_seconds",
				Help:    "Duration of console HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shopconsole_http_requests_in_flight",
				Help: "Number of console HTTP requests currently being processed",
			},
		),

		UpstreamCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopconsole_upstream_calls_total",
				Help: "Total number of calls to the API gateway",
			},
			[]string{"operation", "status"},
		),

		UpstreamCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shopconsole_upstream_call_duration_seconds",
				Help:    "Duration of API gateway calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		SessionsRejectedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shopconsole_sessions_rejected_total",
				Help: "Sessions cleared because the token was missing, malformed or expired",
			},
		),
	}
}

// ObserveUpstreamCall records one API gateway call. A zero statusCode means
// no response arrived.
func (m *Metrics) ObserveUpstreamCall(operation string, statusCode int, d time.Duration) {
	status := "none"
	if statusCode != 0 {
		status = strconv.Itoa(statusCode)
	}

	m.UpstreamCallsTotal.WithLabelValues(operation, status).Inc()
	m.UpstreamCallDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// Middleware tracks console requests by route pattern.
func (m *Metrics) Middleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		h.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
