// Package metrics holds the portal's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered on one registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	authOutcomes  *prometheus.CounterVec
	profileSyncs  *prometheus.CounterVec
	formRejected  *prometheus.CounterVec
	sessionEvents *prometheus.CounterVec
}

// New creates collectors on a fresh registry, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examshaala_auth_outcomes_total",
			Help: "Gateway operation outcomes by operation and reason.",
		}, []string{"op", "reason"}),
		profileSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examshaala_profile_sync_total",
			Help: "Profile synchronization results (created, touched, failed).",
		}, []string{"result"}),
		formRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examshaala_form_submissions_rejected_total",
			Help: "Form submissions rejected because one was already in flight.",
		}, []string{"form"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examshaala_session_events_total",
			Help: "Observed sign-in and sign-out events.",
		}, []string{"event"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
		m.authOutcomes, m.profileSyncs, m.formRejected, m.sessionEvents,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// AuthOutcome counts a gateway result. reason is "ok" on success.
func (m *Metrics) AuthOutcome(op, reason string) {
	if m == nil {
		return
	}
	m.authOutcomes.WithLabelValues(op, reason).Inc()
}

// ProfileSync counts a profile synchronization result.
func (m *Metrics) ProfileSync(result string) {
	if m == nil {
		return
	}
	m.profileSyncs.WithLabelValues(result).Inc()
}

// FormRejected counts a submission refused by the in-flight guard.
func (m *Metrics) FormRejected(form string) {
	if m == nil {
		return
	}
	m.formRejected.WithLabelValues(form).Inc()
}

// SessionEvent counts a sign-in or sign-out.
func (m *Metrics) SessionEvent(event string) {
	if m == nil {
		return
	}
	m.sessionEvents.WithLabelValues(event).Inc()
}

// Instrument measures request count, latency and in-flight requests.
// pathLabel maps a request to a bounded label; nil uses the URL path.
func (m *Metrics) Instrument(next http.Handler, pathLabel func(*http.Request) string) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if pathLabel != nil {
			path = pathLabel(r)
		}

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.code)
		m.httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
