package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the HTTP surface and the
// outbound collaborator calls.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec   // labels: method, path, status
	RequestDuration  *prometheus.HistogramVec // labels: method, path
	UpstreamRequests *prometheus.CounterVec   // labels: upstream, outcome={success,error,fallback}
	ReportsInStore   prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resqconnect",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route template and status code.",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "resqconnect",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resqconnect",
			Name:      "upstream_requests_total",
			Help:      "Collaborator API calls by upstream and outcome.",
		}, []string{"upstream", "outcome"}),
		ReportsInStore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "resqconnect",
			Name:      "reports_in_store",
			Help:      "Current number of reports held by the store.",
		}),
	}
}

// NewMetrics creates and registers all collectors with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.UpstreamRequests,
		m.ReportsInStore,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// ObserveUpstream records the outcome of one collaborator call. Safe to call
// on a nil receiver so handlers built by hand in tests need no wiring.
func (m *Metrics) ObserveUpstream(upstream, outcome string) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(upstream, outcome).Inc()
}

// Middleware records request counts and latencies against the mux route
// template, so /reports/{report_id} stays a single series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}
		m.RequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
