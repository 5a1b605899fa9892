package http

import (
	"net/http"
	"strconv"

	"github.com/aretw0/atlas/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	validations *prometheus.CounterVec
	violations  *prometheus.CounterVec
}

// NewMetrics creates collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlas_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlas_validations_total",
				Help: "Total number of validation runs by outcome",
			},
			[]string{"result"},
		),
		violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlas_violations_total",
				Help: "Total number of violations found by kind",
			},
			[]string{"kind"},
		),
	}
	m.registry.MustRegister(m.requests, m.validations, m.violations)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveReport records the outcome of one validation.
func (m *Metrics) ObserveReport(rep *validator.Report) {
	result := "clean"
	switch {
	case !rep.OK():
		result = "fatal"
	case !rep.Clean():
		result = "warnings"
	}
	m.validations.WithLabelValues(result).Inc()
	for _, v := range rep.Violations {
		m.violations.WithLabelValues(string(v.Kind())).Inc()
	}
}

// instrument counts requests by chi route pattern.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
