// Package metrics exposes the service's Prometheus instruments. A nil
// *Metrics is valid and records nothing, which keeps tests and tools free of
// registry plumbing.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eventsphere/event-service/internal/domain"
)

type Metrics struct {
	reservations *prometheus.CounterVec
	admissions   *prometheus.CounterVec
	dispatches   *prometheus.CounterVec
	rateLimited  *prometheus.CounterVec
	requests     *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reservations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rsvp_operations_total",
				Help: "RSVP operations by kind and outcome",
			},
			[]string{"operation", "outcome"},
		),
		admissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capacity_ledger_decisions_total",
				Help: "Capacity ledger decisions by outcome",
			},
			[]string{"outcome"},
		),
		dispatches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_dispatches_total",
				Help: "Notification dispatch attempts by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		rateLimited: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
		requests: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

// Outcome labels an operation result by error class.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAccessDenied):
		return "denied"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrTransientStorage):
		return "transient"
	case errors.Is(err, domain.ErrDispatch):
		return "dispatch_failed"
	default:
		return "error"
	}
}

func (m *Metrics) Reservation(operation string, err error) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(operation, Outcome(err)).Inc()
}

func (m *Metrics) Admission(outcome string) {
	if m == nil {
		return
	}
	m.admissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Dispatch(mode string, err error) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(mode, Outcome(err)).Inc()
}

func (m *Metrics) RateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(route).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
