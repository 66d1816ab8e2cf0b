package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventsphere/event-service/internal/metrics"
)

// RequestLogger logs each request with its status and latency and records the
// latency histogram.
func RequestLogger(next http.Handler, logger zerolog.Logger, m *metrics.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := routeLabel(r.URL.Path)
		m.ObserveRequest(r.Method, route, rec.status, elapsed)

		event := logger.Info()
		if rec.status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", rec.status).
			Dur("duration", elapsed).
			Msg("request")
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

// routeLabel collapses resource ids so metric labels stay bounded.
func routeLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch parts[0] {
	case "events", "schedules", "rsvps", "notifications", "health", "metrics":
	default:
		return "other"
	}
	if len(parts) > 1 && parts[0] != "notifications" {
		parts[1] = ":id"
	}
	return "/" + strings.Join(parts, "/")
}
