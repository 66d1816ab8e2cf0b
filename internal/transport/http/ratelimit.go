package http

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eventsphere/event-service/internal/metrics"
)

// RateLimiter is a fixed-window counter per caller kept in Redis, so every
// instance behind a load balancer shares one allowance. Only writes are counted.
type RateLimiter struct {
	client  redis.Cmdable
	limit   int64
	window  time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewRateLimiter(client redis.Cmdable, limit int, window time.Duration, logger zerolog.Logger, m *metrics.Metrics) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		client:  client,
		limit:   int64(limit),
		window:  window,
		logger:  logger,
		metrics: m,
	}
}

// Allow counts one request for identity. Redis failures let the request
// through.
func (l *RateLimiter) Allow(ctx context.Context, identity string) bool {
	key := "ratelimit:" + identity
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("rate limiter expire failed")
		}
	}
	return count <= l.limit
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l == nil || l.limit <= 0 || !isWrite(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		if !l.Allow(r.Context(), callerIdentity(r)) {
			l.metrics.RateLimited(routeLabel(r.URL.Path))
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			writeError(w, http.StatusTooManyRequests, codeRateLimited, "too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func callerIdentity(r *http.Request) string {
	if p := PrincipalFrom(r.Context()); p.Authenticated() {
		return "user:" + p.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
