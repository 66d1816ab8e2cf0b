package http

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventsphere/event-service/internal/domain"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_FirstWriteStartsWindow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 2, time.Minute, zerolog.Nop(), nil)

	mock.ExpectIncr("ratelimit:user:user-1").SetVal(1)
	mock.ExpectExpire("ratelimit:user:user-1", time.Minute).SetVal(true)

	rec := serve(limiter.Middleware(okHandler()), http.MethodPost, "/rsvps", "", userPrincipal)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 2, 30*time.Second, zerolog.Nop(), nil)

	mock.ExpectIncr("ratelimit:user:user-1").SetVal(3)

	rec := serve(limiter.Middleware(okHandler()), http.MethodPut, "/rsvps/abc", "", userPrincipal)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, codeRateLimited, decodeError(t, rec).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_AnonymousCallersKeyedByIP(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 5, time.Minute, zerolog.Nop(), nil)

	// httptest requests come from 192.0.2.1.
	mock.ExpectIncr("ratelimit:ip:192.0.2.1").SetVal(2)

	rec := serve(limiter.Middleware(okHandler()), http.MethodPost, "/rsvps", "", domain.Principal{})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_FailsOpenOnRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 1, time.Minute, zerolog.Nop(), nil)

	mock.ExpectIncr("ratelimit:user:user-1").SetErr(errors.New("connection refused"))

	rec := serve(limiter.Middleware(okHandler()), http.MethodDelete, "/rsvps/abc", "", userPrincipal)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_ReadsAreNotCounted(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 1, time.Minute, zerolog.Nop(), nil)

	rec := serve(limiter.Middleware(okHandler()), http.MethodGet, "/events", "", userPrincipal)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_NilLimiterPassesThrough(t *testing.T) {
	var limiter *RateLimiter

	rec := serve(limiter.Middleware(okHandler()), http.MethodPost, "/rsvps", "", userPrincipal)

	assert.Equal(t, http.StatusOK, rec.Code)
}
