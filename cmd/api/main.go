package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eventsphere/event-service/internal/app"
	"github.com/eventsphere/event-service/internal/clock"
	"github.com/eventsphere/event-service/internal/config"
	"github.com/eventsphere/event-service/internal/logging"
	"github.com/eventsphere/event-service/internal/metrics"
	"github.com/eventsphere/event-service/internal/notify"
	"github.com/eventsphere/event-service/internal/storage/postgres"
	transporthttp "github.com/eventsphere/event-service/internal/transport/http"
	"github.com/eventsphere/event-service/migrations"
)

const startupTimeout = 10 * time.Second

func main() {
	cfg, notes, err := config.Load()
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	for _, note := range notes {
		logger.Info().Msg(note)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal().Err(err).Msg("db ping")
	}
	applied, err := migrations.Apply(startupCtx, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	for _, name := range applied {
		logger.Info().Str("migration", name).Msg("migration applied")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	clk := clock.NewSystem()
	dispatcher := newDispatcher(startupCtx, cfg.Notify, logger, m, clk)

	eventRepo := postgres.NewEventRepository(pool, cfg.StorageTimeout)
	ledger := app.NewLedger(eventRepo, m)
	eventSvc := app.NewEventService(eventRepo, ledger, clk)

	policy := app.OverlapAllow
	if cfg.RejectOverlaps() {
		policy = app.OverlapReject
	}
	scheduleSvc := app.NewScheduleService(
		postgres.NewScheduleRepository(pool, cfg.StorageTimeout),
		clk,
		app.WithOverlapPolicy(policy),
	)

	reservationSvc := app.NewReservationService(
		postgres.NewRSVPRepository(pool, cfg.StorageTimeout),
		ledger,
		clk,
		app.WithNotifier(dispatcher, cfg.Notify.Timeout),
		app.WithReservationLogger(logging.Component(logger, "reservations")),
		app.WithReservationMetrics(m),
	)

	if cfg.JWTSecret == "" {
		logger.Warn().Msg("JWT_SECRET not set, every bearer token will be rejected")
	}
	auth := transporthttp.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)

	var limiter *transporthttp.RateLimiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(startupCtx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, rate limiter will fail open")
		}
		limiter = transporthttp.NewRateLimiter(rdb, cfg.RateLimitPerWindow, cfg.RateLimitWindow,
			logging.Component(logger, "ratelimit"), m)
	} else {
		logger.Warn().Msg("REDIS_URL not set, rate limiting disabled")
	}

	mux := http.NewServeMux()
	mux.Handle("/health", transporthttp.HandleHealth(pool))
	mux.Handle("/metrics", metrics.Handler(registry))
	mux.Handle("/events", transporthttp.HandleEvents(eventSvc))
	mux.Handle("/events/", transporthttp.HandleEvent(eventSvc))
	mux.Handle("/schedules", transporthttp.HandleSchedules(scheduleSvc))
	mux.Handle("/schedules/", transporthttp.HandleSchedule(scheduleSvc))
	mux.Handle("/rsvps", transporthttp.HandleRSVPs(reservationSvc))
	mux.Handle("/rsvps/", transporthttp.HandleRSVP(reservationSvc))
	mux.Handle("/notifications/reminders", transporthttp.HandleReminders(dispatcher))
	mux.Handle("/", transporthttp.NotFoundHandler())

	corsPolicy := transporthttp.CORSPolicy{
		Origins: cfg.CORSOrigins,
		Headers: cfg.CORSHeaders,
		MaxAge:  cfg.CORSMaxAge,
	}
	handler := transporthttp.RequestLogger(
		transporthttp.CORS(corsPolicy, auth.Middleware(limiter.Middleware(mux))),
		logging.Component(logger, "http"),
		m,
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().
		Str("port", cfg.Port).
		Str("notify_mode", dispatcher.Mode()).
		Str("overlap_policy", cfg.SchedulePolicy).
		Msg("event service listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-stopCtx.Done():
		logger.Info().Msg("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	reservationSvc.Wait()
	logger.Info().Msg("server stopped")
}

// newDispatcher publishes through SNS when credentials are configured and
// acknowledges in mock mode otherwise.
func newDispatcher(ctx context.Context, cfg config.NotifyConfig, logger zerolog.Logger, m *metrics.Metrics, clk clock.Clock) *notify.Dispatcher {
	opts := []notify.Option{
		notify.WithLogger(logging.Component(logger, "notify")),
		notify.WithMetrics(m),
		notify.WithClock(clk),
	}
	if !cfg.Live() {
		logger.Info().Msg("notification dispatcher running in mock mode")
		return notify.NewDispatcher(opts...)
	}
	publisher, err := notify.NewSNSPublisher(ctx, cfg.Region)
	if err != nil {
		logger.Error().Err(err).Msg("sns client setup failed, falling back to mock mode")
		return notify.NewDispatcher(opts...)
	}
	return notify.NewDispatcher(append(opts, notify.WithPublisher(publisher))...)
}
