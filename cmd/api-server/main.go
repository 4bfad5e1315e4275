package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/docspot/booking-engine/internal/api"
	"github.com/docspot/booking-engine/internal/availability"
	"github.com/docspot/booking-engine/internal/booking"
	"github.com/docspot/booking-engine/internal/calendarsync"
	"github.com/docspot/booking-engine/internal/config"
	"github.com/docspot/booking-engine/internal/db"
	"github.com/docspot/booking-engine/internal/notify"
	redisclient "github.com/docspot/booking-engine/internal/redis"
)

var version = "dev"

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()
	log.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisPoolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	notifier := notify.NewLogNotifier(log)

	availSvc := availability.NewService(availability.NewPgRepository(pgPool), cfg.MaxRangeDays)
	bookingSvc := booking.NewService(booking.NewPgRepository(pgPool), availSvc, notifier, cfg.PendingTTL, log)

	provider := calendarsync.NewHTTPProvider(cfg.CalendarAPIURL, cfg.CalendarAPIKey)
	locker := redisclient.NewRedisSyncLocker(rdb, cfg.SyncLockTTL)
	syncSvc := calendarsync.NewService(calendarsync.NewPgRepository(pgPool), provider, locker, notifier, cfg.LookaheadDays, log)

	router := api.NewRouter(api.RouterConfig{
		Availability: availSvc,
		Bookings:     bookingSvc,
		CalendarSync: syncSvc,
		PgPool:       pgPool,
		Redis:        rdb,
		Log:          log,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
}
