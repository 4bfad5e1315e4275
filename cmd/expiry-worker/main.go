package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/docspot/booking-engine/internal/availability"
	"github.com/docspot/booking-engine/internal/booking"
	"github.com/docspot/booking-engine/internal/config"
	"github.com/docspot/booking-engine/internal/db"
	"github.com/docspot/booking-engine/internal/notify"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "expiry-worker").Logger()
	log.Info().Msg("expiry-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("running expiry worker")

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

	notifier := notify.NewLogNotifier(log)
	availSvc := availability.NewService(availability.NewPgRepository(pgPool), cfg.MaxRangeDays)
	svc := booking.NewService(booking.NewPgRepository(pgPool), availSvc, notifier, cfg.PendingTTL, log)

	// Run once at startup
	runOnce(rootCtx, svc, log)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping expiry worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, log)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	count, err := svc.ExpirePendingBookings(runCtx)
	if err != nil {
		log.Error().Err(err).Msg("expiry run error")
		return
	}
	log.Info().Int64("expired", count).Dur("took", time.Since(start)).Msg("expiry run complete")
}
