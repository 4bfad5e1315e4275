package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/docspot/booking-engine/internal/calendarsync"
	"github.com/docspot/booking-engine/internal/config"
	"github.com/docspot/booking-engine/internal/db"
	"github.com/docspot/booking-engine/internal/notify"
	redisclient "github.com/docspot/booking-engine/internal/redis"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "sync-worker").Logger()
	log.Info().Msg("sync-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().Str("env", cfg.Env).Dur("interval", cfg.SyncInterval).Msg("running calendar sync worker")

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

	repo := calendarsync.NewPgRepository(pgPool)
	provider := calendarsync.NewHTTPProvider(cfg.CalendarAPIURL, cfg.CalendarAPIKey)
	locker := redisclient.NewRedisSyncLocker(rdb, cfg.SyncLockTTL)
	svc := calendarsync.NewService(repo, provider, locker, notify.NewLogNotifier(log), cfg.LookaheadDays, log)

	// Run once at startup
	runCycle(rootCtx, repo, svc, log)

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping sync worker")
			return
		case <-ticker.C:
			runCycle(rootCtx, repo, svc, log)
		}
	}
}

// runCycle resyncs every active connection. Connections are independent, so
// one failing never stops the rest; a connection expiring mid-cycle is
// skipped and excluded from the next listing.
func runCycle(ctx context.Context, repo calendarsync.Repository, svc *calendarsync.Service, log zerolog.Logger) {
	cycleCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	conns, err := repo.ListActiveConnections(cycleCtx)
	if err != nil {
		log.Error().Err(err).Msg("list active connections")
		return
	}

	start := time.Now()
	var synced, failed int
	for i := range conns {
		res, err := svc.RunScheduledSync(cycleCtx, conns[i].ID)
		if err != nil {
			if errors.Is(err, calendarsync.ErrConnectionInactive) {
				continue
			}
			failed++
			log.Warn().Err(err).Str("connection_id", conns[i].ID.String()).Msg("scheduled sync failed")
			continue
		}
		synced++
		log.Debug().
			Str("connection_id", conns[i].ID.String()).
			Int("events", res.EventsProcessed).
			Msg("connection synced")
	}

	log.Info().
		Int("connections", len(conns)).
		Int("synced", synced).
		Int("failed", failed).
		Dur("took", time.Since(start)).
		Msg("sync cycle complete")
}
