package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/docspot/booking-engine/internal/notify"
	redisclient "github.com/docspot/booking-engine/internal/redis"
)

var (
	ErrConnectionInactive = errors.New("calendar connection is not active")

	// ErrSyncFailed wraps transient provider failures. Never surfaced to
	// patients; the next webhook or scheduled pull self-heals.
	ErrSyncFailed = errors.New("calendar sync failed")
)

// Webhook resource states, as delivered by the provider's push channel.
const (
	StateSync      = "sync" // subscription confirmation, carries no change
	StateExists    = "exists"
	StateNotExists = "not_exists"
)

type WebhookResult struct {
	Status string // "ok" or "ignored"
}

type SyncResult struct {
	EventsProcessed int
}

// Service funnels webhook deliveries and scheduled pulls into the same
// idempotent resync: fetch the provider's busy list for a bounded look-ahead
// window and replace that window's rows. Duplicate or out-of-order deliveries
// are harmless; the later write wins.
type Service struct {
	repo          Repository
	provider      Provider
	locker        redisclient.Locker
	notifier      notify.Notifier
	lookaheadDays int
	log           zerolog.Logger
	now           func() time.Time
}

func NewService(repo Repository, provider Provider, locker redisclient.Locker, notifier notify.Notifier, lookaheadDays int, log zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		provider:      provider,
		locker:        locker,
		notifier:      notifier,
		lookaheadDays: lookaheadDays,
		log:           log.With().Str("component", "calendarsync").Logger(),
		now:           time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// HandleWebhook reacts to a push notification. The initial "sync" state is
// acknowledged without work, and a channel that no longer maps to a
// connection is dropped silently; the provider keeps pushing to disconnected
// channels until the subscription lapses. Resync failures are logged, not
// returned: the delivery is still acknowledged and the next cycle heals.
func (s *Service) HandleWebhook(ctx context.Context, channelID, resourceID, resourceState string) (WebhookResult, error) {
	if resourceState == StateSync {
		return WebhookResult{Status: "ok"}, nil
	}

	conn, err := s.repo.GetConnectionByChannel(ctx, channelID, resourceID)
	if err != nil {
		if errors.Is(err, ErrConnectionNotFound) {
			return WebhookResult{Status: "ignored"}, nil
		}
		return WebhookResult{}, fmt.Errorf("route webhook: %w", err)
	}

	if _, err := s.Resync(ctx, conn); err != nil {
		s.log.Warn().Err(err).
			Str("connection_id", conn.ID.String()).
			Str("channel_id", channelID).
			Msg("webhook resync failed")
	}

	return WebhookResult{Status: "ok"}, nil
}

// RunScheduledSync is the pull-cycle entry point for one connection.
func (s *Service) RunScheduledSync(ctx context.Context, connectionID uuid.UUID) (SyncResult, error) {
	conn, err := s.repo.GetConnection(ctx, connectionID)
	if err != nil {
		return SyncResult{}, err
	}

	n, err := s.Resync(ctx, conn)
	if err != nil {
		return SyncResult{}, err
	}

	return SyncResult{EventsProcessed: n}, nil
}

// Resync replaces the connection's busy intervals for the look-ahead window.
// A concurrent resync of the same connection (webhook racing the scheduled
// pull) is skipped via a short Redis lock: replace-by-window makes the skip
// free, since the holder writes the same state.
func (s *Service) Resync(ctx context.Context, conn *Connection) (int, error) {
	if conn.Status != ConnectionActive {
		return 0, ErrConnectionInactive
	}

	var count int
	err := s.locker.WithConnectionLock(ctx, conn.ID, func(lockCtx context.Context) error {
		n, err := s.resyncLocked(lockCtx, conn)
		count = n
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			s.log.Debug().Str("connection_id", conn.ID.String()).Msg("resync already in flight, skipping")
			return 0, nil
		}
		return 0, err
	}

	return count, nil
}

func (s *Service) resyncLocked(ctx context.Context, conn *Connection) (int, error) {
	windowStart := s.now().UTC().Truncate(24 * time.Hour)
	windowEnd := windowStart.AddDate(0, 0, s.lookaheadDays)

	busy, syncToken, err := s.provider.FreeBusy(ctx, conn, windowStart, windowEnd)
	if err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			return 0, s.expireConnection(ctx, conn)
		}
		s.notifier.Notify(ctx, notify.Event{
			Type:     notify.EventSyncFailed,
			DoctorID: conn.DoctorID,
			At:       s.now(),
		})
		return 0, fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}

	intervals := make([]BusyInterval, 0, len(busy))
	for _, b := range busy {
		if !b.End.After(b.Start) {
			continue
		}
		intervals = append(intervals, BusyInterval{
			ConnectionID: conn.ID,
			StartAt:      b.Start.UTC(),
			EndAt:        b.End.UTC(),
		})
	}

	if err := s.repo.ReplaceBusyIntervals(ctx, conn.ID, windowStart, windowEnd, intervals); err != nil {
		return 0, fmt.Errorf("%w: replace intervals: %v", ErrSyncFailed, err)
	}

	if err := s.repo.RecordSync(ctx, conn.ID, syncToken, s.now()); err != nil {
		return 0, fmt.Errorf("%w: record sync: %v", ErrSyncFailed, err)
	}

	return len(intervals), nil
}

func (s *Service) expireConnection(ctx context.Context, conn *Connection) error {
	if err := s.repo.SetConnectionStatus(ctx, conn.ID, ConnectionExpired); err != nil {
		return fmt.Errorf("mark connection expired: %w", err)
	}

	s.log.Warn().
		Str("connection_id", conn.ID.String()).
		Str("doctor_id", conn.DoctorID.String()).
		Msg("provider token revoked, connection expired")

	s.notifier.Notify(ctx, notify.Event{
		Type:     notify.EventConnectionExpired,
		DoctorID: conn.DoctorID,
		At:       s.now(),
	})

	return ErrConnectionInactive
}
