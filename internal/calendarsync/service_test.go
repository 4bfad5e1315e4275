package calendarsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docspot/booking-engine/internal/notify"
	redisclient "github.com/docspot/booking-engine/internal/redis"
)

var syncNow = time.Date(2027, 1, 4, 8, 0, 0, 0, time.UTC)

type fakeRepo struct {
	connections  map[uuid.UUID]*Connection
	intervals    map[uuid.UUID][]BusyInterval
	replaceCount int
}

func newFakeRepo(conns ...*Connection) *fakeRepo {
	r := &fakeRepo{
		connections: make(map[uuid.UUID]*Connection),
		intervals:   make(map[uuid.UUID][]BusyInterval),
	}
	for _, c := range conns {
		r.connections[c.ID] = c
	}
	return r
}

func (f *fakeRepo) GetConnection(_ context.Context, id uuid.UUID) (*Connection, error) {
	c, ok := f.connections[id]
	if !ok {
		return nil, ErrConnectionNotFound
	}
	out := *c
	return &out, nil
}

func (f *fakeRepo) GetConnectionByChannel(_ context.Context, channelID, resourceID string) (*Connection, error) {
	for _, c := range f.connections {
		if c.ChannelID == channelID && c.ResourceID == resourceID {
			out := *c
			return &out, nil
		}
	}
	return nil, ErrConnectionNotFound
}

func (f *fakeRepo) ListActiveConnections(_ context.Context) ([]Connection, error) {
	var result []Connection
	for _, c := range f.connections {
		if c.Status == ConnectionActive {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (f *fakeRepo) ReplaceBusyIntervals(_ context.Context, connectionID uuid.UUID, windowStart, windowEnd time.Time, intervals []BusyInterval) error {
	var kept []BusyInterval
	for _, iv := range f.intervals[connectionID] {
		if !iv.EndAt.After(windowStart) || !iv.StartAt.Before(windowEnd) {
			kept = append(kept, iv)
		}
	}
	f.intervals[connectionID] = append(kept, intervals...)
	f.replaceCount++
	return nil
}

func (f *fakeRepo) SetConnectionStatus(_ context.Context, id uuid.UUID, status ConnectionStatus) error {
	if c, ok := f.connections[id]; ok {
		c.Status = status
	}
	return nil
}

func (f *fakeRepo) RecordSync(_ context.Context, id uuid.UUID, syncToken *string, at time.Time) error {
	if c, ok := f.connections[id]; ok {
		if syncToken != nil {
			c.SyncToken = syncToken
		}
		c.LastSyncedAt = &at
	}
	return nil
}

type fakeProvider struct {
	busy  []BusyRange
	err   error
	calls int
}

func (f *fakeProvider) FreeBusy(_ context.Context, _ *Connection, _, _ time.Time) ([]BusyRange, *string, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	token := "sync-token-1"
	return f.busy, &token, nil
}

// passLocker always grants the lock; heldLocker never does.
type passLocker struct{}

func (passLocker) WithConnectionLock(ctx context.Context, _ uuid.UUID, fn func(context.Context) error) error {
	return fn(ctx)
}

type heldLocker struct{}

func (heldLocker) WithConnectionLock(context.Context, uuid.UUID, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

type nopNotifier struct{ events []notify.Event }

func (n *nopNotifier) Notify(_ context.Context, ev notify.Event) {
	n.events = append(n.events, ev)
}

func activeConnection() *Connection {
	return &Connection{
		ID:         uuid.New(),
		DoctorID:   uuid.New(),
		Provider:   "google",
		ChannelID:  "chan-1",
		ResourceID: "res-1",
		Status:     ConnectionActive,
	}
}

func newTestService(repo Repository, provider Provider, locker redisclient.Locker, notifier notify.Notifier) *Service {
	return NewService(repo, provider, locker, notifier, 30, zerolog.Nop()).
		WithClock(func() time.Time { return syncNow })
}

func TestHandleWebhookSyncStateIsNoOp(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(newFakeRepo(), provider, passLocker{}, &nopNotifier{})

	res, err := svc.HandleWebhook(context.Background(), "chan-1", "res-1", StateSync)
	require.NoError(t, err)

	assert.Equal(t, "ok", res.Status)
	assert.Zero(t, provider.calls, "sync state must not trigger a resync")
}

func TestHandleWebhookUnknownChannelIgnored(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(newFakeRepo(), provider, passLocker{}, &nopNotifier{})

	res, err := svc.HandleWebhook(context.Background(), "gone-channel", "gone-res", StateExists)
	require.NoError(t, err)

	assert.Equal(t, "ignored", res.Status)
	assert.Zero(t, provider.calls)
}

func TestHandleWebhookTriggersResync(t *testing.T) {
	conn := activeConnection()
	repo := newFakeRepo(conn)
	provider := &fakeProvider{busy: []BusyRange{{
		Start: syncNow.Add(2 * time.Hour),
		End:   syncNow.Add(3 * time.Hour),
	}}}
	svc := newTestService(repo, provider, passLocker{}, &nopNotifier{})

	res, err := svc.HandleWebhook(context.Background(), conn.ChannelID, conn.ResourceID, StateExists)
	require.NoError(t, err)

	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, 1, provider.calls)
	assert.Len(t, repo.intervals[conn.ID], 1)
}

func TestHandleWebhookResyncFailureStillAcknowledged(t *testing.T) {
	conn := activeConnection()
	repo := newFakeRepo(conn)
	provider := &fakeProvider{err: errors.New("provider down")}
	notifier := &nopNotifier{}
	svc := newTestService(repo, provider, passLocker{}, notifier)

	res, err := svc.HandleWebhook(context.Background(), conn.ChannelID, conn.ResourceID, StateExists)
	require.NoError(t, err, "webhook must be acknowledged even when resync fails")

	assert.Equal(t, "ok", res.Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, notify.EventSyncFailed, notifier.events[0].Type)
}

func TestRunScheduledSyncReplacesWindow(t *testing.T) {
	conn := activeConnection()
	repo := newFakeRepo(conn)
	provider := &fakeProvider{busy: []BusyRange{
		{Start: syncNow.Add(2 * time.Hour), End: syncNow.Add(3 * time.Hour)},
		{Start: syncNow.Add(26 * time.Hour), End: syncNow.Add(27 * time.Hour)},
	}}
	svc := newTestService(repo, provider, passLocker{}, &nopNotifier{})

	res, err := svc.RunScheduledSync(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.EventsProcessed)
	assert.Len(t, repo.intervals[conn.ID], 2)

	// Upstream deleted one event; the resync must not leave it behind.
	provider.busy = provider.busy[:1]
	res, err = svc.RunScheduledSync(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.EventsProcessed)
	assert.Len(t, repo.intervals[conn.ID], 1)

	require.NotNil(t, repo.connections[conn.ID].SyncToken)
	assert.Equal(t, "sync-token-1", *repo.connections[conn.ID].SyncToken)
	require.NotNil(t, repo.connections[conn.ID].LastSyncedAt)
}

func TestRunScheduledSyncIdempotent(t *testing.T) {
	conn := activeConnection()
	repo := newFakeRepo(conn)
	provider := &fakeProvider{busy: []BusyRange{
		{Start: syncNow.Add(2 * time.Hour), End: syncNow.Add(3 * time.Hour)},
	}}
	svc := newTestService(repo, provider, passLocker{}, &nopNotifier{})

	_, err := svc.RunScheduledSync(context.Background(), conn.ID)
	require.NoError(t, err)
	first := append([]BusyInterval(nil), repo.intervals[conn.ID]...)

	_, err = svc.RunScheduledSync(context.Background(), conn.ID)
	require.NoError(t, err)

	require.Len(t, repo.intervals[conn.ID], len(first))
	for i, iv := range repo.intervals[conn.ID] {
		assert.True(t, iv.StartAt.Equal(first[i].StartAt))
		assert.True(t, iv.EndAt.Equal(first[i].EndAt))
	}
	assert.Equal(t, 2, repo.replaceCount, "both runs must write, later one wins")
}

func TestRunScheduledSyncUnknownConnection(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeProvider{}, passLocker{}, &nopNotifier{})

	_, err := svc.RunScheduledSync(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestResyncSkipsDroppedIntervals(t *testing.T) {
	conn := activeConnection()
	repo := newFakeRepo(conn)
	provider := &fakeProvider{busy: []BusyRange{
		{Start: syncNow.Add(2 * time.Hour), End: syncNow.Add(2 * time.Hour)}, // zero length
		{Start: syncNow.Add(3 * time.Hour), End: syncNow.Add(4 * time.Hour)},
	}}
	svc := newTestService(repo, provider, passLocker{}, &nopNotifier{})

	n, err := svc.Resync(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResyncTokenRevokedExpiresConnection(t *testing.T) {
	conn := activeConnection()
	repo := newFakeRepo(conn)
	provider := &fakeProvider{err: ErrTokenRevoked}
	notifier := &nopNotifier{}
	svc := newTestService(repo, provider, passLocker{}, notifier)

	_, err := svc.Resync(context.Background(), conn)
	assert.ErrorIs(t, err, ErrConnectionInactive)

	assert.Equal(t, ConnectionExpired, repo.connections[conn.ID].Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, notify.EventConnectionExpired, notifier.events[0].Type)
}

func TestResyncInactiveConnectionRejected(t *testing.T) {
	conn := activeConnection()
	conn.Status = ConnectionExpired
	svc := newTestService(newFakeRepo(conn), &fakeProvider{}, passLocker{}, &nopNotifier{})

	_, err := svc.Resync(context.Background(), conn)
	assert.ErrorIs(t, err, ErrConnectionInactive)
}

func TestResyncSkipsWhenLockHeld(t *testing.T) {
	conn := activeConnection()
	repo := newFakeRepo(conn)
	provider := &fakeProvider{}
	svc := newTestService(repo, provider, heldLocker{}, &nopNotifier{})

	n, err := svc.Resync(context.Background(), conn)
	require.NoError(t, err, "a held lock means another resync is in flight, not a failure")
	assert.Zero(t, n)
	assert.Zero(t, provider.calls)
}

func TestResyncTransientFailureWrapped(t *testing.T) {
	conn := activeConnection()
	repo := newFakeRepo(conn)
	provider := &fakeProvider{err: errors.New("timeout")}
	svc := newTestService(repo, provider, passLocker{}, &nopNotifier{})

	_, err := svc.Resync(context.Background(), conn)
	assert.ErrorIs(t, err, ErrSyncFailed)
	assert.Equal(t, ConnectionActive, repo.connections[conn.ID].Status)
}
