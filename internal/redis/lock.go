package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("sync lock not acquired")
)

// Locker serializes resync runs per calendar connection. A resync is an
// idempotent replace-by-window write, so losing the lock is never an error;
// callers simply skip and let the next cycle pick the work up.
type Locker interface {
	WithConnectionLock(ctx context.Context, connectionID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisSyncLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSyncLocker creates a locker that uses a per connection Redis key
func NewRedisSyncLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisSyncLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisSyncLocker) WithConnectionLock(ctx context.Context, connectionID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:calsync:%s", connectionID.String())
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisSyncLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release sync lock: %w", err)
	}
	return nil
}
