package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultPoolSize suits the lock-only workload here: one short SetNX/DEL pair
// per resync, no hot read path.
const defaultPoolSize = 10

func clientOptions(addr, username, password string, poolSize int) *redis.Options {
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}

	return &redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		DB:           0,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     poolSize,
		MinIdleConns: 1,
	}
}

func NewRedisClient(addr, username, password string, poolSize int) (*redis.Client, error) {
	rdb := redis.NewClient(clientOptions(addr, username, password, poolSize))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}
