package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "postbot:lock:"

// RedisLocker claims job runs with SET NX so that only one of several
// instances sharing a Redis acts on a tick.
type RedisLocker struct {
	client  *redis.Client
	ownerID string
}

// Compile-time check to ensure RedisLocker implements Locker
var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a RedisLocker with a unique owner ID.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		client:  client,
		ownerID: uuid.NewString(),
	}
}

// Acquire claims name for ttl. It reports false if another instance holds the claim.
func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKeyPrefix+name, l.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}
