package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingKeyPrefix = "postbot:oauth:state:"

// RedisPendingStore keeps pending authorization attempts in Redis so any
// instance behind a load balancer can complete a login. Entries expire
// through Redis TTLs.
type RedisPendingStore struct {
	client *redis.Client
}

// Compile-time check to ensure RedisPendingStore implements PendingStore
var _ PendingStore = (*RedisPendingStore)(nil)

// NewRedisPendingStore creates a Redis-backed PendingStore.
func NewRedisPendingStore(client *redis.Client) *RedisPendingStore {
	return &RedisPendingStore{client: client}
}

// Put stores p with the given TTL.
func (r *RedisPendingStore) Put(ctx context.Context, p PendingAuth, ttl time.Duration) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending auth: %w", err)
	}

	if err := r.client.Set(ctx, pendingKeyPrefix+p.State, data, ttl).Err(); err != nil {
		return fmt.Errorf("save pending auth: %w", err)
	}
	return nil
}

// Take atomically retrieves and deletes the entry (GETDEL), so a state can be redeemed once.
func (r *RedisPendingStore) Take(ctx context.Context, state string) (PendingAuth, bool, error) {
	data, err := r.client.GetDel(ctx, pendingKeyPrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingAuth{}, false, nil
	}
	if err != nil {
		return PendingAuth{}, false, fmt.Errorf("take pending auth: %w", err)
	}

	var p PendingAuth
	if err := json.Unmarshal(data, &p); err != nil {
		return PendingAuth{}, false, fmt.Errorf("unmarshal pending auth: %w", err)
	}
	return p, true, nil
}

// Sweep is a no-op: Redis expires entries on its own.
func (r *RedisPendingStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}
