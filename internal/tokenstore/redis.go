package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/florianilch/postbot/internal/credentials"
)

// DefaultRedisKey is the key holding the token set when none is configured.
const DefaultRedisKey = "postbot:credentials"

// RedisStore keeps the token set under a single Redis key without expiry.
type RedisStore struct {
	client *redis.Client
	key    string
}

// Compile-time check to ensure RedisStore implements credentials.Persister
var _ credentials.Persister = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. An empty key selects DefaultRedisKey.
func NewRedisStore(client *redis.Client, key string) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if key == "" {
		key = DefaultRedisKey
	}

	return &RedisStore{
		client: client,
		key:    key,
	}, nil
}

// Load returns the token set stored under the key.
func (r *RedisStore) Load(ctx context.Context) (credentials.TokenSet, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return credentials.TokenSet{}, credentials.ErrNoTokenSet
	}
	if err != nil {
		return credentials.TokenSet{}, fmt.Errorf("get %s: %w", r.key, err)
	}

	return decode(data)
}

// Save overwrites the token set stored under the key.
func (r *RedisStore) Save(ctx context.Context, ts credentials.TokenSet) error {
	data, err := encode(ts)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", r.key, err)
	}
	return nil
}

// Delete removes the key.
func (r *RedisStore) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", r.key, err)
	}
	return nil
}
