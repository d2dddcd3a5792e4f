package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/florianilch/postbot/internal/auth"
	"github.com/florianilch/postbot/internal/credentials"
	"github.com/florianilch/postbot/internal/tokenstore"
)

// closer releases a resource opened during wiring.
type closer func() error

// newRedisClient connects to the configured Redis when a component needs it.
func newRedisClient(ctx context.Context, cfg *Config) (*redis.Client, error) {
	if !cfg.usesRedis() {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

// newPersister creates the durable token set backend. The memory type has none.
func newPersister(ctx context.Context, cfg StorageConfig, rdb *redis.Client) (credentials.Persister, closer, error) {
	switch cfg.Type {
	case StorageTypeMemory:
		return nil, nil, nil
	case StorageTypeFile:
		store, err := tokenstore.NewFileStore(cfg.File)
		return store, nil, err
	case StorageTypeEnv:
		store, err := tokenstore.NewEnvStore(cfg.EnvKey)
		return store, nil, err
	case StorageTypeKeyring:
		store, err := tokenstore.NewKeyringStore(keyringService, cfg.KeyringUser)
		return store, nil, err
	case StorageTypeRedis:
		store, err := tokenstore.NewRedisStore(rdb, cfg.RedisKey)
		return store, nil, err
	case StorageTypeSQLite:
		store, err := tokenstore.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case StorageTypePostgres:
		store, err := tokenstore.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// newPendingStore creates the registry of in-flight authorization attempts.
func newPendingStore(cfg PendingConfig, rdb *redis.Client) (auth.PendingStore, error) {
	switch cfg.Type {
	case PendingTypeMemory:
		return auth.NewMemoryPendingStore(), nil
	case PendingTypeRedis:
		return auth.NewRedisPendingStore(rdb), nil
	default:
		return nil, fmt.Errorf("unsupported pending store type: %s", cfg.Type)
	}
}
