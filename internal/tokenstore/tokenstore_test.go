package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/florianilch/postbot/internal/credentials"
)

var sample = credentials.TokenSet{
	AccessToken:  "access-1",
	RefreshToken: "refresh-1",
	ExpiresAt:    time.Date(2030, 6, 1, 10, 30, 0, 0, time.UTC),
}

// exercisePersister runs the round trip every writable backend must support.
func exercisePersister(t *testing.T, p credentials.Persister) {
	t.Helper()
	ctx := context.Background()

	_, err := p.Load(ctx)
	require.ErrorIs(t, err, credentials.ErrNoTokenSet, "fresh backend must be empty")

	require.NoError(t, p.Save(ctx, sample))
	got, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample.AccessToken, got.AccessToken)
	assert.Equal(t, sample.RefreshToken, got.RefreshToken)
	assert.True(t, sample.ExpiresAt.Equal(got.ExpiresAt), "expires_at: got %v want %v", got.ExpiresAt, sample.ExpiresAt)

	rotated := credentials.TokenSet{AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresAt: sample.ExpiresAt.Add(time.Hour)}
	require.NoError(t, p.Save(ctx, rotated))
	got, err = p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", got.RefreshToken, "save must overwrite")

	require.NoError(t, p.Delete(ctx))
	_, err = p.Load(ctx)
	require.ErrorIs(t, err, credentials.ErrNoTokenSet)

	require.NoError(t, p.Delete(ctx), "deleting nothing is not an error")
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "credentials.json"))
	require.NoError(t, err)

	exercisePersister(t, store)
}

func TestFileStore_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), sample))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, os.Chmod(path, 0644))
	_, err = store.Load(context.Background())
	assert.ErrorContains(t, err, "insecure permissions")
}

func TestFileStore_EmptyPath(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestFileStore_CanceledContext(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Save(ctx, sample), context.Canceled)
}

func TestEnvStore(t *testing.T) {
	t.Setenv("POSTBOT_TEST_REFRESH_TOKEN", "  seeded-refresh \n")

	store, err := NewEnvStore("POSTBOT_TEST_REFRESH_TOKEN")
	require.NoError(t, err)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "seeded-refresh", got.RefreshToken)
	assert.Empty(t, got.AccessToken)
	assert.True(t, got.Expired(time.Now(), 0), "seed must force a refresh")

	assert.ErrorIs(t, store.Save(context.Background(), sample), credentials.ErrReadOnly)
	assert.ErrorIs(t, store.Delete(context.Background()), credentials.ErrReadOnly)
}

func TestEnvStore_Unset(t *testing.T) {
	_, err := NewEnvStore("POSTBOT_TEST_DEFINITELY_UNSET")
	assert.Error(t, err)

	_, err = NewEnvStore("")
	assert.Error(t, err)
}

func TestEnvStore_EmptyValue(t *testing.T) {
	t.Setenv("POSTBOT_TEST_EMPTY", "")

	store, err := NewEnvStore("POSTBOT_TEST_EMPTY")
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, credentials.ErrNoTokenSet)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore("postbot-test", "bot")
	require.NoError(t, err)

	exercisePersister(t, store)
}

func TestKeyringStore_Validation(t *testing.T) {
	_, err := NewKeyringStore("", "user")
	assert.Error(t, err)

	_, err = NewKeyringStore("service", "")
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client, "")
	require.NoError(t, err)

	exercisePersister(t, store)
}

func TestRedisStore_NoExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client, "custom:key")
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), sample))

	assert.True(t, mr.Exists("custom:key"))
	assert.Zero(t, mr.TTL("custom:key"))
}

func TestRedisStore_NilClient(t *testing.T) {
	_, err := NewRedisStore(nil, "")
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:tokenstore_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store, err := NewGormStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exercisePersister(t, store)
}

func TestSQLiteStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "postbot.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), sample))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample.RefreshToken, got.RefreshToken)
}

func TestPostgresStore_EmptyURL(t *testing.T) {
	_, err := NewPostgresStore(context.Background(), "")
	assert.Error(t, err)
}
