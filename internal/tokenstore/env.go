package tokenstore

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/florianilch/postbot/internal/credentials"
)

// EnvStore provides read-only access to a refresh token stored in an environment variable.
// The seeded token set has no access token and is already expired, so the first
// use triggers a refresh.
type EnvStore struct {
	envKey string
}

// Compile-time check to ensure EnvStore implements credentials.Persister
var _ credentials.Persister = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore for the given environment variable.
// Returns error if the variable name is empty or not set in the environment.
func NewEnvStore(envKey string) (*EnvStore, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	if _, exists := os.LookupEnv(envKey); !exists {
		return nil, fmt.Errorf("environment variable %s not set", envKey)
	}

	return &EnvStore{
		envKey: envKey,
	}, nil
}

// Load returns a token set holding only the refresh token from the environment variable.
func (e *EnvStore) Load(ctx context.Context) (credentials.TokenSet, error) {
	if err := ctx.Err(); err != nil {
		return credentials.TokenSet{}, err
	}

	refreshToken := strings.TrimSpace(os.Getenv(e.envKey))
	if refreshToken == "" {
		return credentials.TokenSet{}, credentials.ErrNoTokenSet
	}
	return credentials.TokenSet{RefreshToken: refreshToken}, nil
}

// Save is not supported for environment variables (they are read-only).
func (e *EnvStore) Save(ctx context.Context, _ credentials.TokenSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fmt.Errorf("environment variable %s: %w", e.envKey, credentials.ErrReadOnly)
}

// Delete is not supported for environment variables (they are read-only).
func (e *EnvStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fmt.Errorf("environment variable %s: %w", e.envKey, credentials.ErrReadOnly)
}
