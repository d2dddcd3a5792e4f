package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrNoTokenSet is returned by a Persister that has nothing stored.
	ErrNoTokenSet = errors.New("no stored token set")

	// ErrReadOnly is returned by a Persister that cannot be written to.
	ErrReadOnly = errors.New("token storage is read-only")

	// ErrSuperseded is returned by Rotate when the token set was replaced
	// after the caller read it.
	ErrSuperseded = errors.New("token set was superseded")
)

// Persister stores a TokenSet durably.
type Persister interface {
	// Load returns the stored token set or ErrNoTokenSet.
	Load(ctx context.Context) (TokenSet, error)

	// Save overwrites the stored token set.
	Save(ctx context.Context, ts TokenSet) error

	// Delete removes the stored token set. Deleting nothing is not an error.
	Delete(ctx context.Context) error
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPersister backs the store with durable storage.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) {
		s.persister = p
	}
}

// Store holds at most one live TokenSet. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	current *TokenSet

	// writeMu orders memory updates with their write-through so the
	// persisted value never lags behind an older write.
	writeMu   sync.Mutex
	persister Persister
}

// NewStore creates an empty Store. No I/O is performed until Load.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores the token set from the persister, if any.
// An empty persister leaves the store unauthenticated.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	ts, err := s.persister.Load(ctx)
	if errors.Is(err, ErrNoTokenSet) {
		slog.DebugContext(ctx, "no stored credentials found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading stored credentials: %w", err)
	}
	if err := ts.Validate(); err != nil {
		return fmt.Errorf("loading stored credentials: %w", err)
	}

	s.mu.Lock()
	s.current = &ts
	s.mu.Unlock()

	slog.InfoContext(ctx, "restored stored credentials", "expires_at", ts.ExpiresAt)
	return nil
}

// Get returns a copy of the current token set.
func (s *Store) Get() (TokenSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return TokenSet{}, false
	}
	return *s.current, true
}

// Replace stores ts, discarding whatever was held before.
func (s *Store) Replace(ctx context.Context, ts TokenSet) error {
	if err := ts.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.current = &ts
	s.mu.Unlock()

	s.persist(ctx, ts)
	return nil
}

// Rotate replaces the token set only if it still carries previousRefreshToken.
// Returns ErrSuperseded otherwise, leaving the newer token set in place.
func (s *Store) Rotate(ctx context.Context, previousRefreshToken string, ts TokenSet) error {
	if err := ts.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.current == nil || s.current.RefreshToken != previousRefreshToken {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.current = &ts
	s.mu.Unlock()

	s.persist(ctx, ts)
	return nil
}

// Clear drops the token set and deletes it from durable storage.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if s.persister == nil {
		return nil
	}
	if err := s.persister.Delete(ctx); err != nil && !errors.Is(err, ErrReadOnly) {
		return fmt.Errorf("deleting stored credentials: %w", err)
	}
	return nil
}

// persist writes ts through to the persister. Failures are logged, not
// returned: the in-memory token set is valid, but a restart will lose it.
func (s *Store) persist(ctx context.Context, ts TokenSet) {
	if s.persister == nil {
		return
	}

	err := s.persister.Save(ctx, ts)
	switch {
	case err == nil:
	case errors.Is(err, ErrReadOnly):
		slog.DebugContext(ctx, "skipping write-back to read-only credential storage")
	default:
		slog.ErrorContext(ctx, "failed to persist credentials", "error", err)
	}
}
