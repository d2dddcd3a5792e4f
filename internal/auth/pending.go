package auth

import (
	"context"
	"sync"
	"time"
)

// DefaultStateTTL is how long an issued authorization URL stays redeemable.
const DefaultStateTTL = time.Hour

// PendingAuth is one in-flight authorization attempt.
type PendingAuth struct {
	State        string    `json:"state"`
	CodeVerifier string    `json:"code_verifier"`
	CreatedAt    time.Time `json:"created_at"`
}

// PendingStore holds pending authorization attempts keyed by state.
// Each operation is atomic on its own.
type PendingStore interface {
	// Put stores p. Backends with native expiry drop it after ttl.
	Put(ctx context.Context, p PendingAuth, ttl time.Duration) error

	// Take removes and returns the entry for state, if present.
	Take(ctx context.Context, state string) (PendingAuth, bool, error)

	// Sweep removes entries created before cutoff and reports how many were removed.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// MemoryPendingStore is a PendingStore living in process memory.
type MemoryPendingStore struct {
	mu      sync.Mutex
	entries map[string]PendingAuth
}

// Compile-time check to ensure MemoryPendingStore implements PendingStore
var _ PendingStore = (*MemoryPendingStore)(nil)

// NewMemoryPendingStore creates an empty MemoryPendingStore.
func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{
		entries: make(map[string]PendingAuth),
	}
}

// Put stores p. Expiry is left to Sweep.
func (m *MemoryPendingStore) Put(_ context.Context, p PendingAuth, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[p.State] = p
	return nil
}

// Take removes and returns the entry for state.
func (m *MemoryPendingStore) Take(_ context.Context, state string) (PendingAuth, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.entries[state]
	if ok {
		delete(m.entries, state)
	}
	return p, ok, nil
}

// Sweep removes entries created before cutoff.
func (m *MemoryPendingStore) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for state, p := range m.entries {
		if p.CreatedAt.Before(cutoff) {
			delete(m.entries, state)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored entries.
func (m *MemoryPendingStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}
