package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/florianilch/postbot/internal/credentials"
)

// refreshKey names the single refresh flight (single-account design).
const refreshKey = "refresh"

// RefresherConfig holds the collaborators and settings of a Refresher.
type RefresherConfig struct {
	// Provider renews token pairs.
	Provider RefreshProvider

	// Credentials holds the token set that is read and rotated.
	Credentials *credentials.Store

	// Margin refreshes tokens this long before they expire. Zero refreshes
	// exactly at expiry.
	Margin time.Duration

	// Timeout bounds a refresh call. Defaults to DefaultProviderTimeout.
	Timeout time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Refresher hands out valid access tokens, refreshing expired ones.
// It is safe for concurrent use.
type Refresher struct {
	provider    RefreshProvider
	credentials *credentials.Store
	margin      time.Duration
	timeout     time.Duration
	now         func() time.Time

	group singleflight.Group
}

// NewRefresher creates a Refresher, filling unset optional fields with defaults.
func NewRefresher(cfg RefresherConfig) (*Refresher, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("missing identity provider")
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("missing credential store")
	}
	if cfg.Margin < 0 {
		return nil, fmt.Errorf("refresh margin cannot be negative")
	}

	r := &Refresher{
		provider:    cfg.Provider,
		credentials: cfg.Credentials,
		margin:      cfg.Margin,
		timeout:     cfg.Timeout,
		now:         cfg.Now,
	}
	if r.timeout <= 0 {
		r.timeout = DefaultProviderTimeout
	}
	if r.now == nil {
		r.now = time.Now
	}

	return r, nil
}

// AccessToken returns a valid access token. A token that has not expired is
// returned without any network call; an expired one is refreshed first.
//
// If ctx ends while a refresh is in flight, AccessToken returns ctx.Err() but
// the refresh runs to completion and its result is stored.
func (r *Refresher) AccessToken(ctx context.Context) (string, error) {
	ts, ok := r.credentials.Get()
	if !ok || ts.RefreshToken == "" {
		return "", ErrNotAuthenticated
	}
	if !ts.Expired(r.now(), r.margin) {
		return ts.AccessToken, nil
	}

	// Concurrent callers join the in-flight refresh instead of starting their own
	flightCtx := context.WithoutCancel(ctx)
	result := r.group.DoChan(refreshKey, func() (any, error) {
		return r.refresh(flightCtx)
	})

	select {
	case res := <-result:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(credentials.TokenSet).AccessToken, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refresh is the body of the single refresh flight.
func (r *Refresher) refresh(ctx context.Context) (credentials.TokenSet, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Re-check: a flight that just finished may already have refreshed the token
	ts, ok := r.credentials.Get()
	if !ok || ts.RefreshToken == "" {
		return credentials.TokenSet{}, ErrNotAuthenticated
	}
	if !ts.Expired(r.now(), r.margin) {
		return ts, nil
	}

	slog.DebugContext(ctx, "access token expired, refreshing", "expired_at", ts.ExpiresAt)

	grant, err := r.provider.Refresh(ctx, ts.RefreshToken)
	if err != nil {
		slog.WarnContext(ctx, "token refresh failed", "error", err)
		return credentials.TokenSet{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	next := credentials.TokenSet{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    r.now().Add(grant.ExpiresIn),
	}

	err = r.credentials.Rotate(ctx, ts.RefreshToken, next)
	if errors.Is(err, credentials.ErrSuperseded) {
		// A login or logout happened during the refresh; the newer state wins
		current, ok := r.credentials.Get()
		if !ok {
			return credentials.TokenSet{}, ErrNotAuthenticated
		}
		return current, nil
	}
	if err != nil {
		return credentials.TokenSet{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	slog.InfoContext(ctx, "access token refreshed", "expires_at", next.ExpiresAt)
	return next, nil
}

// Authenticated reports whether credentials are stored, and when the access token expires.
func (r *Refresher) Authenticated() (bool, time.Time) {
	ts, ok := r.credentials.Get()
	if !ok {
		return false, time.Time{}
	}
	return true, ts.ExpiresAt
}
