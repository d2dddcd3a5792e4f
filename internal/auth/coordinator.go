package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/florianilch/postbot/internal/credentials"
	"github.com/florianilch/postbot/internal/identity"
)

// DefaultProviderTimeout bounds every call to the identity provider.
const DefaultProviderTimeout = 30 * time.Second

// CoordinatorConfig holds the collaborators and settings of a Coordinator.
type CoordinatorConfig struct {
	// Provider issues authorization links and exchanges codes.
	Provider Provider

	// Credentials receives the token set of a completed login.
	Credentials *credentials.Store

	// Pending holds in-flight attempts. Defaults to a MemoryPendingStore.
	Pending PendingStore

	// RedirectURI must match the URI registered with the provider.
	// It is sent both with the authorization link and the code exchange.
	RedirectURI string

	// Scopes requested at authorization. Defaults to identity.DefaultScopes.
	Scopes []string

	// StateTTL is how long an authorization URL stays redeemable. Defaults to DefaultStateTTL.
	StateTTL time.Duration

	// Timeout bounds the code exchange. Defaults to DefaultProviderTimeout.
	Timeout time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Coordinator runs the authorization-code flow with PKCE for the bot account.
type Coordinator struct {
	provider    Provider
	credentials *credentials.Store
	pending     PendingStore
	redirectURI string
	scopes      []string
	stateTTL    time.Duration
	timeout     time.Duration
	now         func() time.Time
}

// NewCoordinator creates a Coordinator, filling unset optional fields with defaults.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("missing identity provider")
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("missing credential store")
	}
	if cfg.RedirectURI == "" {
		return nil, fmt.Errorf("missing redirect uri")
	}

	c := &Coordinator{
		provider:    cfg.Provider,
		credentials: cfg.Credentials,
		pending:     cfg.Pending,
		redirectURI: cfg.RedirectURI,
		scopes:      cfg.Scopes,
		stateTTL:    cfg.StateTTL,
		timeout:     cfg.Timeout,
		now:         cfg.Now,
	}
	if c.pending == nil {
		c.pending = NewMemoryPendingStore()
	}
	if len(c.scopes) == 0 {
		c.scopes = identity.DefaultScopes
	}
	if c.stateTTL <= 0 {
		c.stateTTL = DefaultStateTTL
	}
	if c.timeout <= 0 {
		c.timeout = DefaultProviderTimeout
	}
	if c.now == nil {
		c.now = time.Now
	}

	return c, nil
}

// BeginAuth starts a login and returns the URL the user must be sent to.
// Attempts older than the state TTL are swept before the new one is stored.
func (c *Coordinator) BeginAuth(ctx context.Context) (string, error) {
	link, err := c.provider.AuthLink(c.redirectURI, c.scopes)
	if err != nil {
		return "", fmt.Errorf("building authorization link: %w", err)
	}

	now := c.now()
	removed, err := c.pending.Sweep(ctx, now.Add(-c.stateTTL))
	if err != nil {
		// Stale entries are rejected on redemption anyway
		slog.WarnContext(ctx, "failed to sweep expired authorization attempts", "error", err)
	} else if removed > 0 {
		slog.DebugContext(ctx, "swept expired authorization attempts", "count", removed)
	}

	pending := PendingAuth{
		State:        link.State,
		CodeVerifier: link.CodeVerifier,
		CreatedAt:    now,
	}
	if err := c.pending.Put(ctx, pending, c.stateTTL); err != nil {
		return "", fmt.Errorf("saving authorization attempt: %w", err)
	}

	slog.InfoContext(ctx, "authorization started", "expires_at", now.Add(c.stateTTL))
	return link.URL, nil
}

// CompleteAuth redeems state (once) and exchanges code for the token set,
// which replaces any stored credentials.
func (c *Coordinator) CompleteAuth(ctx context.Context, state, code string) (credentials.TokenSet, error) {
	if state == "" || code == "" {
		return credentials.TokenSet{}, fmt.Errorf("%w: state and code are required", ErrInvalidRequest)
	}

	// Taking the entry up front makes the state single-use even under concurrent callbacks
	pending, ok, err := c.pending.Take(ctx, state)
	if err != nil {
		return credentials.TokenSet{}, fmt.Errorf("looking up authorization attempt: %w", err)
	}
	if !ok || c.now().Sub(pending.CreatedAt) > c.stateTTL {
		return credentials.TokenSet{}, ErrUnknownOrExpiredState
	}

	// Detached from the caller: a completed exchange must be stored even if the client hung up
	exchangeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	grant, err := c.provider.Exchange(exchangeCtx, code, pending.CodeVerifier, c.redirectURI)
	if err != nil {
		slog.WarnContext(ctx, "authorization code exchange failed", "error", err)
		return credentials.TokenSet{}, fmt.Errorf("%w: %w", ErrProviderExchange, err)
	}

	ts := credentials.TokenSet{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    c.now().Add(grant.ExpiresIn),
	}
	if err := c.credentials.Replace(exchangeCtx, ts); err != nil {
		// Without offline.access the provider issues no refresh token
		return credentials.TokenSet{}, fmt.Errorf("%w: %w", ErrProviderExchange, err)
	}

	slog.InfoContext(ctx, "authorization completed", "expires_at", ts.ExpiresAt)
	return ts, nil
}

// Logout forgets the stored credentials, including their durable copy.
func (c *Coordinator) Logout(ctx context.Context) error {
	if err := c.credentials.Clear(ctx); err != nil {
		return err
	}

	slog.InfoContext(ctx, "credentials cleared")
	return nil
}
