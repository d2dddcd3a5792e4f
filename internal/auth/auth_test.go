package auth_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/florianilch/postbot/internal/auth"
	"github.com/florianilch/postbot/internal/credentials"
	"github.com/florianilch/postbot/internal/identity"
)

const testRedirectURI = "http://127.0.0.1:3000/callback"

var errProvider = errors.New("provider unavailable")

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type exchangeCall struct {
	code         string
	codeVerifier string
	redirectURI  string
}

// fakeProvider records provider calls and answers with configurable results.
type fakeProvider struct {
	mu        sync.Mutex
	links     int
	exchanges []exchangeCall

	refreshCalls atomic.Int32

	exchangeFunc func(ctx context.Context, code string) (identity.Grant, error)
	refreshFunc  func(ctx context.Context, refreshToken string) (identity.Grant, error)
}

func (p *fakeProvider) AuthLink(redirectURI string, scopes []string) (identity.AuthLink, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.links++

	state := fmt.Sprintf("state-%d", p.links)
	q := url.Values{"state": {state}, "redirect_uri": {redirectURI}}
	return identity.AuthLink{
		URL:          "https://provider.test/authorize?" + q.Encode(),
		State:        state,
		CodeVerifier: fmt.Sprintf("verifier-%d", p.links),
	}, nil
}

func (p *fakeProvider) Exchange(ctx context.Context, code, codeVerifier, redirectURI string) (identity.Grant, error) {
	p.mu.Lock()
	p.exchanges = append(p.exchanges, exchangeCall{code: code, codeVerifier: codeVerifier, redirectURI: redirectURI})
	fn := p.exchangeFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, code)
	}
	return identity.Grant{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		ExpiresIn:    2 * time.Hour,
	}, nil
}

func (p *fakeProvider) Refresh(ctx context.Context, refreshToken string) (identity.Grant, error) {
	n := p.refreshCalls.Add(1)
	if p.refreshFunc != nil {
		return p.refreshFunc(ctx, refreshToken)
	}
	return identity.Grant{
		AccessToken:  fmt.Sprintf("access-refreshed-%d", n),
		RefreshToken: fmt.Sprintf("refresh-refreshed-%d", n),
		ExpiresIn:    2 * time.Hour,
	}, nil
}

func (p *fakeProvider) exchangeCalls() []exchangeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]exchangeCall(nil), p.exchanges...)
}

// stateFromURL extracts the state the provider would echo on the callback.
func stateFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("state")
}

// fixture wires a Coordinator and Refresher around shared fakes.
type fixture struct {
	clock       *fakeClock
	provider    *fakeProvider
	store       *credentials.Store
	pending     *auth.MemoryPendingStore
	coordinator *auth.Coordinator
	refresher   *auth.Refresher
}

func newFixture(margin time.Duration) (*fixture, error) {
	f := &fixture{
		clock:    newFakeClock(),
		provider: &fakeProvider{},
		store:    credentials.NewStore(),
		pending:  auth.NewMemoryPendingStore(),
	}

	var err error
	f.coordinator, err = auth.NewCoordinator(auth.CoordinatorConfig{
		Provider:    f.provider,
		Credentials: f.store,
		Pending:     f.pending,
		RedirectURI: testRedirectURI,
		Now:         f.clock.Now,
	})
	if err != nil {
		return nil, err
	}

	f.refresher, err = auth.NewRefresher(auth.RefresherConfig{
		Provider:    f.provider,
		Credentials: f.store,
		Margin:      margin,
		Now:         f.clock.Now,
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}
