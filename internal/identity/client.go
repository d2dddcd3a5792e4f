package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// defaultExpiresIn is assumed when the provider omits expires_in.
const defaultExpiresIn = time.Hour

// Option configures a Client.
type Option func(*clientConfig)

// clientConfig holds configuration for New.
type clientConfig struct {
	baseTransport http.RoundTripper
	endpoint      oauth2.Endpoint
	timeout       time.Duration
}

// WithTransport sets a custom base transport for token requests.
// If not provided, http.DefaultTransport is used.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *clientConfig) {
		c.baseTransport = transport
	}
}

// WithEndpoint overrides the provider endpoints (defaults to Endpoint).
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(c *clientConfig) {
		c.endpoint = endpoint
	}
}

// WithTimeout bounds every token request (defaults to 30 seconds).
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// AuthLink is an authorization URL together with the secrets bound to it.
type AuthLink struct {
	URL          string
	State        string
	CodeVerifier string
}

// Grant is a token pair issued by the provider.
type Grant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Client performs the provider side of the OAuth2 authorization-code flow with PKCE.
type Client struct {
	clientID     string
	clientSecret string
	endpoint     oauth2.Endpoint
	httpClient   *http.Client
}

// New creates a Client. A client secret selects confidential-client
// authentication (HTTP Basic); without one the client is public and relies on PKCE alone.
func New(clientID, clientSecret string, opts ...Option) (*Client, error) {
	if clientID == "" {
		return nil, fmt.Errorf("client id cannot be empty")
	}

	cfg := &clientConfig{
		baseTransport: http.DefaultTransport,
		endpoint:      Endpoint,
		timeout:       30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	endpoint := cfg.endpoint
	if endpoint.AuthStyle == oauth2.AuthStyleAutoDetect {
		if clientSecret != "" {
			endpoint.AuthStyle = oauth2.AuthStyleInHeader
		} else {
			endpoint.AuthStyle = oauth2.AuthStyleInParams
		}
	}

	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		endpoint:     endpoint,
		httpClient: &http.Client{
			Timeout:   cfg.timeout, // Bounds token requests even if the caller's context has no deadline
			Transport: cfg.baseTransport,
		},
	}, nil
}

// AuthLink generates a fresh state and PKCE verifier and builds the
// authorization URL for them. No network call is made.
func (c *Client) AuthLink(redirectURI string, scopes []string) (AuthLink, error) {
	state, err := uuid.NewRandom()
	if err != nil {
		return AuthLink{}, fmt.Errorf("generating state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	url := c.config(redirectURI, scopes).AuthCodeURL(state.String(), oauth2.S256ChallengeOption(verifier))

	return AuthLink{
		URL:          url,
		State:        state.String(),
		CodeVerifier: verifier,
	}, nil
}

// Exchange trades an authorization code for a token pair. redirectURI must be
// the one used for the authorization link.
func (c *Client) Exchange(ctx context.Context, code, codeVerifier, redirectURI string) (Grant, error) {
	token, err := c.config(redirectURI, nil).Exchange(c.withHTTPClient(ctx), code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return Grant{}, fmt.Errorf("exchanging authorization code: %w", describe(err))
	}
	return grantFromToken(token), nil
}

// Refresh trades a refresh token for a new token pair. Providers rotating
// refresh tokens invalidate the old one on success. The returned grant has an
// empty RefreshToken if the provider did not issue a new one.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Grant, error) {
	// An expired token without access token forces oauth2 to refresh on first use.
	expired := &oauth2.Token{RefreshToken: refreshToken}

	token, err := c.config("", nil).TokenSource(c.withHTTPClient(ctx), expired).Token()
	if err != nil {
		return Grant{}, fmt.Errorf("refreshing token: %w", describe(err))
	}

	grant := grantFromToken(token)
	// oauth2 carries the old refresh token over when the response omits one
	if !issuedRefreshToken(token) {
		grant.RefreshToken = ""
	}
	return grant, nil
}

// issuedRefreshToken reports whether the token response itself contained a refresh token.
func issuedRefreshToken(token *oauth2.Token) bool {
	switch v := token.Extra("refresh_token").(type) {
	case string:
		return v != ""
	case nil:
		return false
	default:
		return true
	}
}

func (c *Client) config(redirectURI string, scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Endpoint:     c.endpoint,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
	}
}

// withHTTPClient injects the bounded HTTP client; oauth2 reads it from the context.
func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func grantFromToken(token *oauth2.Token) Grant {
	expiresIn := time.Duration(token.ExpiresIn) * time.Second
	if expiresIn <= 0 && !token.Expiry.IsZero() {
		expiresIn = time.Until(token.Expiry)
	}
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}

	return Grant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    expiresIn,
	}
}

// describe surfaces the provider's error code instead of the raw response body.
func describe(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) || retrieveErr.ErrorCode == "" {
		return err
	}
	if retrieveErr.ErrorDescription != "" {
		return fmt.Errorf("%s: %s: %w", retrieveErr.ErrorCode, retrieveErr.ErrorDescription, err)
	}
	return fmt.Errorf("%s: %w", retrieveErr.ErrorCode, err)
}
