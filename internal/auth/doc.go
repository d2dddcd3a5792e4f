// Package auth manages the OAuth2 token lifecycle of the bot account.
//
// Coordinator runs the authorization-code flow with PKCE: BeginAuth issues an
// authorization URL and remembers its state and code verifier, CompleteAuth
// consumes that state exactly once and stores the exchanged token set.
//
// Refresher hands out valid access tokens. When the stored token has expired
// it refreshes it through the provider; concurrent callers share a single
// in-flight refresh, since providers invalidate a refresh token on first use.
//
// All failures are reported as one of the sentinel errors below, wrapped
// around their cause, so callers can tell "must log in again"
// (ErrNotAuthenticated, ErrUnknownOrExpiredState) from "retry later"
// (ErrRefreshFailed, ErrProviderExchange) from "bad input" (ErrInvalidRequest).
package auth
