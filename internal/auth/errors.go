package auth

import "errors"

var (
	// ErrInvalidRequest is returned when the callback lacks state or code.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnknownOrExpiredState is returned for a state that was never issued,
	// has already been used, or is older than the state TTL.
	ErrUnknownOrExpiredState = errors.New("unknown or expired state")

	// ErrProviderExchange is returned when the provider rejects or fails the code exchange.
	ErrProviderExchange = errors.New("authorization code exchange failed")

	// ErrNotAuthenticated is returned when no usable credentials are stored.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRefreshFailed is returned when the provider rejects or fails a token refresh.
	ErrRefreshFailed = errors.New("token refresh failed")
)
