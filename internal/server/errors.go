package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/florianilch/postbot/internal/auth"
	"github.com/florianilch/postbot/internal/bot"
	"github.com/florianilch/postbot/internal/social"
)

// errBadRequest marks client input errors detected by the handlers themselves.
var errBadRequest = errors.New("bad request")

// statusFor maps an error to the HTTP status reported to the client.
func statusFor(err error) int {
	var apiErr *social.APIError

	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, auth.ErrInvalidRequest),
		errors.Is(err, auth.ErrUnknownOrExpiredState):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, bot.ErrNoPosts):
		return http.StatusNotFound
	case errors.Is(err, bot.ErrNoCreators):
		return http.StatusServiceUnavailable
	case errors.Is(err, auth.ErrProviderExchange),
		errors.Is(err, auth.ErrRefreshFailed),
		errors.Is(err, bot.ErrEmptyPost),
		errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err to the client with the status statusFor picks.
// Internal errors are logged and replaced by a generic message.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "error", err)
		writeJSONError(ctx, w, http.StatusText(status), status)
		return
	}

	slog.DebugContext(ctx, "request rejected", "status", status, "error", err)
	writeJSONError(ctx, w, err.Error(), status)
}
