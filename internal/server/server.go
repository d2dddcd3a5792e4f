package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/florianilch/postbot/internal/credentials"
	"github.com/florianilch/postbot/internal/social"
)

// Authenticator runs the login flow.
type Authenticator interface {
	BeginAuth(ctx context.Context) (string, error)
	CompleteAuth(ctx context.Context, state, code string) (credentials.TokenSet, error)
	Logout(ctx context.Context) error
}

// StatusReporter reports whether credentials are held and when they expire.
type StatusReporter interface {
	Authenticated() (bool, time.Time)
}

// Profile looks up the authenticated account.
type Profile interface {
	Me(ctx context.Context) (social.User, error)
}

// Poster publishes posts on behalf of the account.
type Poster interface {
	PostText(ctx context.Context, text string) (social.Post, error)
	PostGenerated(ctx context.Context) (social.Post, error)
	QuoteLatest(ctx context.Context) (social.Post, error)
}

// Deps are the collaborators the routes call into.
type Deps struct {
	Auth    Authenticator
	Status  StatusReporter
	Profile Profile
	Poster  Poster
}

// Server is the bot's HTTP front.
type Server struct {
	mux    *http.ServeMux
	server *http.Server
	deps   Deps
}

// Compile-time check that Server implements http.Handler
var _ http.Handler = (*Server)(nil)

// New creates a Server with all routes registered.
func New(deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Status == nil || deps.Profile == nil || deps.Poster == nil {
		return nil, fmt.Errorf("server requires auth, status, profile and poster")
	}

	s := &Server{
		mux:  http.NewServeMux(),
		deps: deps,
	}

	logged := func(h http.HandlerFunc) http.Handler {
		return applyMiddlewares(h,
			Logging(slog.Default()),
			Recovery,
		)
	}

	s.mux.Handle("GET /auth", logged(s.handleAuth))
	s.mux.Handle("GET /callback", logged(s.handleCallback))
	s.mux.Handle("POST /logout", logged(s.handleLogout))
	s.mux.Handle("POST /tweet", logged(s.handleTweet))
	s.mux.Handle("POST /quote", logged(s.handleQuote))
	s.mux.Handle("GET /healthz", logged(s.handleHealth))

	return s, nil
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	authURL, err := s.deps.Auth.BeginAuth(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

type callbackResponse struct {
	Message   string    `json:"message"`
	Username  string    `json:"username,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	// The provider redirects with an error instead of a code when the user declines
	if reason := query.Get("error"); reason != "" {
		writeError(ctx, w, fmt.Errorf("%w: authorization denied: %s", errBadRequest, reason))
		return
	}

	ts, err := s.deps.Auth.CompleteAuth(ctx, query.Get("state"), query.Get("code"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	resp := callbackResponse{
		Message:   "Authentication successful!",
		ExpiresAt: ts.ExpiresAt,
	}

	user, err := s.deps.Profile.Me(ctx)
	if err != nil {
		// The login itself succeeded; only the greeting is lost
		slog.WarnContext(ctx, "failed to look up authenticated user", "error", err)
	} else {
		resp.Message = fmt.Sprintf("Authentication successful! Welcome, @%s", user.Username)
		resp.Username = user.Username
	}

	writeJSON(ctx, w, resp, http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Auth.Logout(r.Context()); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tweetRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleTweet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tweetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	var (
		post social.Post
		err  error
	)
	if req.Text != "" {
		post, err = s.deps.Poster.PostText(ctx, req.Text)
	} else {
		post, err = s.deps.Poster.PostGenerated(ctx)
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, post, http.StatusCreated)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	post, err := s.deps.Poster.QuoteLatest(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, post, http.StatusCreated)
}

type healthResponse struct {
	Status        string     `json:"status"`
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}

	if ok, expiresAt := s.deps.Status.Authenticated(); ok {
		resp.Authenticated = true
		resp.ExpiresAt = &expiresAt
	}

	writeJSON(r.Context(), w, resp, http.StatusOK)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.server = &http.Server{
		Handler:     s,
		ReadTimeout: 30 * time.Second,
		// Generated posts wait on the language model
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.InfoContext(ctx, "http server listening", "address", listener.Addr().String())
	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
