package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/florianilch/postbot/internal/auth"
	"github.com/florianilch/postbot/internal/bot"
	"github.com/florianilch/postbot/internal/credentials"
	"github.com/florianilch/postbot/internal/identity"
	"github.com/florianilch/postbot/internal/llm"
	"github.com/florianilch/postbot/internal/server"
	"github.com/florianilch/postbot/internal/social"
)

// App orchestrates the lifecycle of the HTTP server, the scheduler and the
// credential storage they share.
type App struct {
	cfg         *Config
	credentials *credentials.Store
	server      *server.Server
	scheduler   *Scheduler
	closers     []closer
}

// New wires all components from cfg. Storage backends that need a
// connection (Redis, PostgreSQL, SQLite) are opened here; stored credentials
// are only read on Start.
func New(ctx context.Context, cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{cfg: cfg}
	if err := a.wire(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.cfg

	rdb, err := newRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		a.closers = append(a.closers, rdb.Close)
	}

	persister, closePersister, err := newPersister(ctx, cfg.Storage, rdb)
	if err != nil {
		return fmt.Errorf("failed to create credential storage: %w", err)
	}
	if closePersister != nil {
		a.closers = append(a.closers, closePersister)
	}

	var storeOpts []credentials.StoreOption
	if persister != nil {
		storeOpts = append(storeOpts, credentials.WithPersister(persister))
	}
	a.credentials = credentials.NewStore(storeOpts...)

	pending, err := newPendingStore(cfg.Pending, rdb)
	if err != nil {
		return err
	}

	provider, err := identity.New(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret,
		identity.WithEndpoint(oauth2.Endpoint{AuthURL: cfg.OAuth.AuthURL, TokenURL: cfg.OAuth.TokenURL}),
		identity.WithTimeout(cfg.OAuth.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create identity client: %w", err)
	}

	coordinator, err := auth.NewCoordinator(auth.CoordinatorConfig{
		Provider:    provider,
		Credentials: a.credentials,
		Pending:     pending,
		RedirectURI: cfg.OAuth.RedirectURL,
		Scopes:      cfg.OAuth.Scopes,
		StateTTL:    cfg.OAuth.StateTTL,
		Timeout:     cfg.OAuth.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create auth coordinator: %w", err)
	}

	refresher, err := auth.NewRefresher(auth.RefresherConfig{
		Provider:    provider,
		Credentials: a.credentials,
		Margin:      cfg.OAuth.RefreshMargin,
		Timeout:     cfg.OAuth.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create token refresher: %w", err)
	}

	api, err := social.New(refresher, social.WithBaseURL(cfg.API.BaseURL))
	if err != nil {
		return fmt.Errorf("failed to create social client: %w", err)
	}

	generator, err := newGenerator(cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create text generator: %w", err)
	}

	poster, err := bot.New(api, generator,
		bot.WithTopics(cfg.Bot.Topics),
		bot.WithCreators(cfg.Bot.Creators),
	)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	a.server, err = server.New(server.Deps{
		Auth:    coordinator,
		Status:  refresher,
		Profile: api,
		Poster:  poster,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	var locker Locker
	if rdb != nil {
		locker = NewRedisLocker(rdb)
	}
	a.scheduler = NewScheduler(locker,
		Job{
			Name:     "post",
			Interval: cfg.Schedule.PostInterval,
			Run: func(ctx context.Context) error {
				_, err := poster.PostGenerated(ctx)
				return err
			},
		},
		Job{
			Name:     "quote",
			Interval: cfg.Schedule.QuoteInterval,
			Run: func(ctx context.Context) error {
				_, err := poster.QuoteLatest(ctx)
				return err
			},
		},
	)

	return nil
}

// newGenerator creates the configured text generator.
func newGenerator(cfg LLMConfig) (llm.Generator, error) {
	switch cfg.Provider {
	case LLMProviderOllama:
		return llm.NewOllama(llm.WithOllamaURL(cfg.BaseURL), llm.WithOllamaModel(cfg.Model)), nil
	case LLMProviderAnthropic:
		return llm.NewAnthropic(llm.AnthropicConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

// Start starts all services and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	defer a.close()

	if err := a.credentials.Load(ctx); err != nil {
		return fmt.Errorf("failed to restore credentials: %w", err)
	}
	if _, ok := a.credentials.Get(); !ok {
		slog.InfoContext(ctx, "not logged in, visit /auth to authorize the bot")
	}

	g, gCtx := errgroup.WithContext(ctx)

	address := a.cfg.Server.Host + ":" + strconv.FormatUint(uint64(a.cfg.Server.Port), 10)
	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	serverErrCh, err := a.server.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.server.Shutdown)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	if a.scheduler.Len() > 0 {
		g.Go(func() error {
			return a.scheduler.Run(gCtx)
		})
	}

	slog.InfoContext(gCtx, "application ready", "address", address, "scheduled_jobs", a.scheduler.Len())

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

// close releases connections opened by New, last opened first.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("failed to close resource", "error", err)
		}
	}
	a.closers = nil
}
