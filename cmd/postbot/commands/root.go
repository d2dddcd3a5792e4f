package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/postbot/internal/app"
	"github.com/florianilch/postbot/internal/observability"
)

// telemetryFlushTimeout bounds how long buffered log records may take to export on exit.
const telemetryFlushTimeout = 5 * time.Second

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "postbot",
		Usage: "OAuth2-authorized posting bot for X",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
		},
		Commands: []*cli.Command{
			startCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

func startCommand() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "serve the authorization endpoints and run scheduled posts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otel)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "server--host",
				Usage: "server host",
				Value: app.DefaultConfigServerHost,
			},
			&cli.IntFlag{
				Name:  "server--port",
				Usage: "server port",
				Value: int(app.DefaultConfigServerPort),
			},
			&cli.StringFlag{
				Name:  "oauth--client-id",
				Usage: "OAuth2 client ID registered with X",
			},
			&cli.StringFlag{
				Name:  "oauth--redirect-url",
				Usage: "callback URL registered with X",
				Value: app.DefaultConfigRedirectURL,
			},
			&cli.DurationFlag{
				Name:  "oauth--refresh-margin",
				Usage: "refresh access tokens this long before they expire",
			},
			&cli.StringFlag{
				Name:  "storage--type",
				Usage: "credential storage (memory|file|env|keyring|redis|sqlite|postgres)",
				Value: string(app.DefaultConfigStorageType),
			},
			&cli.StringFlag{
				Name:  "pending--type",
				Usage: "pending authorization store (memory|redis)",
				Value: string(app.DefaultConfigPendingType),
			},
			&cli.StringFlag{
				Name:  "redis--url",
				Usage: "Redis URL shared by redis-backed stores and job locks",
			},
			&cli.StringFlag{
				Name:  "llm--provider",
				Usage: "text generator (ollama|anthropic)",
				Value: string(app.DefaultConfigLLMProvider),
			},
			&cli.StringFlag{
				Name:  "llm--model",
				Usage: "model used for generated posts",
			},
			&cli.DurationFlag{
				Name:  "schedule--post-interval",
				Usage: "interval between generated posts (0 disables)",
			},
			&cli.DurationFlag{
				Name:  "schedule--quote-interval",
				Usage: "interval between quote posts (0 disables)",
			},
		},
		Action: startAction,
	}
}

func startAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up observability before creating app
	shutdownTelemetry, err := observability.Instrument(ctx, cfg.LogLevel, string(cfg.LogFormat))
	if err != nil {
		return fmt.Errorf("failed to set up observability layer: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryFlushTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			fmt.Fprintln(os.Stderr, "failed to flush telemetry:", err)
		}
	}()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	slog.InfoContext(ctx, "starting")

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}
