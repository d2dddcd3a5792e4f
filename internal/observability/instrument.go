package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Supported log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatOTel = "otel"
)

// instrumentationName identifies this service's records in OpenTelemetry.
const instrumentationName = "github.com/florianilch/postbot"

// ShutdownFunc flushes and releases logging resources.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Instrument installs the default slog logger for the given level and format.
//
// The otel format exports log records through the OpenTelemetry log SDK. The
// exporter follows the standard environment variables: OTEL_LOGS_EXPORTER
// ("otlp" or "console") and OTEL_EXPORTER_OTLP_PROTOCOL ("http/protobuf" or
// "grpc"), with endpoints read by the exporters themselves.
//
// The returned ShutdownFunc must be called before exit to flush buffered records.
func Instrument(ctx context.Context, level slog.Level, format string) (ShutdownFunc, error) {
	return instrument(ctx, os.Stderr, level, format, os.Getenv)
}

func instrument(ctx context.Context, w io.Writer, level slog.Level, format string, getenv func(string) string) (ShutdownFunc, error) {
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case FormatText, "":
		slog.SetDefault(slog.New(slog.NewTextHandler(w, opts)))
		return noopShutdown, nil
	case FormatJSON:
		slog.SetDefault(slog.New(slog.NewJSONHandler(w, opts)))
		return noopShutdown, nil
	case FormatOTel:
		return instrumentOTel(ctx, w, level, getenv)
	default:
		return nil, fmt.Errorf("unsupported log format: %q", format)
	}
}

func instrumentOTel(ctx context.Context, w io.Writer, level slog.Level, getenv func(string) string) (ShutdownFunc, error) {
	exporter, err := newExporter(ctx, getenv)
	if err != nil {
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}

	// Export failures bypass the exporting handler
	fallback := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		fallback.Warn("opentelemetry error", "error", err)
	}))

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity(level))
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))
	global.SetLoggerProvider(provider)

	slog.SetDefault(slog.New(otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider))))

	return provider.Shutdown, nil
}

func newExporter(ctx context.Context, getenv func(string) string) (sdklog.Exporter, error) {
	switch strings.ToLower(getenv("OTEL_LOGS_EXPORTER")) {
	case "console", "stdout":
		return stdoutlog.New()
	case "", "otlp":
	default:
		return nil, fmt.Errorf("unsupported OTEL_LOGS_EXPORTER %q", getenv("OTEL_LOGS_EXPORTER"))
	}

	protocol := getenv("OTEL_EXPORTER_OTLP_LOGS_PROTOCOL")
	if protocol == "" {
		protocol = getenv("OTEL_EXPORTER_OTLP_PROTOCOL")
	}

	switch protocol {
	case "", "http/protobuf":
		return otlploghttp.New(ctx)
	case "grpc":
		return otlploggrpc.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

// severity maps a slog level onto the OpenTelemetry severity filter.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
