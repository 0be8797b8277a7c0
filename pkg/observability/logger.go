// Package observability provides the structured logging, metrics and
// request-context plumbing shared by every Engage binary.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LogFormat selects the log encoding.
type LogFormat string

const (
	// LogFormatText is human-readable output for terminals.
	LogFormatText LogFormat = "text"
	// LogFormatJSON is machine-readable output for log pipelines.
	LogFormatJSON LogFormat = "json"
)

// LogLevel names a minimum severity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogConfig configures a logger built by NewLogger.
type LogConfig struct {
	// Level is the minimum severity that gets emitted.
	Level LogLevel
	// Format selects text or json encoding.
	Format LogFormat
	// Output receives the log stream. Defaults to os.Stderr.
	Output io.Writer
	// AddSource includes the calling file and line in every record.
	AddSource bool
	// ServiceName is stamped on every record as "service".
	ServiceName string
	// ServiceVersion is stamped on every record as "version".
	ServiceVersion string
}

// DefaultLogConfig is the development setup: text to stderr at info.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatText,
		Output:         os.Stderr,
		ServiceName:    "engage",
		ServiceVersion: "dev",
	}
}

// ProductionLogConfig is the server setup: json to stdout with source
// locations, ready for a log collector.
func ProductionLogConfig() LogConfig {
	return LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatJSON,
		Output:         os.Stdout,
		AddSource:      true,
		ServiceName:    "engage",
		ServiceVersion: "unknown",
	}
}

// NewLogger builds a slog.Logger from the config. Every record carries
// the service identity, and records logged through a context pick up the
// correlation and request ids stored there.
func NewLogger(cfg LogConfig) *slog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level.slogLevel(),
		AddSource: cfg.AddSource,
	}

	var inner slog.Handler
	if cfg.Format == LogFormatJSON {
		inner = slog.NewJSONHandler(output, opts)
	} else {
		inner = slog.NewTextHandler(output, opts)
	}

	var identity []slog.Attr
	if cfg.ServiceName != "" {
		identity = append(identity, slog.String("service", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		identity = append(identity, slog.String("version", cfg.ServiceVersion))
	}

	return slog.New(&attributeHandler{handler: inner, attrs: identity})
}

// LoggerFromEnv builds a logger from the environment: APP_ENV=production
// switches to the production config, and LOG_LEVEL, LOG_FORMAT and
// ENGAGE_VERSION override individual fields.
func LoggerFromEnv() *slog.Logger {
	cfg := DefaultLogConfig()
	if os.Getenv("APP_ENV") == "production" {
		cfg = ProductionLogConfig()
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = LogLevel(level)
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = LogFormat(format)
	}
	if version := os.Getenv("ENGAGE_VERSION"); version != "" {
		cfg.ServiceVersion = version
	}

	return NewLogger(cfg)
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// attributeHandler stamps service identity on every record and lifts the
// correlation and request ids out of the context, so call sites log them
// without threading the values explicitly.
type attributeHandler struct {
	handler slog.Handler
	attrs   []slog.Attr
}

func (h *attributeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *attributeHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.attrs...)

	if corrID := CorrelationIDFromContext(ctx); corrID != "" {
		r.AddAttrs(slog.String(CorrelationIDKey, corrID))
	}
	if reqID := RequestIDFromContext(ctx); reqID != "" {
		r.AddAttrs(slog.String(RequestIDKey, reqID))
	}

	return h.handler.Handle(ctx, r)
}

func (h *attributeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &attributeHandler{handler: h.handler.WithAttrs(attrs), attrs: h.attrs}
}

func (h *attributeHandler) WithGroup(name string) slog.Handler {
	return &attributeHandler{handler: h.handler.WithGroup(name), attrs: h.attrs}
}
