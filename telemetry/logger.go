// Package telemetry wraps structured logging and OpenTelemetry metrics/trace
// instruments for the harness behind small, nil-safe types so callers never
// need a nil check before recording a phase or emitting a log line.
package telemetry

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with context-aware convenience methods.
type Logger struct {
	inner *slog.Logger
}

// LogOption configures a Logger created by NewLogger.
type LogOption func(*loggerConfig)

type loggerConfig struct {
	level   slog.Level
	handler slog.Handler
}

// WithLevel sets the minimum log level. Accepted values: "debug", "info",
// "warn", "error"; unrecognized values leave the default ("info") in place.
func WithLevel(level string) LogOption {
	return func(cfg *loggerConfig) {
		switch level {
		case "debug":
			cfg.level = slog.LevelDebug
		case "info":
			cfg.level = slog.LevelInfo
		case "warn":
			cfg.level = slog.LevelWarn
		case "error":
			cfg.level = slog.LevelError
		}
	}
}

// WithJSON configures the logger to emit JSON-formatted output.
func WithJSON() LogOption {
	return func(cfg *loggerConfig) {
		cfg.handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.level})
	}
}

// NewLogger creates a Logger with the given options; without options it
// defaults to info-level text output on stdout.
func NewLogger(opts ...LogOption) *Logger {
	cfg := &loggerConfig{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.handler == nil {
		cfg.handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.level})
	}
	return &Logger{inner: slog.New(cfg.handler)}
}

// Slog returns the underlying *slog.Logger for interop.
func (l *Logger) Slog() *slog.Logger { return l.inner }

func (l *Logger) Info(ctx context.Context, msg string, attrs ...any) {
	l.inner.InfoContext(ctx, msg, attrs...)
}

func (l *Logger) Warn(ctx context.Context, msg string, attrs ...any) {
	l.inner.WarnContext(ctx, msg, attrs...)
}

func (l *Logger) Error(ctx context.Context, msg string, attrs ...any) {
	l.inner.ErrorContext(ctx, msg, attrs...)
}

func (l *Logger) Debug(ctx context.Context, msg string, attrs ...any) {
	l.inner.DebugContext(ctx, msg, attrs...)
}
