// Package log provides structured logging for the Miraal assistant.
// It wraps slog with the process-wide setup the commands share: a
// level picked from flags or env, text output for development, and
// JSON when the assistant runs in production.
package log

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once
)

type options struct {
	level  slog.Level
	json   bool
	writer io.Writer
}

// Option adjusts the logger built by Init.
type Option func(*options)

// WithLevel sets the minimum level by name.
// Valid levels: "debug", "info", "warn", "error"; anything else is info.
func WithLevel(level string) Option {
	return func(o *options) {
		o.level = parseLevel(level)
	}
}

// WithJSON switches between JSON and text output.
func WithJSON(enabled bool) Option {
	return func(o *options) {
		o.json = enabled
	}
}

// WithWriter redirects log output, mainly for tests.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func build(opts ...Option) *slog.Logger {
	o := options{
		level:  slog.LevelInfo,
		json:   os.Getenv("GO_ENV") == "production",
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	hopts := &slog.HandlerOptions{Level: o.level}
	if o.json {
		return slog.New(slog.NewJSONHandler(o.writer, hopts))
	}
	return slog.New(slog.NewTextHandler(o.writer, hopts))
}

// Init builds the global logger and installs it as the slog default.
// Only the first call takes effect; it returns the global logger.
func Init(opts ...Option) *slog.Logger {
	once.Do(func() {
		logger = build(opts...)
		slog.SetDefault(logger)
	})
	return logger
}

// L returns the global logger instance.
func L() *slog.Logger {
	if logger == nil {
		Init()
	}
	return logger
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
