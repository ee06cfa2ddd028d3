package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ContextKey is a type for context keys used by the logger
type ContextKey string

const (
	// RequestIDKey is the context key for request IDs
	RequestIDKey ContextKey = "request_id"
	// SimulationIDKey is the context key for simulation ids
	SimulationIDKey ContextKey = "sim_id"
)

var defaultLogger *slog.Logger

// Init initializes the global logger on stdout with the specified log level.
func Init(levelStr string) {
	InitWriter(levelStr, os.Stdout)
}

// InitWriter initializes the global logger on w. The terminal viewer uses it
// to keep log lines off the screen it draws on.
func InitWriter(levelStr string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: parseLevel(levelStr)}

	var handler slog.Handler
	if os.Getenv("ENV") == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func parseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Get returns the default logger
func Get() *slog.Logger {
	if defaultLogger == nil {
		Init("info")
	}
	return defaultLogger
}

// FromContext returns a logger carrying the request and simulation ids found in ctx.
func FromContext(ctx context.Context) *slog.Logger {
	l := Get()
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok && reqID != "" {
		l = l.With("request_id", reqID)
	}
	if simID, ok := ctx.Value(SimulationIDKey).(string); ok && simID != "" {
		l = l.With("sim_id", simID)
	}
	return l
}

// WithRequestID is kept for handlers that only care about the request id.
func WithRequestID(ctx context.Context) *slog.Logger {
	return FromContext(ctx)
}

// WithComponent returns a logger with a component label
func WithComponent(component string) *slog.Logger {
	return Get().With("component", component)
}

// WithSimulation returns a component logger bound to one simulation.
func WithSimulation(component, simID string) *slog.Logger {
	return WithComponent(component).With("sim_id", simID)
}

// ContextWithSimulation stores a simulation id for FromContext.
func ContextWithSimulation(ctx context.Context, simID string) context.Context {
	return context.WithValue(ctx, SimulationIDKey, simID)
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }

func DebugContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Error(msg, args...)
}
