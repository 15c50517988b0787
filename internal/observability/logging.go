// Package observability provides logging, metrics, and tracing for the client.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the SDK.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// RequestID is the context key carrying the outbound request id.
const RequestID LogContextKey = "request_id"

// WithRequestID returns a new context carrying the given request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestID, id)
}

// ExtractRequestID retrieves the request id from the context.
func ExtractRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestID).(string); ok {
		return id
	}
	return ""
}

// RequestLogger provides structured logging for outbound API requests.
type RequestLogger struct {
	resource string
	logger   *Logger
}

// NewRequestLogger creates a RequestLogger for the given resource area.
func NewRequestLogger(resource string) *RequestLogger {
	return &RequestLogger{resource: resource, logger: GlobalLogger}
}

// LogRequest logs one outbound request with its route and status.
func (l *RequestLogger) LogRequest(ctx context.Context, method, route string, status int, fields map[string]any) {
	attrs := []any{
		slog.String("resource", l.resource),
		slog.String("method", method),
		slog.String("route", route),
		slog.Int("status", status),
		slog.String("request_id", ExtractRequestID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "api request", attrs...)
}

// LogError logs a failed outbound request.
func (l *RequestLogger) LogError(ctx context.Context, err error, method, route string) {
	l.logger.ErrorContext(ctx, "api request failed",
		slog.String("resource", l.resource),
		slog.String("method", method),
		slog.String("route", route),
		slog.String("request_id", ExtractRequestID(ctx)),
		slog.String("error", err.Error()),
	)
}
