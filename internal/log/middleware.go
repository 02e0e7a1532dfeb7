package log

import (
	"context"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: ComponentApp,
	}
}

// ComponentMiddleware creates middleware that adds component context to the logger
func ComponentMiddleware(component string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).WithComponent(component)
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	FromContextOr(ctx, sl.logger).WithComponent(ComponentHTTP).DebugContext(ctx, "HTTP request started",
		FieldMethod, r.Method,
		FieldPath, r.URL.Path,
		FieldQuery, r.URL.RawQuery,
		FieldClientIP, clientIP,
		FieldUserAgent, r.Header.Get("User-Agent"))
}

// LogHTTPEnd logs the completion of an HTTP request; 4xx warn and 5xx error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	FromContextOr(ctx, sl.logger).WithComponent(ComponentHTTP).LogContext(ctx, level, "HTTP request completed",
		FieldMethod, r.Method,
		FieldPath, r.URL.Path,
		FieldStatusCode, statusCode,
		FieldDuration, durationMs,
		FieldClientIP, clientIP,
		FieldSuccess, statusCode < 400)
}

// LogTransactionWritten logs a successful transaction write.
func (sl *StructuredLogger) LogTransactionWritten(ctx context.Context, op string, t core.Transaction) {
	fields := NewFields().Operation(op).Transaction(t)
	FromContextOr(ctx, sl.logger).WithComponent(ComponentTransaction).InfoContext(ctx, "Transaction stored", fields.ToArgs()...)
}

// LogBudgetWritten logs a successful budget upsert.
func (sl *StructuredLogger) LogBudgetWritten(ctx context.Context, b core.Budget) {
	fields := NewFields().Operation(OpUpsert).Budget(b)
	FromContextOr(ctx, sl.logger).WithComponent(ComponentBudget).InfoContext(ctx, "Budget stored", fields.ToArgs()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.Error(err).Operation(operation)
	FromContextOr(ctx, sl.logger).WithComponent(component).ErrorContext(ctx, msg, fields.ToArgs()...)
}

// FromContextOr returns the request-scoped logger, falling back to def.
func FromContextOr(ctx context.Context, def *Logger) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	if def != nil {
		return def
	}
	return FromContext(ctx)
}
