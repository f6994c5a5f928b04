// Package logging provides structured logging with trace-ID propagation.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContextKey is the type for context keys this package reads/writes.
type ContextKey string

const (
	TraceIDKey ContextKey = "trace_id"
	UserIDKey  ContextKey = "user_id"
)

// Logger wraps logrus.Logger, tagging every entry with the owning service.
type Logger struct {
	*logrus.Logger
	service string
}

// New creates a Logger for service, at the given level ("debug"|"info"|...)
// and format ("json"|"text").
func New(service, level, format string) *Logger {
	logger := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{TimestampFormat: time.RFC3339, FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}
	logger.SetOutput(os.Stdout)

	return &Logger{Logger: logger, service: service}
}

// NewFromEnv builds a Logger reading LOG_LEVEL/LOG_FORMAT, defaulting to
// "info"/"json".
func NewFromEnv(service string) *Logger {
	level := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	if format == "" {
		format = "json"
	}
	return New(service, level, format)
}

// WithContext returns an entry carrying trace/user IDs found on ctx.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("service", l.service)
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok && traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		entry = entry.WithField("user_id", userID)
	}
	return entry
}

// NewTraceID mints a fresh trace ID.
func NewTraceID() string { return uuid.NewString() }

// GetTraceID reads the trace ID stashed on ctx, if any.
func GetTraceID(ctx context.Context) string {
	v, _ := ctx.Value(TraceIDKey).(string)
	return v
}

// ContextWithTraceID returns a child context carrying traceID.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// ContextWithUserID returns a child context carrying the resolved username.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserIDFromContext reads the resolved username stashed on ctx, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(UserIDKey).(string)
	return v, ok
}
