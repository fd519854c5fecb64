package audit

import (
	"context"
	"log/slog"
	"time"
)

type requestIDKey struct{}

// WithRequestID stores the request id that audit entries are correlated by
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Logger writes one structured entry per state change made on behalf of a household
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("log_type", "audit"))}
}

func (al *Logger) LogAction(ctx context.Context, householdID, memberID, action, resource, resourceID, status, details string) {
	al.logger.InfoContext(ctx, "audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("household_id", householdID),
		slog.String("member_id", memberID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", RequestID(ctx)),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// LogMutation records a successful create, update or delete
func (al *Logger) LogMutation(ctx context.Context, householdID, memberID, action, resource, resourceID string) {
	al.LogAction(ctx, householdID, memberID, action, resource, resourceID, "ok", "")
}

// LogDenied records a write refused by the scoping policy
func (al *Logger) LogDenied(ctx context.Context, householdID, memberID, resource, resourceID, reason string) {
	al.LogAction(ctx, householdID, memberID, "denied", resource, resourceID, "denied", reason)
}
