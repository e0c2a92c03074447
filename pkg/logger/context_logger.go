package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const (
	subscriptionIDKey ctxKey = "subscription_id"
	eventTypeKey      ctxKey = "event_type"
)

// WithSubscriptionID tags ctx with the live subscription's id.
func WithSubscriptionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, subscriptionIDKey, id)
}

// WithEventType tags ctx with the event being dispatched.
func WithEventType(ctx context.Context, eventType string) context.Context {
	return context.WithValue(ctx, eventTypeKey, eventType)
}

// ContextLogger provides context-aware logging
type ContextLogger struct {
	logger *zap.SugaredLogger
}

func NewContextLogger(logger *zap.SugaredLogger) *ContextLogger {
	return &ContextLogger{
		logger: logger,
	}
}

// WithContext returns a logger carrying the subscription and event fields
// found in ctx.
func (cl *ContextLogger) WithContext(ctx context.Context) *zap.SugaredLogger {
	fields := []zapcore.Field{}

	if id, ok := ctx.Value(subscriptionIDKey).(string); ok && id != "" {
		fields = append(fields, zap.String(string(subscriptionIDKey), id))
	}
	if t, ok := ctx.Value(eventTypeKey).(string); ok && t != "" {
		fields = append(fields, zap.String(string(eventTypeKey), t))
	}

	if len(fields) == 0 {
		return cl.logger
	}

	return cl.logger.Desugar().With(fields...).Sugar()
}

func (cl *ContextLogger) Debugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	cl.WithContext(ctx).Debugw(msg, keysAndValues...)
}

func (cl *ContextLogger) Infow(ctx context.Context, msg string, keysAndValues ...interface{}) {
	cl.WithContext(ctx).Infow(msg, keysAndValues...)
}

func (cl *ContextLogger) Warnw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	cl.WithContext(ctx).Warnw(msg, keysAndValues...)
}

func (cl *ContextLogger) Errorw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	cl.WithContext(ctx).Errorw(msg, keysAndValues...)
}
