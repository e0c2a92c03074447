package services

import (
	"context"
	"fmt"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
	rlog "morpheus/pkg/logger"
	"morpheus/pkg/tracing"

	"go.uber.org/zap"
)

// HandlerFunc handles one event. snap is the latest host snapshot at
// dispatch time.
type HandlerFunc func(ctx context.Context, snap domain.Snapshot, ev domain.Event)

// EventRouter maps event types to handlers.
type EventRouter struct {
	handlers map[domain.EventType]HandlerFunc
	logger   *rlog.ContextLogger
	metrics  ports.Metrics
}

func NewEventRouter(logger *zap.SugaredLogger, metrics ports.Metrics) *EventRouter {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &EventRouter{
		handlers: make(map[domain.EventType]HandlerFunc),
		logger:   rlog.NewContextLogger(logger),
		metrics:  metrics,
	}
}

// Handle registers h for t, replacing any previous handler.
func (r *EventRouter) Handle(t domain.EventType, h HandlerFunc) {
	r.handlers[t] = h
}

// Handles reports whether a handler is registered for t.
func (r *EventRouter) Handles(t domain.EventType) bool {
	_, ok := r.handlers[t]
	return ok
}

// Dispatch runs the handler for ev. A panicking handler is recovered and
// counted; it never reaches the caller.
func (r *EventRouter) Dispatch(ctx context.Context, subscriptionID string, snap domain.Snapshot, ev domain.Event) {
	ctx = rlog.WithEventType(ctx, string(ev.Type))

	h, ok := r.handlers[ev.Type]
	if !ok {
		r.logger.Debugw(ctx, "no handler for event")
		r.metrics.RecordIgnoredEvent(ev.Type)
		return
	}

	userID := ev.User.ID
	if userID == "" {
		userID = ev.UserID
	}
	ctx, span := tracing.TraceEvent(ctx, string(ev.Type), subscriptionID, string(ev.RoomID), string(userID))
	defer span.End()

	r.metrics.RecordEvent(ev.Type)

	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.RecordHandlerPanic(ev.Type)
			tracing.RecordError(ctx, fmt.Errorf("handler panic: %v", rec))
			r.logger.Errorw(ctx, "event handler panicked", "panic", rec)
		}
	}()

	h(ctx, snap, ev)
}
