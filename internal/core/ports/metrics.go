package ports

import "morpheus/internal/core/domain"

type Metrics interface {
	RecordEvent(eventType domain.EventType)
	RecordIgnoredEvent(eventType domain.EventType)
	RecordHandlerPanic(eventType domain.EventType)
	RecordLookupMiss(eventType domain.EventType)
	RecordSideEffectFailure(effect string)
	RecordNotification(kind string)
	RecordSubscriptionOpened()
	RecordSubscriptionClosed()
	RecordEmit(result string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordEvent(domain.EventType)        {}
func (NopMetrics) RecordIgnoredEvent(domain.EventType) {}
func (NopMetrics) RecordHandlerPanic(domain.EventType) {}
func (NopMetrics) RecordLookupMiss(domain.EventType)   {}
func (NopMetrics) RecordSideEffectFailure(string)      {}
func (NopMetrics) RecordNotification(string)           {}
func (NopMetrics) RecordSubscriptionOpened()           {}
func (NopMetrics) RecordSubscriptionClosed()           {}
func (NopMetrics) RecordEmit(string)                   {}
