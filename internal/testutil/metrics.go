package testutil

import (
	"sync"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
)

// RecordingMetrics counts every recorded metric by a "name:label" key.
type RecordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

var _ ports.Metrics = (*RecordingMetrics)(nil)

func NewRecordingMetrics() *RecordingMetrics {
	return &RecordingMetrics{counts: make(map[string]int)}
}

func (m *RecordingMetrics) inc(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
}

// Count returns the number of times key was recorded, e.g.
// "lookup_miss:invitation.knock" or "subscription_opened".
func (m *RecordingMetrics) Count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

func (m *RecordingMetrics) RecordEvent(t domain.EventType)        { m.inc("event:" + string(t)) }
func (m *RecordingMetrics) RecordIgnoredEvent(t domain.EventType) { m.inc("ignored:" + string(t)) }
func (m *RecordingMetrics) RecordHandlerPanic(t domain.EventType) { m.inc("panic:" + string(t)) }
func (m *RecordingMetrics) RecordLookupMiss(t domain.EventType)   { m.inc("lookup_miss:" + string(t)) }
func (m *RecordingMetrics) RecordSideEffectFailure(effect string) { m.inc("side_effect:" + effect) }
func (m *RecordingMetrics) RecordNotification(kind string)        { m.inc("notification:" + kind) }
func (m *RecordingMetrics) RecordSubscriptionOpened()             { m.inc("subscription_opened") }
func (m *RecordingMetrics) RecordSubscriptionClosed()             { m.inc("subscription_closed") }
func (m *RecordingMetrics) RecordEmit(result string)              { m.inc("emit:" + result) }
