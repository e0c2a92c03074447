package monitoring

import (
	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements ports.Metrics.
type PrometheusCollector struct {
	eventsTotal         *prometheus.CounterVec
	eventsIgnoredTotal  *prometheus.CounterVec
	handlerPanicsTotal  *prometheus.CounterVec
	lookupMissesTotal   *prometheus.CounterVec
	sideEffectFailures  *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
	emitsTotal          *prometheus.CounterVec
	subscriptionsOpened prometheus.Counter
	subscriptionsActive prometheus.Gauge
}

var _ ports.Metrics = (*PrometheusCollector)(nil)

// NewPrometheusCollector registers every collector on reg. Pass
// prometheus.DefaultRegisterer to expose them on the default handler.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "morpheus_events_total",
			Help: "Events dispatched to a handler, by type",
		}, []string{"type"}),

		eventsIgnoredTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "morpheus_events_ignored_total",
			Help: "Events with no registered handler, by type",
		}, []string{"type"}),

		handlerPanicsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "morpheus_handler_panics_total",
			Help: "Recovered handler panics, by event type",
		}, []string{"type"}),

		lookupMissesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "morpheus_lookup_misses_total",
			Help: "Events ignored because their room was not in the room list",
		}, []string{"type"}),

		sideEffectFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "morpheus_side_effect_failures_total",
			Help: "Swallowed side-effect failures, by effect",
		}, []string{"effect"}),

		notificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "morpheus_notifications_total",
			Help: "Notifications shown, by kind",
		}, []string{"kind"}),

		emitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "morpheus_enter_room_emits_total",
			Help: "Enter-room announcements, by result",
		}, []string{"result"}),

		subscriptionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "morpheus_subscriptions_opened_total",
			Help: "Event subscriptions opened",
		}),

		subscriptionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "morpheus_subscriptions_active",
			Help: "Event subscriptions currently held",
		}),
	}
}

func (c *PrometheusCollector) RecordEvent(t domain.EventType) {
	c.eventsTotal.WithLabelValues(string(t)).Inc()
}

func (c *PrometheusCollector) RecordIgnoredEvent(t domain.EventType) {
	c.eventsIgnoredTotal.WithLabelValues(string(t)).Inc()
}

func (c *PrometheusCollector) RecordHandlerPanic(t domain.EventType) {
	c.handlerPanicsTotal.WithLabelValues(string(t)).Inc()
}

func (c *PrometheusCollector) RecordLookupMiss(t domain.EventType) {
	c.lookupMissesTotal.WithLabelValues(string(t)).Inc()
}

func (c *PrometheusCollector) RecordSideEffectFailure(effect string) {
	c.sideEffectFailures.WithLabelValues(effect).Inc()
}

func (c *PrometheusCollector) RecordNotification(kind string) {
	c.notificationsTotal.WithLabelValues(kind).Inc()
}

func (c *PrometheusCollector) RecordSubscriptionOpened() {
	c.subscriptionsOpened.Inc()
	c.subscriptionsActive.Inc()
}

func (c *PrometheusCollector) RecordSubscriptionClosed() {
	c.subscriptionsActive.Dec()
}

func (c *PrometheusCollector) RecordEmit(result string) {
	c.emitsTotal.WithLabelValues(result).Inc()
}
