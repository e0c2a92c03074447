package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"morpheus/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)

	c.RecordEvent(domain.EventKnock)
	c.RecordEvent(domain.EventKnock)
	c.RecordLookupMiss(domain.EventCall)
	c.RecordSideEffectFailure("audio_cue")
	c.RecordNotification("invite")
	c.RecordEmit("sent")
	c.RecordSubscriptionOpened()
	c.RecordSubscriptionOpened()
	c.RecordSubscriptionClosed()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.eventsTotal.WithLabelValues(string(domain.EventKnock))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lookupMissesTotal.WithLabelValues(string(domain.EventCall))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sideEffectFailures.WithLabelValues("audio_cue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notificationsTotal.WithLabelValues("invite")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.emitsTotal.WithLabelValues("sent")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.subscriptionsOpened))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.subscriptionsActive))
}

func TestPrometheusCollector_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewPrometheusCollector(prometheus.NewRegistry())
		NewPrometheusCollector(prometheus.NewRegistry())
	})
}

func TestHealthChecker(t *testing.T) {
	h := NewHealthChecker()
	assert.True(t, h.IsReady(context.Background()))

	loggedIn, active := true, false
	h.AddSessionCheck(func() bool { return loggedIn }, func() bool { return active })
	h.AddCheck("always", func(context.Context) error { return nil }, time.Second)

	status := h.CheckAll(context.Background())
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.Equal(t, StatusHealthy, status.Checks["always"])
	assert.NotEqual(t, StatusHealthy, status.Checks["session"])

	active = true
	assert.True(t, h.IsReady(context.Background()))
}

func TestHealthChecker_Timeout(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return errors.New("timed out")
	}, 10*time.Millisecond)

	status := h.CheckAll(context.Background())
	assert.Equal(t, "timed out", status.Checks["slow"])
}
