package services

import (
	"context"
	"time"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
	"morpheus/pkg/debounce"
	apperrors "morpheus/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	NotificationBanner = "banner"
	NotificationSystem = "system"
	NotificationInvite = "invite"
)

// SettingsSource reads settings at call time.
type SettingsSource interface {
	CurrentSettings() domain.Settings
}

// NotificationService rate-limits general notifications with a trailing
// debounce. Only the last message in a burst is shown.
type NotificationService struct {
	banners  ports.Banners
	system   ports.SystemNotifier
	settings SettingsSource
	logger   *zap.SugaredLogger
	metrics  ports.Metrics

	debouncer *debounce.Debouncer[string]
}

func NewNotificationService(
	banners ports.Banners,
	system ports.SystemNotifier,
	settings SettingsSource,
	delay time.Duration,
	after debounce.AfterFunc,
	logger *zap.SugaredLogger,
	metrics ports.Metrics,
) *NotificationService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}

	n := &NotificationService{
		banners:  banners,
		system:   system,
		settings: settings,
		logger:   logger,
		metrics:  metrics,
	}
	n.debouncer = debounce.New(delay, n.flush, debounce.WithAfterFunc(after))

	return n
}

// Show schedules message, superseding any message still inside the window.
func (n *NotificationService) Show(message string) {
	n.debouncer.Call(message)
}

// Stop drops any pending message.
func (n *NotificationService) Stop() {
	n.debouncer.Stop()
}

func (n *NotificationService) flush(message string) {
	if n.settings.CurrentSettings().NotificationDisabled {
		n.logger.Debugw("notification suppressed by settings", "message", message)
		return
	}

	key := uuid.NewString()
	n.banners.Enqueue(key, message, func() {
		n.banners.Close(key)
	})
	n.metrics.RecordNotification(NotificationBanner)

	if err := n.system.Notify(context.Background(), message); err != nil {
		err = apperrors.WrapSideEffect(err, "system_notification")
		n.metrics.RecordSideEffectFailure("system_notification")
		n.logger.Debugw("system notification failed", "error", err)
		return
	}
	n.metrics.RecordNotification(NotificationSystem)
}
