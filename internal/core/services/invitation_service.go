package services

import (
	"context"
	"fmt"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
	apperrors "morpheus/pkg/errors"
	rlog "morpheus/pkg/logger"

	"go.uber.org/zap"
)

// InvitationService surfaces knock requests and meeting calls. Outcomes of
// both dialogs are handled by the host.
type InvitationService struct {
	dialogs ports.Dialogs
	system  ports.SystemNotifier
	logger  *rlog.ContextLogger
	metrics ports.Metrics
}

func NewInvitationService(
	dialogs ports.Dialogs,
	system ports.SystemNotifier,
	logger *zap.SugaredLogger,
	metrics ports.Metrics,
) *InvitationService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &InvitationService{
		dialogs: dialogs,
		system:  system,
		logger:  rlog.NewContextLogger(logger),
		metrics: metrics,
	}
}

func (i *InvitationService) Register(r *EventRouter) {
	r.Handle(domain.EventKnock, i.HandleKnock)
	r.Handle(domain.EventCall, i.HandleCall)
}

func (i *InvitationService) HandleKnock(ctx context.Context, snap domain.Snapshot, ev domain.Event) {
	room, ok := i.resolve(ctx, snap, ev)
	if !ok {
		return
	}

	i.dialogs.OpenAnswerKnock(ev.User, room)
	i.logger.Infow(ctx, "knock received", "user_id", ev.User.ID, "room_id", room.ID)
}

// HandleCall opens the invite UI and raises a system notification on every
// call. Invites never go through the debouncer.
func (i *InvitationService) HandleCall(ctx context.Context, snap domain.Snapshot, ev domain.Event) {
	room, ok := i.resolve(ctx, snap, ev)
	if !ok {
		return
	}

	i.dialogs.OpenReceiveInvite(domain.Invitation{User: ev.User, Room: room})
	i.logger.Infow(ctx, "invitation received", "user_id", ev.User.ID, "room_id", room.ID)

	if snap.Settings.NotificationDisabled {
		return
	}

	message := fmt.Sprintf("%s is inviting you to %s", ev.User.Name, room.Name)
	if err := i.system.Notify(ctx, message); err != nil {
		i.metrics.RecordSideEffectFailure("system_notification")
		i.logger.Debugw(ctx, "invite notification failed", "error", apperrors.WrapSideEffect(err, "system_notification"))
		return
	}
	i.metrics.RecordNotification(NotificationInvite)
}

func (i *InvitationService) resolve(ctx context.Context, snap domain.Snapshot, ev domain.Event) (domain.Room, bool) {
	room, ok := snap.FindRoom(ev.RoomID)
	if !ok {
		i.metrics.RecordLookupMiss(ev.Type)
		i.logger.Debugw(ctx, "ignoring event for unknown room", "error", apperrors.NewLookupMiss("room", string(ev.RoomID)))
	}
	return room, ok
}
