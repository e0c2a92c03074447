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

// Notifier is the debounced message sink.
type Notifier interface {
	Show(message string)
}

// PresenceService reconciles the room roster and the office aggregate.
type PresenceService struct {
	state    ports.StateMutator
	notifier Notifier
	logger   *rlog.ContextLogger
	metrics  ports.Metrics

	// Presence notifications on join are suppressed unless enabled.
	announceJoins bool
}

func NewPresenceService(
	state ports.StateMutator,
	notifier Notifier,
	announceJoins bool,
	logger *zap.SugaredLogger,
	metrics ports.Metrics,
) *PresenceService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &PresenceService{
		state:         state,
		notifier:      notifier,
		announceJoins: announceJoins,
		logger:        rlog.NewContextLogger(logger),
		metrics:       metrics,
	}
}

func (p *PresenceService) Register(r *EventRouter) {
	r.Handle(domain.EventRoomsUpdated, p.HandleRoomsUpdated)
	r.Handle(domain.EventOfficeSynced, p.HandleOfficeSynced)
	r.Handle(domain.EventParticipantJoined, p.HandleParticipantJoined)
	r.Handle(domain.EventParticipantDisconnected, p.HandleParticipantDisconnected)
}

// HandleRoomsUpdated overwrites the room list; nothing is merged.
func (p *PresenceService) HandleRoomsUpdated(ctx context.Context, _ domain.Snapshot, ev domain.Event) {
	p.state.UpdateRooms(ev.Rooms)
	p.logger.Debugw(ctx, "rooms replaced", "rooms", len(ev.Rooms))
}

// HandleOfficeSynced overwrites the office aggregate.
func (p *PresenceService) HandleOfficeSynced(ctx context.Context, _ domain.Snapshot, ev domain.Event) {
	p.state.SyncOffice(ev.Office)
	p.logger.Debugw(ctx, "office synced", "rooms", len(ev.Office.Rooms), "users", len(ev.Office.Users))
}

func (p *PresenceService) HandleParticipantJoined(ctx context.Context, snap domain.Snapshot, ev domain.Event) {
	p.state.AddUser(ev.User, ev.RoomID)

	if snap.IsCurrentUser(ev.User.ID) || !snap.IsCurrentRoom(ev.RoomID) {
		return
	}
	p.announceJoin(ctx, snap, ev)
}

func (p *PresenceService) announceJoin(ctx context.Context, snap domain.Snapshot, ev domain.Event) {
	if !p.announceJoins {
		return
	}

	room, ok := snap.FindRoom(ev.RoomID)
	if !ok {
		p.metrics.RecordLookupMiss(ev.Type)
		p.logger.Debugw(ctx, "ignoring join announcement", "error", apperrors.NewLookupMiss("room", string(ev.RoomID)))
		return
	}
	p.notifier.Show(fmt.Sprintf("%s entered %s.", ev.User.Name, room.Name))
}

// HandleParticipantDisconnected removes the user everywhere.
func (p *PresenceService) HandleParticipantDisconnected(ctx context.Context, _ domain.Snapshot, ev domain.Event) {
	p.state.RemoveUser(ev.UserID)
	p.logger.Debugw(ctx, "participant disconnected", "user_id", ev.UserID)
}
