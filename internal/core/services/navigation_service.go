package services

import (
	"context"
	"errors"
	"time"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
	apperrors "morpheus/pkg/errors"
	rlog "morpheus/pkg/logger"

	"go.uber.org/zap"
)

const (
	EmitSent   = "sent"
	EmitClosed = "closed"
	EmitFailed = "failed"

	emitTimeout    = 5 * time.Second
	persistTimeout = 3 * time.Second
)

// Scheduler runs fn on the session's loop after d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) *time.Timer
}

// NavigationService moves the local client into a room once the server
// approves entry and confirms the move back to the server.
type NavigationService struct {
	state     ports.StateMutator
	lastRooms ports.LastRoomRepository
	navigator ports.Navigator
	emitter   ports.RoomEmitter
	scheduler Scheduler
	// enterDelay lets the route transition commit before the server is told
	// the client is in the room.
	enterDelay time.Duration
	logger     *rlog.ContextLogger
	metrics    ports.Metrics
}

func NewNavigationService(
	state ports.StateMutator,
	lastRooms ports.LastRoomRepository,
	navigator ports.Navigator,
	emitter ports.RoomEmitter,
	scheduler Scheduler,
	enterDelay time.Duration,
	logger *zap.SugaredLogger,
	metrics ports.Metrics,
) *NavigationService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &NavigationService{
		state:      state,
		lastRooms:  lastRooms,
		navigator:  navigator,
		emitter:    emitter,
		scheduler:  scheduler,
		enterDelay: enterDelay,
		logger:     rlog.NewContextLogger(logger),
		metrics:    metrics,
	}
}

func (n *NavigationService) Register(r *EventRouter) {
	r.Handle(domain.EventEntryApproved, n.HandleEntryApproved)
}

func (n *NavigationService) HandleEntryApproved(ctx context.Context, snap domain.Snapshot, ev domain.Event) {
	room, ok := snap.FindRoom(ev.RoomID)
	if !ok {
		n.metrics.RecordLookupMiss(ev.Type)
		n.logger.Debugw(ctx, "ignoring entry approval", "error", apperrors.NewLookupMiss("room", string(ev.RoomID)))
		return
	}

	// The emit outlives this subscription: the current-room change below
	// triggers a re-subscription before the delay elapses.
	detached := context.WithoutCancel(ctx)

	n.persistLastRoom(detached, snap.CurrentUser.ID, room.ID)
	n.state.SetCurrentRoom(room)
	n.state.AddUser(snap.CurrentUser, room.ID)
	n.navigator.Replace(domain.OfficePath(room.ID))

	n.logger.Infow(ctx, "entry approved", "room_id", room.ID)

	n.scheduler.AfterFunc(n.enterDelay, func() {
		n.emitEnter(detached, room.ID)
	})
}

// persistLastRoom saves off the loop; the handler does not wait for it.
func (n *NavigationService) persistLastRoom(ctx context.Context, userID domain.UserID, roomID domain.RoomID) {
	if n.lastRooms == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(ctx, persistTimeout)
		defer cancel()

		if err := n.lastRooms.Save(ctx, userID, roomID); err != nil {
			n.metrics.RecordSideEffectFailure("persist_last_room")
			n.logger.Warnw(ctx, "failed to persist last room", "room_id", roomID, "error", apperrors.WrapSideEffect(err, "persist_last_room"))
		}
	}()
}

// emitEnter is best effort; a closed connection is not an error.
func (n *NavigationService) emitEnter(ctx context.Context, roomID domain.RoomID) {
	ctx, cancel := context.WithTimeout(ctx, emitTimeout)
	defer cancel()

	err := n.emitter.EmitEnterInRoom(ctx, roomID)
	switch {
	case err == nil:
		n.metrics.RecordEmit(EmitSent)
		n.logger.Debugw(ctx, "enter room emitted", "room_id", roomID)
	case errors.Is(err, domain.ErrConnectionClosed):
		n.metrics.RecordEmit(EmitClosed)
		n.logger.Debugw(ctx, "enter room not emitted, connection closed", "room_id", roomID)
	default:
		n.metrics.RecordEmit(EmitFailed)
		n.logger.Warnw(ctx, "enter room emit failed", "room_id", roomID, "error", apperrors.WrapConnection(err, "emit_enter_room"))
	}
}
