package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"morpheus/internal/core/domain"
	"morpheus/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	mu     sync.Mutex
	events []domain.Event
	snaps  []domain.Snapshot
}

func (l *eventLog) handle(_ context.Context, snap domain.Snapshot, ev domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	l.snaps = append(l.snaps, snap)
}

func (l *eventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func (l *eventLog) LastSnapshot() domain.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snaps[len(l.snaps)-1]
}

func newTestSession(t *testing.T) (*SessionService, *testutil.FakeTransport, *testutil.RecordingMetrics) {
	t.Helper()

	transport := testutil.NewFakeTransport()
	metrics := testutil.NewRecordingMetrics()
	s := NewSessionService(transport, NewEventLoop(nopLogger()), nopLogger(), metrics)
	t.Cleanup(s.Close)

	return s, transport, metrics
}

func TestSessionService_NoSubscriptionWhileLoggedOut(t *testing.T) {
	s, transport, _ := newTestSession(t)

	s.Update(domain.Snapshot{Rooms: []domain.Room{lobby}})
	s.Flush()

	assert.False(t, s.Active())
	assert.Empty(t, transport.Subscriptions())
	assert.Zero(t, transport.CloseCalls())
}

func TestSessionService_AcquiresOnLogin(t *testing.T) {
	s, transport, metrics := newTestSession(t)

	s.Update(loggedIn(lobby, patio))
	s.Flush()

	assert.True(t, s.Active())
	require.Len(t, transport.Subscriptions(), 1)
	assert.Equal(t, [][]domain.Room{{lobby, patio}}, transport.InitRooms())
	assert.Zero(t, transport.CloseCalls())
	assert.Equal(t, 1, metrics.Count("subscription_opened"))
}

func TestSessionService_IgnoresNonDependencyChanges(t *testing.T) {
	s, transport, _ := newTestSession(t)

	snap := loggedIn(lobby)
	s.Update(snap)
	snap.CurrentUser.Name = "Alice Cooper"
	s.Update(snap)
	s.Flush()

	assert.Len(t, transport.Subscriptions(), 1)
	assert.Zero(t, transport.CloseCalls())
	assert.Equal(t, "Alice Cooper", s.Current().CurrentUser.Name)
}

func TestSessionService_ResubscribesOnDependencyChange(t *testing.T) {
	tests := []struct {
		name   string
		change func(domain.Snapshot) domain.Snapshot
	}{
		{
			name:   "current room",
			change: func(s domain.Snapshot) domain.Snapshot { return inRoom(s, lobby) },
		},
		{
			name: "room list",
			change: func(s domain.Snapshot) domain.Snapshot {
				s.Rooms = []domain.Room{lobby, patio}
				return s
			},
		},
		{
			name: "current user",
			change: func(s domain.Snapshot) domain.Snapshot {
				s.CurrentUser = bob
				return s
			},
		},
		{
			name: "notification setting",
			change: func(s domain.Snapshot) domain.Snapshot {
				s.Settings.NotificationDisabled = true
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, transport, _ := newTestSession(t)

			snap := loggedIn(lobby)
			s.Update(snap)
			s.Update(tt.change(snap))
			s.Flush()

			subs := transport.Subscriptions()
			require.Len(t, subs, 2)
			assert.True(t, subs[0].Closed())
			assert.False(t, subs[1].Closed())
			assert.Equal(t, 1, transport.OpenSubscriptions())
			assert.Equal(t, 1, transport.CloseCalls())
			assert.True(t, s.Active())
		})
	}
}

func TestSessionService_LogoutReleases(t *testing.T) {
	s, transport, metrics := newTestSession(t)

	s.Update(loggedIn(lobby))
	s.Update(domain.Snapshot{Rooms: []domain.Room{lobby}})
	s.Flush()

	assert.False(t, s.Active())
	assert.Zero(t, transport.OpenSubscriptions())
	assert.Equal(t, 1, transport.CloseCalls())
	assert.Equal(t, 1, metrics.Count("subscription_closed"))
}

func TestSessionService_CloseIsIdempotent(t *testing.T) {
	s, transport, _ := newTestSession(t)

	s.Update(loggedIn(lobby))
	s.Flush()

	s.Close()
	s.Close()

	assert.False(t, s.Active())
	assert.Zero(t, transport.OpenSubscriptions())
	assert.Equal(t, 1, transport.CloseCalls())

	s.Update(loggedIn(patio))
	s.Flush()
	assert.Len(t, transport.Subscriptions(), 1)
}

func TestSessionService_CloseWithoutUpdate(t *testing.T) {
	s, transport, _ := newTestSession(t)

	s.Close()

	assert.Zero(t, transport.CloseCalls())
}

func TestSessionService_HandlersSeeLatestSnapshot(t *testing.T) {
	s, transport, _ := newTestSession(t)
	log := &eventLog{}
	s.Router().Handle(domain.EventKnock, log.handle)

	snap := loggedIn(lobby)
	s.Update(snap)
	snap.CurrentUser.Name = "Alice Cooper"
	s.Update(snap)
	s.Flush()

	require.True(t, transport.Push(domain.UserRoomEvent(domain.EventKnock, bob, lobby.ID)))

	assert.Eventually(t, func() bool { return log.Len() == 1 }, waitFor, tick)
	assert.Equal(t, "Alice Cooper", log.LastSnapshot().CurrentUser.Name)
}

func TestSessionService_HandlerPanicDoesNotStopStream(t *testing.T) {
	s, transport, metrics := newTestSession(t)
	log := &eventLog{}
	s.Router().Handle(domain.EventCall, func(context.Context, domain.Snapshot, domain.Event) {
		panic("handler bug")
	})
	s.Router().Handle(domain.EventKnock, log.handle)

	s.Update(loggedIn(lobby))
	s.Flush()

	transport.Push(domain.UserRoomEvent(domain.EventCall, bob, lobby.ID))
	transport.Push(domain.UserRoomEvent(domain.EventKnock, bob, lobby.ID))

	assert.Eventually(t, func() bool { return log.Len() == 1 }, waitFor, tick)
	assert.Equal(t, 1, metrics.Count("panic:invitation.call"))
	assert.True(t, s.Active())
}

func TestSessionService_HandlerMayUpdate(t *testing.T) {
	s, transport, _ := newTestSession(t)
	s.Router().Handle(domain.EventEntryApproved, func(_ context.Context, snap domain.Snapshot, ev domain.Event) {
		room, _ := snap.FindRoom(ev.RoomID)
		s.Update(inRoom(snap, room))
	})

	s.Update(loggedIn(lobby))
	s.Flush()
	transport.Push(domain.UserRoomEvent(domain.EventEntryApproved, alice, lobby.ID))

	assert.Eventually(t, func() bool {
		return len(transport.Subscriptions()) == 2 && s.Active()
	}, waitFor, tick)
	assert.Equal(t, lobby.ID, s.Current().CurrentRoom.ID)
	assert.Equal(t, 1, transport.OpenSubscriptions())
}

func TestSessionService_StreamClosedByTransport(t *testing.T) {
	s, transport, metrics := newTestSession(t)

	s.Update(loggedIn(lobby))
	s.Flush()
	require.NoError(t, transport.Current().Close())

	assert.Eventually(t, func() bool { return !s.Active() }, waitFor, tick)
	assert.Equal(t, 1, metrics.Count("subscription_closed"))

	s.Update(inRoom(loggedIn(lobby), lobby))
	s.Flush()
	assert.Len(t, transport.Subscriptions(), 2)
	assert.True(t, s.Active())
}

func TestSessionService_SubscribeFailure(t *testing.T) {
	s, transport, metrics := newTestSession(t)
	transport.InitErr = errors.New("dial refused")

	s.Update(loggedIn(lobby))
	s.Flush()

	assert.False(t, s.Active())
	assert.Equal(t, 1, metrics.Count("side_effect:subscribe"))
}

func TestSessionService_RunClosesOnCancel(t *testing.T) {
	s, transport, _ := newTestSession(t)

	s.Update(loggedIn(lobby))
	s.Flush()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, waitFor, tick)
	assert.Zero(t, transport.OpenSubscriptions())
}

func TestSessionService_QueuedEventSeesUpdateFromEarlierHandler(t *testing.T) {
	s, transport, _ := newTestSession(t)
	log := &eventLog{}
	s.Router().Handle(domain.EventRoomsUpdated, func(_ context.Context, snap domain.Snapshot, ev domain.Event) {
		snap.Rooms = ev.Rooms
		s.Update(snap)
	})
	s.Router().Handle(domain.EventKnock, log.handle)

	s.Update(loggedIn(lobby))
	s.Flush()

	release := hold(t, s.loop)
	transport.Push(domain.RoomsUpdated([]domain.Room{lobby, patio}))
	transport.Push(domain.UserRoomEvent(domain.EventKnock, bob, patio.ID))
	require.Eventually(t, func() bool { return s.loop.queued() == 2 }, waitFor, tick)
	release()

	require.Eventually(t, func() bool { return log.Len() == 1 }, waitFor, tick)
	_, ok := log.LastSnapshot().FindRoom(patio.ID)
	assert.True(t, ok)
}
