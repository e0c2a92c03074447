package services

import (
	"context"
	"testing"

	"morpheus/internal/core/domain"
	"morpheus/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestPresence(t *testing.T, announce bool) (*PresenceService, *testutil.RecordingState, *spyNotifier, *testutil.RecordingMetrics) {
	state := &testutil.RecordingState{}
	notifier := &spyNotifier{}
	metrics := testutil.NewRecordingMetrics()
	return NewPresenceService(state, notifier, announce, zaptest.NewLogger(t).Sugar(), metrics), state, notifier, metrics
}

func TestPresenceService_Register(t *testing.T) {
	p, _, _, _ := newTestPresence(t, false)
	r := NewEventRouter(zaptest.NewLogger(t).Sugar(), nil)
	p.Register(r)

	for _, et := range []domain.EventType{
		domain.EventRoomsUpdated,
		domain.EventOfficeSynced,
		domain.EventParticipantJoined,
		domain.EventParticipantDisconnected,
	} {
		assert.True(t, r.Handles(et), et)
	}
}

func TestPresenceService_RoomsAndOfficeOverwrite(t *testing.T) {
	p, state, _, _ := newTestPresence(t, false)
	ctx := context.Background()

	rooms := []domain.Room{lobby, patio}
	office := domain.Office{Rooms: rooms, Users: []domain.User{alice, bob}}
	p.HandleRoomsUpdated(ctx, domain.Snapshot{}, domain.RoomsUpdated(rooms))
	p.HandleOfficeSynced(ctx, domain.Snapshot{}, domain.OfficeSynced(office))

	calls := state.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "UpdateRooms", calls[0].Method)
	assert.Equal(t, rooms, calls[0].Rooms)
	assert.Equal(t, "SyncOffice", calls[1].Method)
	assert.Equal(t, office, calls[1].Office)
}

func TestPresenceService_ParticipantJoined(t *testing.T) {
	tests := []struct {
		name     string
		announce bool
		snap     domain.Snapshot
		user     domain.User
		room     domain.RoomID
		want     []string
	}{
		{
			name:     "announcements disabled",
			announce: false,
			snap:     inRoom(loggedIn(lobby), lobby),
			user:     bob,
			room:     lobby.ID,
		},
		{
			name:     "other user joins viewed room",
			announce: true,
			snap:     inRoom(loggedIn(lobby), lobby),
			user:     bob,
			room:     lobby.ID,
			want:     []string{"Bob entered Lobby."},
		},
		{
			name:     "current user joins",
			announce: true,
			snap:     inRoom(loggedIn(lobby), lobby),
			user:     alice,
			room:     lobby.ID,
		},
		{
			name:     "other room",
			announce: true,
			snap:     inRoom(loggedIn(lobby, patio), lobby),
			user:     bob,
			room:     patio.ID,
		},
		{
			name:     "no current room",
			announce: true,
			snap:     loggedIn(lobby),
			user:     bob,
			room:     lobby.ID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, state, notifier, _ := newTestPresence(t, tt.announce)

			p.HandleParticipantJoined(context.Background(), tt.snap, domain.UserRoomEvent(domain.EventParticipantJoined, tt.user, tt.room))

			calls := state.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, "AddUser", calls[0].Method)
			assert.Equal(t, tt.user, calls[0].User)
			assert.Equal(t, tt.room, calls[0].RoomID)
			assert.Equal(t, tt.want, notifier.Messages())
		})
	}
}

func TestPresenceService_JoinAnnouncementLookupMiss(t *testing.T) {
	p, state, notifier, metrics := newTestPresence(t, true)
	ghost := domain.Room{ID: "r9", Name: "Ghost"}

	p.HandleParticipantJoined(context.Background(), inRoom(loggedIn(lobby), ghost), domain.UserRoomEvent(domain.EventParticipantJoined, bob, ghost.ID))

	assert.Equal(t, []string{"AddUser"}, state.Methods())
	assert.Empty(t, notifier.Messages())
	assert.Equal(t, 1, metrics.Count("lookup_miss:participant.joined"))
}

func TestPresenceService_ParticipantDisconnected(t *testing.T) {
	p, state, _, _ := newTestPresence(t, false)

	p.HandleParticipantDisconnected(context.Background(), domain.Snapshot{}, domain.ParticipantDisconnected(bob.ID))

	calls := state.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "RemoveUser", calls[0].Method)
	assert.Equal(t, bob.ID, calls[0].UserID)
}
