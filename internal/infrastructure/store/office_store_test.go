package store

import (
	"testing"

	"morpheus/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = domain.User{ID: "u1", Name: "Alice"}
	bob   = domain.User{ID: "u2", Name: "Bob"}
)

func seededStore() *OfficeStore {
	s := NewOfficeStore()
	s.UpdateRooms([]domain.Room{
		{ID: "r1", Name: "Lobby"},
		{ID: "r2", Name: "Kitchen"},
	})
	return s
}

func TestOfficeStore_AddUserIsIdempotent(t *testing.T) {
	s := seededStore()

	s.AddUser(bob, "r1")
	s.AddUser(bob, "r1")

	room, ok := s.Snapshot().FindRoom("r1")
	require.True(t, ok)
	assert.Equal(t, []domain.User{bob}, room.Members)
	assert.Equal(t, []domain.User{bob}, s.Office().Users)
}

func TestOfficeStore_AddUserMovesBetweenRooms(t *testing.T) {
	s := seededStore()

	s.AddUser(bob, "r1")
	s.UserEnterMeeting(bob, "r1")
	s.AddUser(bob, "r2")

	snap := s.Snapshot()
	r1, _ := snap.FindRoom("r1")
	r2, _ := snap.FindRoom("r2")
	assert.False(t, r1.HasMember(bob.ID))
	assert.False(t, r1.InMeeting(bob.ID))
	assert.True(t, r2.HasMember(bob.ID))
}

func TestOfficeStore_AddUserUnknownRoom(t *testing.T) {
	s := seededStore()
	s.AddUser(bob, "r1")

	s.AddUser(bob, "missing")

	r1, _ := s.Snapshot().FindRoom("r1")
	assert.True(t, r1.HasMember(bob.ID))
}

func TestOfficeStore_RemoveUserIsIdempotent(t *testing.T) {
	s := seededStore()
	s.SyncOffice(domain.Office{
		Rooms: []domain.Room{{ID: "r1", Members: []domain.User{bob}}},
		Users: []domain.User{alice, bob},
	})
	s.AddUser(bob, "r1")
	s.UserEnterMeeting(bob, "r1")

	s.RemoveUser(bob.ID)
	s.RemoveUser(bob.ID)

	r1, _ := s.Snapshot().FindRoom("r1")
	assert.False(t, r1.HasMember(bob.ID))
	assert.False(t, r1.InMeeting(bob.ID))

	office := s.Office()
	assert.Equal(t, []domain.User{alice}, office.Users)
	assert.False(t, office.Rooms[0].HasMember(bob.ID))
}

func TestOfficeStore_UpdateRoomsReplaces(t *testing.T) {
	s := seededStore()
	s.AddUser(bob, "r1")

	next := []domain.Room{{ID: "r3", Name: "Garden"}}
	s.UpdateRooms(next)

	assert.Equal(t, next, s.Snapshot().Rooms)
	_, ok := s.Snapshot().FindRoom("r1")
	assert.False(t, ok)
}

func TestOfficeStore_MeetingRoster(t *testing.T) {
	s := seededStore()

	s.UserEnterMeeting(bob, "r1")
	s.UserEnterMeeting(bob, "r1")
	r1, _ := s.Snapshot().FindRoom("r1")
	assert.Equal(t, []domain.User{bob}, r1.MeetingParticipants)

	s.UserLeftMeeting(bob, "r1")
	s.UserLeftMeeting(bob, "r1")
	r1, _ = s.Snapshot().FindRoom("r1")
	assert.Empty(t, r1.MeetingParticipants)
}

func TestOfficeStore_SnapshotIsACopy(t *testing.T) {
	s := seededStore()
	s.AddUser(bob, "r1")

	snap := s.Snapshot()
	snap.Rooms[0].Members[0].Name = "mutated"

	r1, _ := s.Snapshot().FindRoom("r1")
	assert.Equal(t, "Bob", r1.Members[0].Name)
}

func TestOfficeStore_Subscribe(t *testing.T) {
	s := NewOfficeStore()

	var seen []domain.Snapshot
	unsubscribe := s.Subscribe(func(snap domain.Snapshot) {
		seen = append(seen, snap)
	})

	s.Login(alice)
	s.SetCurrentRoom(domain.Room{ID: "r1", Name: "Lobby"})
	unsubscribe()
	s.Logout()

	require.Len(t, seen, 3)
	assert.False(t, seen[0].LoggedIn)
	assert.True(t, seen[1].LoggedIn)
	assert.Equal(t, alice, seen[1].CurrentUser)
	assert.Equal(t, domain.RoomID("r1"), seen[2].CurrentRoom.ID)
}

func TestOfficeStore_LogoutClearsSession(t *testing.T) {
	s := seededStore()
	s.Login(alice)
	s.SetCurrentRoom(domain.Room{ID: "r1"})
	s.SetSettings(domain.Settings{NotificationDisabled: true})

	s.Logout()

	snap := s.Snapshot()
	assert.False(t, snap.LoggedIn)
	assert.Empty(t, snap.CurrentUser.ID)
	assert.Empty(t, snap.CurrentRoom.ID)
	assert.Len(t, snap.Rooms, 2)
	assert.True(t, snap.Settings.NotificationDisabled)
}
