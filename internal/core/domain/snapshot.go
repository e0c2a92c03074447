package domain

import (
	"slices"

	"github.com/samber/lo"
)

// Snapshot is the consistent view of host state handed to the orchestrator.
type Snapshot struct {
	LoggedIn    bool     `json:"loggedIn"`
	Rooms       []Room   `json:"rooms"`
	CurrentUser User     `json:"currentUser"`
	CurrentRoom Room     `json:"currentRoom"`
	Settings    Settings `json:"settings"`
}

// FindRoom resolves id against the snapshot's room list.
func (s Snapshot) FindRoom(id RoomID) (Room, bool) {
	return lo.Find(s.Rooms, func(r Room) bool { return r.ID == id })
}

// IsCurrentUser reports whether id is the local client's user.
func (s Snapshot) IsCurrentUser(id UserID) bool {
	return s.CurrentUser.ID == id
}

// IsCurrentRoom reports whether id is the room the local client is viewing.
func (s Snapshot) IsCurrentRoom(id RoomID) bool {
	return s.CurrentRoom.ID != "" && s.CurrentRoom.ID == id
}

// DependsDiffer reports whether any value a live subscription depends on
// differs between s and other.
func (s Snapshot) DependsDiffer(other Snapshot) bool {
	if s.LoggedIn != other.LoggedIn ||
		s.CurrentUser.ID != other.CurrentUser.ID ||
		s.CurrentRoom.ID != other.CurrentRoom.ID ||
		s.Settings.NotificationDisabled != other.Settings.NotificationDisabled {
		return true
	}
	return !slices.EqualFunc(s.Rooms, other.Rooms, roomsEqual)
}

func roomsEqual(a, b Room) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		slices.Equal(a.Members, b.Members) &&
		slices.Equal(a.MeetingParticipants, b.MeetingParticipants)
}
