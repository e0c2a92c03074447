package domain

import "github.com/samber/lo"

type RoomID string

const officePathPrefix = "/morpheus/office/"

type Room struct {
	ID                  RoomID `json:"id"`
	Name                string `json:"name"`
	Members             []User `json:"users"`
	MeetingParticipants []User `json:"meeting,omitempty"`
}

// HasMember reports whether userID is on the room's member roster.
func (r Room) HasMember(userID UserID) bool {
	return lo.ContainsBy(r.Members, func(u User) bool { return u.ID == userID })
}

// InMeeting reports whether userID is on the room's meeting roster.
func (r Room) InMeeting(userID UserID) bool {
	return lo.ContainsBy(r.MeetingParticipants, func(u User) bool { return u.ID == userID })
}

// Office is the aggregate the server pushes periodically on the sync channel.
type Office struct {
	Rooms []Room `json:"rooms"`
	Users []User `json:"users"`
}

// Invitation pairs the inviting user with the target room while the invite UI is open.
type Invitation struct {
	User User `json:"user"`
	Room Room `json:"room"`
}

// OfficePath returns the client route for a room view.
func OfficePath(id RoomID) string {
	return officePathPrefix + string(id)
}
