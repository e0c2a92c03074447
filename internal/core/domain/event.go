package domain

type EventType string

const (
	EventRoomsUpdated             EventType = "rooms.updated"
	EventOfficeSynced             EventType = "office.synced"
	EventParticipantJoined        EventType = "participant.joined"
	EventParticipantDisconnected  EventType = "participant.disconnected"
	EventMeetingParticipantJoined EventType = "meeting.participant_joined"
	EventMeetingParticipantLeft   EventType = "meeting.participant_left"
	EventKnock                    EventType = "invitation.knock"
	EventEntryApproved            EventType = "invitation.entry_approved"
	EventCall                     EventType = "invitation.call"
)

// Event is one inbound message from the event stream. Which fields are
// populated depends on Type.
type Event struct {
	Type   EventType
	User   User
	UserID UserID
	RoomID RoomID
	Rooms  []Room
	Office Office
}

func RoomsUpdated(rooms []Room) Event {
	return Event{Type: EventRoomsUpdated, Rooms: rooms}
}

func OfficeSynced(office Office) Event {
	return Event{Type: EventOfficeSynced, Office: office}
}

func ParticipantDisconnected(id UserID) Event {
	return Event{Type: EventParticipantDisconnected, UserID: id}
}

// UserRoomEvent builds any of the (user, room) shaped events.
func UserRoomEvent(t EventType, user User, roomID RoomID) Event {
	return Event{Type: t, User: user, RoomID: roomID}
}
