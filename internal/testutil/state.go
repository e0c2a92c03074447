package testutil

import (
	"sync"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
)

// Call is one recorded method invocation.
type Call struct {
	Method string
	User   domain.User
	UserID domain.UserID
	RoomID domain.RoomID
	Room   domain.Room
	Rooms  []domain.Room
	Office domain.Office
}

// RecordingState is a ports.StateMutator that only records.
type RecordingState struct {
	mu    sync.Mutex
	calls []Call
}

var _ ports.StateMutator = (*RecordingState)(nil)

func (s *RecordingState) record(c Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *RecordingState) UpdateRooms(rooms []domain.Room) {
	s.record(Call{Method: "UpdateRooms", Rooms: rooms})
}

func (s *RecordingState) SyncOffice(office domain.Office) {
	s.record(Call{Method: "SyncOffice", Office: office})
}

func (s *RecordingState) AddUser(user domain.User, roomID domain.RoomID) {
	s.record(Call{Method: "AddUser", User: user, RoomID: roomID})
}

func (s *RecordingState) RemoveUser(userID domain.UserID) {
	s.record(Call{Method: "RemoveUser", UserID: userID})
}

func (s *RecordingState) UserEnterMeeting(user domain.User, roomID domain.RoomID) {
	s.record(Call{Method: "UserEnterMeeting", User: user, RoomID: roomID})
}

func (s *RecordingState) UserLeftMeeting(user domain.User, roomID domain.RoomID) {
	s.record(Call{Method: "UserLeftMeeting", User: user, RoomID: roomID})
}

func (s *RecordingState) SetCurrentRoom(room domain.Room) {
	s.record(Call{Method: "SetCurrentRoom", Room: room})
}

func (s *RecordingState) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Methods returns the recorded method names in order.
func (s *RecordingState) Methods() []string {
	calls := s.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}
