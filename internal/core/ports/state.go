package ports

import "morpheus/internal/core/domain"

// StateMutator is the host's write surface. Implementations must be
// synchronous and must not call back into the session.
type StateMutator interface {
	UpdateRooms(rooms []domain.Room)
	SyncOffice(office domain.Office)
	AddUser(user domain.User, roomID domain.RoomID)
	RemoveUser(userID domain.UserID)
	UserEnterMeeting(user domain.User, roomID domain.RoomID)
	UserLeftMeeting(user domain.User, roomID domain.RoomID)
	SetCurrentRoom(room domain.Room)
}
