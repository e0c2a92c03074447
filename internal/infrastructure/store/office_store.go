// Package store holds the host application state the orchestrator reads
// and mutates.
package store

import (
	"slices"
	"sync"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"

	"github.com/samber/lo"
)

// SnapshotFunc receives a fresh snapshot after every mutation. It is called
// with the store locked and must not call back into the store.
type SnapshotFunc func(domain.Snapshot)

// OfficeStore is an in-memory host state container. Roster edits are
// idempotent and a user is a member of at most one room.
type OfficeStore struct {
	mu     sync.RWMutex
	snap   domain.Snapshot
	office domain.Office

	nextID      int
	subscribers map[int]SnapshotFunc
}

var _ ports.StateMutator = (*OfficeStore)(nil)

func NewOfficeStore() *OfficeStore {
	return &OfficeStore{
		subscribers: make(map[int]SnapshotFunc),
	}
}

// Subscribe registers fn and immediately hands it the current snapshot.
func (s *OfficeStore) Subscribe(fn SnapshotFunc) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	fn(cloneSnapshot(s.snap))

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *OfficeStore) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSnapshot(s.snap)
}

func (s *OfficeStore) Office() domain.Office {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Office{
		Rooms: cloneRooms(s.office.Rooms),
		Users: slices.Clone(s.office.Users),
	}
}

func (s *OfficeStore) Login(user domain.User) {
	s.mutate(func() {
		s.snap.LoggedIn = true
		s.snap.CurrentUser = user
	})
}

// Logout clears the session but keeps the last known rooms.
func (s *OfficeStore) Logout() {
	s.mutate(func() {
		s.snap.LoggedIn = false
		s.snap.CurrentUser = domain.User{}
		s.snap.CurrentRoom = domain.Room{}
	})
}

func (s *OfficeStore) SetSettings(settings domain.Settings) {
	s.mutate(func() {
		s.snap.Settings = settings
	})
}

func (s *OfficeStore) UpdateRooms(rooms []domain.Room) {
	s.mutate(func() {
		s.snap.Rooms = cloneRooms(rooms)
	})
}

func (s *OfficeStore) SyncOffice(office domain.Office) {
	s.mutate(func() {
		s.office = domain.Office{
			Rooms: cloneRooms(office.Rooms),
			Users: slices.Clone(office.Users),
		}
	})
}

// AddUser puts user in roomID once and drops it from every other room.
// Unknown rooms are ignored.
func (s *OfficeStore) AddUser(user domain.User, roomID domain.RoomID) {
	s.mutate(func() {
		if !lo.ContainsBy(s.snap.Rooms, func(r domain.Room) bool { return r.ID == roomID }) {
			return
		}

		s.snap.Rooms = lo.Map(s.snap.Rooms, func(r domain.Room, _ int) domain.Room {
			if r.ID == roomID {
				if !r.HasMember(user.ID) {
					r.Members = append(slices.Clone(r.Members), user)
				}
				return r
			}
			return withoutUser(r, user.ID)
		})

		if !lo.ContainsBy(s.office.Users, func(u domain.User) bool { return u.ID == user.ID }) {
			s.office.Users = append(slices.Clone(s.office.Users), user)
		}
	})
}

// RemoveUser clears userID from every roster and the office user list.
func (s *OfficeStore) RemoveUser(userID domain.UserID) {
	s.mutate(func() {
		s.snap.Rooms = lo.Map(s.snap.Rooms, func(r domain.Room, _ int) domain.Room {
			return withoutUser(r, userID)
		})
		s.office.Rooms = lo.Map(s.office.Rooms, func(r domain.Room, _ int) domain.Room {
			return withoutUser(r, userID)
		})
		s.office.Users = lo.Reject(s.office.Users, func(u domain.User, _ int) bool { return u.ID == userID })
	})
}

func (s *OfficeStore) UserEnterMeeting(user domain.User, roomID domain.RoomID) {
	s.mutate(func() {
		s.snap.Rooms = lo.Map(s.snap.Rooms, func(r domain.Room, _ int) domain.Room {
			if r.ID == roomID && !r.InMeeting(user.ID) {
				r.MeetingParticipants = append(slices.Clone(r.MeetingParticipants), user)
			}
			return r
		})
	})
}

func (s *OfficeStore) UserLeftMeeting(user domain.User, roomID domain.RoomID) {
	s.mutate(func() {
		s.snap.Rooms = lo.Map(s.snap.Rooms, func(r domain.Room, _ int) domain.Room {
			if r.ID == roomID {
				r.MeetingParticipants = rejectUser(r.MeetingParticipants, user.ID)
			}
			return r
		})
	})
}

func (s *OfficeStore) SetCurrentRoom(room domain.Room) {
	s.mutate(func() {
		s.snap.CurrentRoom = cloneRoom(room)
	})
}

func (s *OfficeStore) mutate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn()

	snap := cloneSnapshot(s.snap)
	for _, sub := range s.subscribers {
		sub(snap)
	}
}

func withoutUser(r domain.Room, userID domain.UserID) domain.Room {
	r.Members = rejectUser(r.Members, userID)
	r.MeetingParticipants = rejectUser(r.MeetingParticipants, userID)
	return r
}

func rejectUser(users []domain.User, userID domain.UserID) []domain.User {
	if users == nil {
		return nil
	}
	return lo.Reject(users, func(u domain.User, _ int) bool { return u.ID == userID })
}

func cloneSnapshot(s domain.Snapshot) domain.Snapshot {
	s.Rooms = cloneRooms(s.Rooms)
	s.CurrentRoom = cloneRoom(s.CurrentRoom)
	return s
}

func cloneRooms(rooms []domain.Room) []domain.Room {
	if rooms == nil {
		return nil
	}
	return lo.Map(rooms, func(r domain.Room, _ int) domain.Room { return cloneRoom(r) })
}

func cloneRoom(r domain.Room) domain.Room {
	r.Members = slices.Clone(r.Members)
	r.MeetingParticipants = slices.Clone(r.MeetingParticipants)
	return r
}
