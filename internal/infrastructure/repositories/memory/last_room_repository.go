package memory

import (
	"context"
	"sync"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
)

type MemoryLastRoomRepository struct {
	rooms map[domain.UserID]domain.RoomID
	mu    sync.RWMutex
}

func NewMemoryLastRoomRepository() ports.LastRoomRepository {
	return &MemoryLastRoomRepository{
		rooms: make(map[domain.UserID]domain.RoomID),
	}
}

func (r *MemoryLastRoomRepository) Save(ctx context.Context, userID domain.UserID, roomID domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms[userID] = roomID
	return nil
}

func (r *MemoryLastRoomRepository) Get(ctx context.Context, userID domain.UserID) (domain.RoomID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomID, exists := r.rooms[userID]
	if !exists {
		return "", domain.ErrLastRoomNotFound
	}

	return roomID, nil
}
