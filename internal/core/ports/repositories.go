package ports

import (
	"context"

	"morpheus/internal/core/domain"
)

// LastRoomRepository remembers the last room a user entered.
type LastRoomRepository interface {
	Save(ctx context.Context, userID domain.UserID, roomID domain.RoomID) error
	Get(ctx context.Context, userID domain.UserID) (domain.RoomID, error)
}
