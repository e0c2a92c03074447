package ports

import (
	"context"

	"morpheus/internal/core/domain"
)

// Subscription is one live binding of the event stream. Events is closed
// when the underlying connection goes away.
type Subscription interface {
	ID() string
	Events() <-chan domain.Event
	Close() error
}

// RoomEmitter sends the entered-room confirmation back to the server.
type RoomEmitter interface {
	EmitEnterInRoom(ctx context.Context, roomID domain.RoomID) error
}

type Transport interface {
	RoomEmitter

	// InitEvents opens the event stream bound to the given room list.
	InitEvents(ctx context.Context, rooms []domain.Room) (Subscription, error)
	// CloseConnection tears down the connection. Safe to call when already closed.
	CloseConnection() error
}
