package ports

import (
	"context"

	"morpheus/internal/core/domain"
)

type Dialogs interface {
	OpenAnswerKnock(user domain.User, room domain.Room)
	OpenReceiveInvite(invitation domain.Invitation)
}

// Banners shows dismissible in-app messages. The dismiss func closes
// exactly the banner it was passed with.
type Banners interface {
	Enqueue(key string, message string, dismiss func())
	Close(key string)
}

type SystemNotifier interface {
	Notify(ctx context.Context, message string) error
}

type Navigator interface {
	Replace(path string)
}

// AudioCue plays a short UI sound. It returns domain.ErrAudioUnavailable
// when the referenced element does not exist.
type AudioCue interface {
	Play(elementID string, volume float64) error
}
