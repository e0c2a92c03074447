package domain

import "errors"

var (
	ErrLastRoomNotFound   = errors.New("last room not found")
	ErrConnectionClosed   = errors.New("connection closed")
	ErrAudioUnavailable   = errors.New("audio cue unavailable")
	ErrNotificationDenied = errors.New("notification permission denied")
)
