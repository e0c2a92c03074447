// Package console renders the orchestrator's UI side effects as log lines
// for the headless client.
package console

import (
	"context"
	"sync"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
	"morpheus/pkg/validation"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type UI struct {
	logger *zap.SugaredLogger

	mu       sync.RWMutex
	path     string
	banners  map[string]banner
	elements []string
	muted    bool
}

var (
	_ ports.Dialogs        = (*UI)(nil)
	_ ports.Banners        = (*UI)(nil)
	_ ports.SystemNotifier = (*UI)(nil)
	_ ports.Navigator      = (*UI)(nil)
	_ ports.AudioCue       = (*UI)(nil)
)

type banner struct {
	message string
	dismiss func()
}

type Option func(*UI)

// WithAudioElements lists the audio element ids that can be played.
func WithAudioElements(ids ...string) Option {
	return func(u *UI) {
		u.elements = append(u.elements, ids...)
	}
}

// WithSystemNotificationsDenied makes every system notification fail, as
// when the OS permission was refused.
func WithSystemNotificationsDenied() Option {
	return func(u *UI) {
		u.muted = true
	}
}

func NewUI(logger *zap.SugaredLogger, opts ...Option) *UI {
	u := &UI{
		logger:  logger,
		banners: make(map[string]banner),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *UI) OpenAnswerKnock(user domain.User, room domain.Room) {
	u.logger.Infow("knock on room", "user_id", user.ID, "user", user.Name, "room_id", room.ID, "room", room.Name)
}

func (u *UI) OpenReceiveInvite(invitation domain.Invitation) {
	u.logger.Infow("meeting invitation",
		"user_id", invitation.User.ID,
		"user", invitation.User.Name,
		"room_id", invitation.Room.ID,
		"room", invitation.Room.Name,
	)
}

func (u *UI) Enqueue(key string, message string, dismiss func()) {
	u.mu.Lock()
	u.banners[key] = banner{message: message, dismiss: dismiss}
	u.mu.Unlock()

	u.logger.Infow("banner", "key", key, "message", message)
}

func (u *UI) Close(key string) {
	u.mu.Lock()
	delete(u.banners, key)
	u.mu.Unlock()
}

// Dismiss runs the dismiss action the banner was enqueued with, as if the
// user closed it. It reports false for an unknown key.
func (u *UI) Dismiss(key string) bool {
	u.mu.RLock()
	b, ok := u.banners[key]
	u.mu.RUnlock()
	if !ok {
		return false
	}

	u.logger.Infow("banner dismissed", "key", key)
	if b.dismiss == nil {
		u.Close(key)
		return true
	}
	b.dismiss()
	return true
}

// Banners returns the open banners' messages by key.
func (u *UI) Banners() map[string]string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return lo.MapValues(u.banners, func(b banner, _ string) string {
		return b.message
	})
}

func (u *UI) Notify(_ context.Context, message string) error {
	u.mu.RLock()
	muted := u.muted
	u.mu.RUnlock()

	if muted {
		return domain.ErrNotificationDenied
	}
	u.logger.Infow("system notification", "message", message)
	return nil
}

func (u *UI) Replace(path string) {
	u.mu.Lock()
	u.path = path
	u.mu.Unlock()

	u.logger.Infow("navigate", "path", path)
}

// Path returns the route of the last navigation.
func (u *UI) Path() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.path
}

func (u *UI) Play(elementID string, volume float64) error {
	if err := validation.ValidateVolume(volume); err != nil {
		return err
	}

	u.mu.RLock()
	known := lo.Contains(u.elements, elementID)
	u.mu.RUnlock()

	if !known {
		return domain.ErrAudioUnavailable
	}
	u.logger.Debugw("audio cue", "element_id", elementID, "volume", volume)
	return nil
}
