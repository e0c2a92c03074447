package testutil

import (
	"context"
	"sync"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
)

type Knock struct {
	User domain.User
	Room domain.Room
}

type Banner struct {
	Key     string
	Message string
	Dismiss func()
}

type AudioPlay struct {
	ElementID string
	Volume    float64
}

// RecordingUI implements every UI capability and records what was asked.
type RecordingUI struct {
	mu            sync.Mutex
	knocks        []Knock
	invites       []domain.Invitation
	banners       []Banner
	closedBanners []string
	notifications []string
	navigations   []string
	plays         []AudioPlay

	NotifyErr  error
	AudioErr   error
	AudioPanic bool
}

var (
	_ ports.Dialogs        = (*RecordingUI)(nil)
	_ ports.Banners        = (*RecordingUI)(nil)
	_ ports.SystemNotifier = (*RecordingUI)(nil)
	_ ports.Navigator      = (*RecordingUI)(nil)
	_ ports.AudioCue       = (*RecordingUI)(nil)
)

func (u *RecordingUI) OpenAnswerKnock(user domain.User, room domain.Room) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.knocks = append(u.knocks, Knock{User: user, Room: room})
}

func (u *RecordingUI) OpenReceiveInvite(invitation domain.Invitation) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.invites = append(u.invites, invitation)
}

func (u *RecordingUI) Enqueue(key string, message string, dismiss func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.banners = append(u.banners, Banner{Key: key, Message: message, Dismiss: dismiss})
}

func (u *RecordingUI) Close(key string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.closedBanners = append(u.closedBanners, key)
}

func (u *RecordingUI) Notify(_ context.Context, message string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.notifications = append(u.notifications, message)
	return u.NotifyErr
}

func (u *RecordingUI) Replace(path string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.navigations = append(u.navigations, path)
}

func (u *RecordingUI) Play(elementID string, volume float64) error {
	u.mu.Lock()
	u.plays = append(u.plays, AudioPlay{ElementID: elementID, Volume: volume})
	shouldPanic, err := u.AudioPanic, u.AudioErr
	u.mu.Unlock()

	if shouldPanic {
		panic("audio element missing")
	}
	return err
}

func (u *RecordingUI) Knocks() []Knock {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]Knock(nil), u.knocks...)
}

func (u *RecordingUI) Invites() []domain.Invitation {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]domain.Invitation(nil), u.invites...)
}

func (u *RecordingUI) Banners() []Banner {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]Banner(nil), u.banners...)
}

func (u *RecordingUI) ClosedBanners() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.closedBanners...)
}

func (u *RecordingUI) Notifications() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.notifications...)
}

func (u *RecordingUI) Navigations() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.navigations...)
}

func (u *RecordingUI) Plays() []AudioPlay {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]AudioPlay(nil), u.plays...)
}
