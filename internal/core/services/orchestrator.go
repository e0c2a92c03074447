package services

import (
	"context"
	"time"

	"morpheus/internal/core/ports"

	"go.uber.org/zap"
)

// Capabilities are the collaborators the orchestrator drives.
type Capabilities struct {
	Transport ports.Transport
	State     ports.StateMutator
	LastRooms ports.LastRoomRepository
	Dialogs   ports.Dialogs
	Banners   ports.Banners
	Notifier  ports.SystemNotifier
	Navigator ports.Navigator
	Audio     ports.AudioCue
}

type Options struct {
	EnterRoomDelay        time.Duration
	NotificationDebounce  time.Duration
	PresenceNotifications bool
	AudioCue              AudioCueOptions
}

func DefaultOptions() Options {
	return Options{
		EnterRoomDelay:       time.Millisecond,
		NotificationDebounce: 500 * time.Millisecond,
		AudioCue: AudioCueOptions{
			ElementID: "audio-enter-meeting",
			Volume:    0.1,
		},
	}
}

// Orchestrator is a session with every synchronizer registered on it.
type Orchestrator struct {
	*SessionService

	Notifications *NotificationService
}

func NewOrchestrator(caps Capabilities, opts Options, logger *zap.SugaredLogger, metrics ports.Metrics) *Orchestrator {
	loop := NewEventLoop(logger)
	session := NewSessionService(caps.Transport, loop, logger, metrics)

	notifications := NewNotificationService(
		caps.Banners,
		caps.Notifier,
		session,
		opts.NotificationDebounce,
		loop.AfterFunc,
		logger,
		metrics,
	)

	router := session.Router()
	NewPresenceService(caps.State, notifications, opts.PresenceNotifications, logger, metrics).Register(router)
	NewMeetingService(caps.State, caps.Audio, opts.AudioCue, logger, metrics).Register(router)
	NewInvitationService(caps.Dialogs, caps.Notifier, logger, metrics).Register(router)
	NewNavigationService(caps.State, caps.LastRooms, caps.Navigator, caps.Transport, loop, opts.EnterRoomDelay, logger, metrics).Register(router)

	return &Orchestrator{
		SessionService: session,
		Notifications:  notifications,
	}
}

// Close stops pending notifications, then releases the session.
func (o *Orchestrator) Close() {
	o.Notifications.Stop()
	o.SessionService.Close()
}

// Run blocks until ctx is done, then closes the orchestrator.
func (o *Orchestrator) Run(ctx context.Context) {
	defer o.Close()
	<-ctx.Done()
}
