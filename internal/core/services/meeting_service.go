package services

import (
	"context"
	"fmt"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
	apperrors "morpheus/pkg/errors"
	rlog "morpheus/pkg/logger"

	"go.uber.org/zap"
)

// AudioCueOptions names the element played when someone joins the meeting
// in the viewed room.
type AudioCueOptions struct {
	ElementID string
	Volume    float64
}

type MeetingService struct {
	state   ports.StateMutator
	audio   ports.AudioCue
	cue     AudioCueOptions
	logger  *rlog.ContextLogger
	metrics ports.Metrics
}

func NewMeetingService(
	state ports.StateMutator,
	audio ports.AudioCue,
	cue AudioCueOptions,
	logger *zap.SugaredLogger,
	metrics ports.Metrics,
) *MeetingService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &MeetingService{
		state:   state,
		audio:   audio,
		cue:     cue,
		logger:  rlog.NewContextLogger(logger),
		metrics: metrics,
	}
}

func (m *MeetingService) Register(r *EventRouter) {
	r.Handle(domain.EventMeetingParticipantJoined, m.HandleParticipantJoined)
	r.Handle(domain.EventMeetingParticipantLeft, m.HandleParticipantLeft)
}

func (m *MeetingService) HandleParticipantJoined(ctx context.Context, snap domain.Snapshot, ev domain.Event) {
	m.state.UserEnterMeeting(ev.User, ev.RoomID)

	if snap.IsCurrentUser(ev.User.ID) || !snap.IsCurrentRoom(ev.RoomID) {
		return
	}
	if err := m.playCue(); err != nil {
		m.metrics.RecordSideEffectFailure("audio_cue")
		m.logger.Debugw(ctx, "audio cue not played", "error", err)
	}
}

func (m *MeetingService) HandleParticipantLeft(_ context.Context, _ domain.Snapshot, ev domain.Event) {
	m.state.UserLeftMeeting(ev.User, ev.RoomID)
}

// playCue converts both errors and panics from the cue into an error.
func (m *MeetingService) playCue() (err error) {
	if m.audio == nil {
		return apperrors.WrapSideEffect(domain.ErrAudioUnavailable, "audio_cue")
	}

	defer func() {
		if r := recover(); r != nil {
			err = apperrors.WrapSideEffect(fmt.Errorf("panic: %v", r), "audio_cue")
		}
	}()

	if err := m.audio.Play(m.cue.ElementID, m.cue.Volume); err != nil {
		return apperrors.WrapSideEffect(err, "audio_cue")
	}
	return nil
}
