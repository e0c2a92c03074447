package signal

import (
	"encoding/json"
	"errors"
	"fmt"

	"morpheus/internal/core/domain"
	"morpheus/pkg/validation"
)

// Wire message types.
const (
	TypeUpdateRooms             = "update_rooms"
	TypeSyncOffice              = "sync_office"
	TypeParticipantJoined       = "participant_joined"
	TypeParticipantStartedMeet  = "participant_started_meet"
	TypeParticipantLeftMeet     = "participant_left_meet"
	TypeKnockRoom               = "knock_room"
	TypeEnterRoomAllowed        = "enter_room_allowed"
	TypeParticipantIsCalled     = "participant_is_called"
	TypeParticipantDisconnected = "participant_disconnected"

	TypeJoinOffice = "join_office"
	TypeEnterRoom  = "enter_room"
)

var ErrUnknownMessageType = errors.New("unknown message type")

// Message is the envelope of every frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RoomsPayload struct {
	Rooms []domain.Room `json:"rooms"`
}

type OfficePayload struct {
	Office domain.Office `json:"office"`
}

type UserRoomPayload struct {
	User   domain.User   `json:"user"`
	RoomID domain.RoomID `json:"room_id"`
}

type DisconnectPayload struct {
	UserID domain.UserID `json:"user_id"`
}

type EnterRoomPayload struct {
	RoomID domain.RoomID `json:"room_id"`
}

type JoinOfficePayload struct {
	RoomIDs []domain.RoomID `json:"room_ids"`
}

var userRoomTypes = map[string]domain.EventType{
	TypeParticipantJoined:      domain.EventParticipantJoined,
	TypeParticipantStartedMeet: domain.EventMeetingParticipantJoined,
	TypeParticipantLeftMeet:    domain.EventMeetingParticipantLeft,
	TypeKnockRoom:              domain.EventKnock,
	TypeEnterRoomAllowed:       domain.EventEntryApproved,
	TypeParticipantIsCalled:    domain.EventCall,
}

// DecodeEvent parses one inbound frame. Frames with an unknown type or
// invalid ids return an error and are expected to be dropped.
func DecodeEvent(data []byte) (domain.Event, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.Event{}, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	switch msg.Type {
	case TypeUpdateRooms:
		var p RoomsPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return domain.Event{}, err
		}
		if err := validateRooms(p.Rooms); err != nil {
			return domain.Event{}, err
		}
		return domain.RoomsUpdated(p.Rooms), nil

	case TypeSyncOffice:
		var p OfficePayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return domain.Event{}, err
		}
		if err := validateRooms(p.Office.Rooms); err != nil {
			return domain.Event{}, err
		}
		return domain.OfficeSynced(p.Office), nil

	case TypeParticipantDisconnected:
		var p DisconnectPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return domain.Event{}, err
		}
		if err := validation.ValidateUserID(string(p.UserID)); err != nil {
			return domain.Event{}, err
		}
		return domain.ParticipantDisconnected(p.UserID), nil
	}

	eventType, ok := userRoomTypes[msg.Type]
	if !ok {
		return domain.Event{}, fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}

	var p UserRoomPayload
	if err := unmarshalPayload(msg, &p); err != nil {
		return domain.Event{}, err
	}
	if err := validation.ValidateUserID(string(p.User.ID)); err != nil {
		return domain.Event{}, err
	}
	if err := validation.ValidateRoomID(string(p.RoomID)); err != nil {
		return domain.Event{}, err
	}
	return domain.UserRoomEvent(eventType, p.User, p.RoomID), nil
}

// EncodeMessage wraps payload in an envelope of type t.
func EncodeMessage(t string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	return json.Marshal(Message{Type: t, Payload: raw})
}

func JoinOffice(rooms []domain.Room) ([]byte, error) {
	ids := make([]domain.RoomID, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	return EncodeMessage(TypeJoinOffice, JoinOfficePayload{RoomIDs: ids})
}

func EnterRoom(roomID domain.RoomID) ([]byte, error) {
	if err := validation.ValidateRoomID(string(roomID)); err != nil {
		return nil, err
	}
	return EncodeMessage(TypeEnterRoom, EnterRoomPayload{RoomID: roomID})
}

func unmarshalPayload(msg Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: payload is required", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", msg.Type, err)
	}
	return nil
}

func validateRooms(rooms []domain.Room) error {
	for _, r := range rooms {
		if err := validation.ValidateRoomID(string(r.ID)); err != nil {
			return err
		}
	}
	return nil
}
