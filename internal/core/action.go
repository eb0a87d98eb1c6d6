package core

import (
	"errors"
	"reflect"

	"github.com/dkeye/Conference/internal/domain"
)

var (
	ErrMissingParticipantID = errors.New("action without participant id")
	ErrMissingStreamHandle  = errors.New("action without stream handle")
	// ErrUncomparableHandle rejects handles whose dynamic type cannot be
	// compared with ==, since tracks are matched by handle identity.
	ErrUncomparableHandle = errors.New("stream handle type is not comparable")
)

type ActionType string

const (
	TypeParticipantAdded       ActionType = "participant-added"
	TypeParticipantRemoved     ActionType = "participant-removed"
	TypeParticipantUpdated     ActionType = "participant-updated"
	TypeDominantSpeakerChanged ActionType = "dominant-speaker-changed"
	TypeParticipantFocused     ActionType = "participant-focused"
	TypeParticipantPinned      ActionType = "participant-pinned"
	TypeParticipantSelected    ActionType = "participant-selected"
	TypeParticipantRoleChanged ActionType = "participant-role-changed"

	TypeTrackAdded   ActionType = "track-added"
	TypeTrackRemoved ActionType = "track-removed"
	TypeTrackChanged ActionType = "track-changed"
)

// Action is a tagged event consumed by the reducers.
type Action interface {
	Type() ActionType
}

// ParticipantAdded appends a participant. When the participant is local it
// also binds the view's local tracks to it.
type ParticipantAdded struct {
	Participant domain.Participant
}

type ParticipantRemoved struct {
	ID domain.ParticipantID
}

type ParticipantUpdated struct {
	Update domain.ParticipantUpdate
}

type DominantSpeakerChanged struct {
	ID domain.ParticipantID
}

type ParticipantFocused struct {
	ID domain.ParticipantID
}

type ParticipantPinned struct {
	ID domain.ParticipantID
}

type ParticipantSelected struct {
	ID domain.ParticipantID
}

type ParticipantRoleChanged struct {
	ID   domain.ParticipantID
	Role domain.Role
}

type TrackAdded struct {
	Track domain.Track
}

type TrackRemoved struct {
	Handle domain.StreamHandle
}

type TrackChanged struct {
	Change domain.TrackChange
}

func (ParticipantAdded) Type() ActionType       { return TypeParticipantAdded }
func (ParticipantRemoved) Type() ActionType     { return TypeParticipantRemoved }
func (ParticipantUpdated) Type() ActionType     { return TypeParticipantUpdated }
func (DominantSpeakerChanged) Type() ActionType { return TypeDominantSpeakerChanged }
func (ParticipantFocused) Type() ActionType     { return TypeParticipantFocused }
func (ParticipantPinned) Type() ActionType      { return TypeParticipantPinned }
func (ParticipantSelected) Type() ActionType    { return TypeParticipantSelected }
func (ParticipantRoleChanged) Type() ActionType { return TypeParticipantRoleChanged }
func (TrackAdded) Type() ActionType             { return TypeTrackAdded }
func (TrackRemoved) Type() ActionType           { return TypeTrackRemoved }
func (TrackChanged) Type() ActionType           { return TypeTrackChanged }

// ValidateAction reports a payload that is missing its target. Reducers
// assume every action they receive passed this check.
func ValidateAction(a Action) error {
	var id domain.ParticipantID
	var handle domain.StreamHandle
	switch a := a.(type) {
	case ParticipantAdded:
		id = a.Participant.ID
	case ParticipantRemoved:
		id = a.ID
	case ParticipantUpdated:
		id = a.Update.ID
	case DominantSpeakerChanged:
		id = a.ID
	case ParticipantFocused:
		id = a.ID
	case ParticipantPinned:
		id = a.ID
	case ParticipantSelected:
		id = a.ID
	case ParticipantRoleChanged:
		id = a.ID
	case TrackAdded:
		handle = a.Track.Handle
	case TrackRemoved:
		handle = a.Handle
	case TrackChanged:
		handle = a.Change.Handle
	default:
		return nil
	}
	switch a.(type) {
	case TrackAdded, TrackRemoved, TrackChanged:
		if handle == nil {
			return ErrMissingStreamHandle
		}
		if !reflect.TypeOf(handle).Comparable() {
			return ErrUncomparableHandle
		}
	default:
		if id == "" {
			return ErrMissingParticipantID
		}
	}
	return nil
}
