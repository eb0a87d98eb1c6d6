package core

import "github.com/dkeye/Conference/internal/domain"

// ParticipantsSlice is the name the participant collection is registered under.
const ParticipantsSlice = "base/participants"

// ReduceParticipants listens for actions which add, remove, or update the set
// of participants in the conference. It never modifies state in place.
// Unknown ids are ignored.
func ReduceParticipants(state []domain.Participant, action Action) []domain.Participant {
	switch a := action.(type) {
	case ParticipantAdded:
		return addParticipant(state, a.Participant)

	case ParticipantRemoved:
		idx := indexOfParticipant(state, a.ID)
		if idx < 0 {
			return state
		}
		next := make([]domain.Participant, 0, len(state)-1)
		for _, p := range state {
			if p.ID != a.ID {
				next = append(next, p)
			}
		}
		return next

	case ParticipantUpdated:
		idx := indexOfParticipant(state, a.Update.ID)
		if idx < 0 {
			return state
		}
		next := cloneParticipants(state)
		next[idx] = a.Update.Apply(next[idx])
		return next

	case ParticipantRoleChanged:
		idx := indexOfParticipant(state, a.ID)
		if idx < 0 {
			return state
		}
		next := cloneParticipants(state)
		next[idx].Role = a.Role
		return next

	// Only one dominant speaker, focused, pinned and selected participant is
	// allowed, so each of these rewrites the whole collection.
	case DominantSpeakerChanged:
		return mapParticipants(state, func(p *domain.Participant) { p.Speaking = p.ID == a.ID })
	case ParticipantFocused:
		return mapParticipants(state, func(p *domain.Participant) { p.Focused = p.ID == a.ID })
	case ParticipantPinned:
		return mapParticipants(state, func(p *domain.Participant) { p.Pinned = p.ID == a.ID })
	case ParticipantSelected:
		return mapParticipants(state, func(p *domain.Participant) { p.Selected = p.ID == a.ID })

	default:
		return state
	}
}

// addParticipant appends in insertion order. An exclusive flag carried by
// the new record is cleared on everyone else.
func addParticipant(state []domain.Participant, in domain.Participant) []domain.Participant {
	p := domain.Participant{
		ID:        in.ID,
		Name:      in.Name,
		Avatar:    in.Avatar,
		Role:      in.Role,
		Local:     in.Local,
		Pinned:    in.Pinned,
		Focused:   in.Focused,
		Selected:  in.Selected,
		Speaking:  in.Speaking,
		VideoType: in.VideoType,
	}

	next := make([]domain.Participant, 0, len(state)+1)
	for _, other := range state {
		if p.Pinned {
			other.Pinned = false
		}
		if p.Focused {
			other.Focused = false
		}
		if p.Selected {
			other.Selected = false
		}
		if p.Speaking {
			other.Speaking = false
		}
		next = append(next, other)
	}
	return append(next, p)
}

func mapParticipants(state []domain.Participant, fn func(*domain.Participant)) []domain.Participant {
	next := cloneParticipants(state)
	for i := range next {
		fn(&next[i])
	}
	return next
}

func cloneParticipants(state []domain.Participant) []domain.Participant {
	next := make([]domain.Participant, len(state))
	copy(next, state)
	return next
}

func indexOfParticipant(state []domain.Participant, id domain.ParticipantID) int {
	for i := range state {
		if state[i].ID == id {
			return i
		}
	}
	return -1
}
