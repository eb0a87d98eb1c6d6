package core

import "github.com/dkeye/Conference/internal/domain"

// TracksSlice is the name the track collection is registered under.
const TracksSlice = "base/tracks"

// ReduceTracks listens for actions that add, remove or change local and
// remote tracks.
func ReduceTracks(state []domain.Track, action Action) []domain.Track {
	switch a := action.(type) {
	case TrackAdded:
		next := make([]domain.Track, 0, len(state)+1)
		next = append(next, state...)
		return append(next, a.Track)

	case TrackRemoved:
		if indexOfTrack(state, a.Handle) < 0 {
			return state
		}
		next := make([]domain.Track, 0, len(state)-1)
		for _, t := range state {
			if t.Handle != a.Handle {
				next = append(next, t)
			}
		}
		return next

	case ParticipantAdded, TrackChanged:
		return mapTracks(state, action)

	default:
		return state
	}
}

func mapTracks(state []domain.Track, action Action) []domain.Track {
	next := make([]domain.Track, len(state))
	for i, t := range state {
		next[i] = reduceTrack(t, action)
	}
	return next
}

func reduceTrack(t domain.Track, action Action) domain.Track {
	switch a := action.(type) {
	// The local participant may join after the local tracks were created,
	// so its id is synced into them here.
	case ParticipantAdded:
		if t.Local && a.Participant.Local {
			t.ParticipantID = a.Participant.ID
		}
		return t

	case TrackChanged:
		if t.Handle == a.Change.Handle {
			return a.Change.Merge(t)
		}
		return t

	default:
		return t
	}
}

func indexOfTrack(state []domain.Track, h domain.StreamHandle) int {
	for i := range state {
		if state[i].Handle == h {
			return i
		}
	}
	return -1
}
