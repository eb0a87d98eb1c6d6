package app

import (
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
)

// LargeVideoStyle is the fixed style of the stage container.
const LargeVideoStyle = "large-video"

// StageChild is what the stage renders: one participant and, when it has
// one, its video track.
type StageChild struct {
	Participant domain.Participant `json:"participant"`
	Video       *domain.Track      `json:"video,omitempty"`
}

// LargeVideoContainer renders the participant "on stage". It has no state of
// its own and forwards its child unmodified.
type LargeVideoContainer struct {
	Style string      `json:"style"`
	Child *StageChild `json:"child,omitempty"`
}

func NewLargeVideoContainer(child *StageChild) LargeVideoContainer {
	return LargeVideoContainer{Style: LargeVideoStyle, Child: child}
}

// SelectLargeVideo picks who goes on stage: the pinned participant, then the
// dominant speaker, then the first remote participant, then the local one.
// It returns nil for an empty view.
func SelectLargeVideo(snap core.Snapshot) *StageChild {
	var chosen *domain.Participant
	pick := func(match func(domain.Participant) bool) bool {
		for i := range snap.Participants {
			if match(snap.Participants[i]) {
				chosen = &snap.Participants[i]
				return true
			}
		}
		return false
	}

	_ = pick(func(p domain.Participant) bool { return p.Pinned }) ||
		pick(func(p domain.Participant) bool { return p.Speaking }) ||
		pick(func(p domain.Participant) bool { return !p.Local }) ||
		pick(func(p domain.Participant) bool { return p.Local })

	if chosen == nil {
		return nil
	}
	child := &StageChild{Participant: *chosen}
	for _, t := range snap.TracksOf(chosen.ID) {
		if t.MediaType == domain.MediaTypeVideo {
			video := t
			child.Video = &video
			break
		}
	}
	return child
}

// Stage builds the large-video container for a view.
func Stage(st *core.Store) LargeVideoContainer {
	return NewLargeVideoContainer(SelectLargeVideo(st.Snapshot()))
}
