// Package orch keeps every session's view of a room in step with the others.
package orch

import (
	"errors"
	"sync"

	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/app/sfu"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

// Orchestrator applies one room change at a time: every exported method
// that touches rooms, members or views holds mu, and the unexported helpers
// they share expect it held.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Relays   *sfu.RelayManager
	Metrics  *app.Metrics

	mu sync.Mutex
}

// publish fans build out to the room and applies the backpressure policy to
// members that could not keep up.
func (o *Orchestrator) publish(room core.RoomService, from core.SessionID, build core.ActionFor) {
	res := room.Publish(from, build)
	o.Metrics.ObserveDropped(len(res.Dropped))
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			for _, m := range room.Sessions() {
				if m.Session == slow {
					log.Warn().Str("module", "orch").Str("sid", string(m.SID)).Msg("kicking slow member")
					o.kick(m.SID)
				}
			}
		case app.NoAction:
		}
	}
}

// deliver applies a to one session's own view.
func (o *Orchestrator) deliver(ms core.MemberSession, a core.Action) error {
	err := core.Deliver(ms, a)
	if errors.Is(err, core.ErrDeliveryDropped) {
		o.Metrics.ObserveDropped(1)
		log.Warn().Err(err).Str("module", "orch").Str("member", string(ms.Meta().ID)).Msg("own view frame dropped")
		return nil
	}
	return err
}

func (o *Orchestrator) roomOf(sid core.SessionID) (core.RoomService, core.MemberSession, bool) {
	roomID, sess, ok := o.Registry.RoomOf(sid)
	if !ok {
		return nil, nil, false
	}
	room, ok := o.Rooms.GetRoom(roomID)
	if !ok {
		return nil, nil, false
	}
	return room, sess, true
}

// View returns the current view of sid.
func (o *Orchestrator) View(sid core.SessionID) (core.Snapshot, error) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return core.Snapshot{}, app.ErrNoSession
	}
	return sess.State().Snapshot(), nil
}

// remoteParticipant is how a member's own record looks from another view:
// view-local flags do not travel.
func remoteParticipant(ms core.MemberSession) domain.Participant {
	p, ok := ms.State().Snapshot().LocalParticipant()
	if !ok {
		return ms.Meta().Participant(false)
	}
	p.Local = false
	p.Pinned = false
	p.Focused = false
	p.Selected = false
	return p
}

// remoteTrack is how a published track looks from another view.
func remoteTrack(t domain.Track, owner domain.ParticipantID) domain.Track {
	return domain.Track{
		Handle:        t.Handle,
		MediaType:     t.MediaType,
		ParticipantID: owner,
		Muted:         t.Muted,
		VideoStarted:  t.VideoStarted,
		VideoType:     t.VideoType,
	}
}
