package orch

import (
	"fmt"

	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join puts sid into a room. The joiner's view gets its own participant
// first, which binds any tracks published before the join, and then the
// room as it is. Everyone else gets the joiner.
func (o *Orchestrator) Join(sid core.SessionID, roomID domain.RoomID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.join(sid, roomID)
}

func (o *Orchestrator) join(sid core.SessionID, roomID domain.RoomID) error {
	room, ok := o.Rooms.GetRoom(roomID)
	if !ok {
		return app.ErrNoRoom
	}
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return app.ErrNoSession
	}
	if current, _, ok := o.Registry.RoomOf(sid); ok {
		if current == roomID {
			return nil
		}
		o.leaveRoom(sid)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(current)).Msg("left previous room")
	}

	member := session.Meta()
	mates := room.Sessions()
	if len(mates) == 0 {
		member.SetRole(domain.RoleModerator)
	} else {
		member.SetRole(domain.RoleParticipant)
	}

	room.AddMember(sid, session)
	o.Registry.UpdateRoom(sid, roomID)

	if err := o.deliver(session, core.ParticipantAdded{Participant: member.Participant(true)}); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	for _, mate := range mates {
		if err := o.deliver(session, core.ParticipantAdded{Participant: remoteParticipant(mate.Session)}); err != nil {
			return fmt.Errorf("join: %w", err)
		}
		mateID := mate.Session.Meta().ID
		for _, t := range mate.Session.State().Snapshot().LocalTracks() {
			if err := o.deliver(session, core.TrackAdded{Track: remoteTrack(t, mateID)}); err != nil {
				return fmt.Errorf("join: %w", err)
			}
		}
	}

	joined := remoteParticipant(session)
	o.publish(room, sid, func(core.MemberSession) core.Action {
		return core.ParticipantAdded{Participant: joined}
	})
	for _, t := range session.State().Snapshot().LocalTracks() {
		tr := remoteTrack(t, member.ID)
		o.publish(room, sid, func(core.MemberSession) core.Action {
			return core.TrackAdded{Track: tr}
		})
	}

	o.subscribeToRoom(sid)
	if o.Relays != nil {
		o.subscribeRoomTo(sid, o.Relays.SrcTracks(sid)...)
	}

	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("added to room")
	return nil
}

// Move switches rooms while keeping the media session.
func (o *Orchestrator) Move(sid core.SessionID, to domain.RoomID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	from, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return app.ErrNotInRoom
	}
	if from == to {
		return nil
	}
	if _, ok := o.Rooms.GetRoom(to); !ok {
		return app.ErrNoRoom
	}
	o.leaveRoom(sid)
	return o.join(sid, to)
}

// Leave takes sid out of its room; the signaling session stays open.
func (o *Orchestrator) Leave(sid core.SessionID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, _, ok := o.Registry.RoomOf(sid); !ok {
		return app.ErrNotInRoom
	}
	o.kick(sid)
	return nil
}

func (o *Orchestrator) KickBySID(sid core.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.kick(sid)
}

func (o *Orchestrator) kick(sid core.SessionID) {
	o.cleanupMedia(sid)
	o.leaveRoom(sid)
}

func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.kick(sid)
	o.Registry.Unbind(sid)
}

// leaveRoom removes sid from the room and from every roommate's view, and
// empties sid's own view of the room.
func (o *Orchestrator) leaveRoom(sid core.SessionID) {
	room, session, ok := o.roomOf(sid)
	if !ok {
		o.Registry.RemoveRoom(sid)
		return
	}
	member := session.Meta()

	if o.Relays != nil {
		for _, mate := range room.Sessions() {
			o.Relays.MarkSubscriberDelete(mate.SID, sid)
			o.Relays.MarkSubscriberDelete(sid, mate.SID)
		}
	}

	room.RemoveMember(sid)
	o.Registry.RemoveRoom(sid)

	for _, t := range session.State().Snapshot().LocalTracks() {
		h := t.Handle
		o.publish(room, sid, func(core.MemberSession) core.Action {
			return core.TrackRemoved{Handle: h}
		})
	}
	o.publish(room, sid, func(core.MemberSession) core.Action {
		return core.ParticipantRemoved{ID: member.ID}
	})

	snap := session.State().Snapshot()
	for _, t := range snap.Tracks {
		if !t.Local {
			_ = o.deliver(session, core.TrackRemoved{Handle: t.Handle})
		}
	}
	for _, p := range snap.Participants {
		_ = o.deliver(session, core.ParticipantRemoved{ID: p.ID})
	}

	if member.Role() == domain.RoleModerator {
		o.promoteModerator(room, "")
	}
}

// promoteModerator hands the moderator role to the longest present member
// other than skip when nobody holds it.
func (o *Orchestrator) promoteModerator(room core.RoomService, skip domain.ParticipantID) {
	var next *domain.Member
	for _, m := range room.Sessions() {
		meta := m.Session.Meta()
		if meta.Role() == domain.RoleModerator {
			return
		}
		if next == nil && meta.ID != skip {
			next = meta
		}
	}
	if next == nil {
		return
	}
	next.SetRole(domain.RoleModerator)
	o.publish(room, "", func(core.MemberSession) core.Action {
		return core.ParticipantRoleChanged{ID: next.ID, Role: domain.RoleModerator}
	})
	log.Info().Str("module", "orch").Str("member", string(next.ID)).Msg("promoted to moderator")
}

func (o *Orchestrator) EvictRoom(id domain.RoomID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if room, ok := o.Rooms.GetRoom(id); ok {
		for _, m := range room.Sessions() {
			o.kick(m.SID)
		}
	}
	o.Rooms.StopRoom(id)
}
