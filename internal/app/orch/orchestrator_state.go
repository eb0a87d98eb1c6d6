package orch

import (
	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

// Update applies a bulk update of sid's own participant to every view in
// the room. Role and selection have their own operations and are dropped
// here.
func (o *Orchestrator) Update(sid core.SessionID, u domain.ParticipantUpdate) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return app.ErrNoSession
	}
	member := session.Meta()
	u.ID = member.ID
	u.Role = nil
	u.Selected = nil
	if u.Empty() {
		return app.ErrEmptyUpdate
	}
	if u.Name != nil {
		if err := o.Registry.UpdateName(sid, *u.Name); err != nil {
			return err
		}
	}
	if u.Avatar != nil {
		member.SetAvatar(*u.Avatar)
	}

	if err := o.deliver(session, core.ParticipantUpdated{Update: u}); err != nil {
		return err
	}
	if room, _, ok := o.roomOf(sid); ok {
		o.publish(room, sid, func(core.MemberSession) core.Action {
			return core.ParticipantUpdated{Update: u}
		})
	}
	return nil
}

func (o *Orchestrator) Rename(sid core.SessionID, name string) error {
	return o.Update(sid, domain.ParticipantUpdate{Name: &name})
}

// SetDominantSpeaker marks sid as the dominant speaker in every view of its
// room, its own included.
func (o *Orchestrator) SetDominantSpeaker(sid core.SessionID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	room, session, ok := o.roomOf(sid)
	if !ok {
		return app.ErrNotInRoom
	}
	id := session.Meta().ID
	o.publish(room, "", func(core.MemberSession) core.Action {
		return core.DominantSpeakerChanged{ID: id}
	})
	return nil
}

// Pin, Focus and Select only change the caller's own view.

func (o *Orchestrator) Pin(sid core.SessionID, target domain.ParticipantID) error {
	return o.applyOwn(sid, core.ParticipantPinned{ID: target})
}

func (o *Orchestrator) Focus(sid core.SessionID, target domain.ParticipantID) error {
	return o.applyOwn(sid, core.ParticipantFocused{ID: target})
}

func (o *Orchestrator) Select(sid core.SessionID, target domain.ParticipantID) error {
	return o.applyOwn(sid, core.ParticipantSelected{ID: target})
}

func (o *Orchestrator) applyOwn(sid core.SessionID, a core.Action) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return app.ErrNoSession
	}
	return o.deliver(session, a)
}

// ChangeRole lets a moderator set the role of a member of the same room.
func (o *Orchestrator) ChangeRole(sid core.SessionID, target domain.ParticipantID, role domain.Role) error {
	if role != domain.RoleParticipant && role != domain.RoleModerator {
		return app.ErrInvalidRole
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	room, session, ok := o.roomOf(sid)
	if !ok {
		return app.ErrNotInRoom
	}
	if session.Meta().Role() != domain.RoleModerator {
		return app.ErrForbidden
	}

	var targetMember *domain.Member
	for _, m := range room.Sessions() {
		if m.Session.Meta().ID == target {
			targetMember = m.Session.Meta()
		}
	}
	if targetMember == nil {
		return app.ErrNotInRoom
	}
	targetMember.SetRole(role)

	o.publish(room, "", func(core.MemberSession) core.Action {
		return core.ParticipantRoleChanged{ID: target, Role: role}
	})
	if role != domain.RoleModerator && target == session.Meta().ID {
		o.promoteModerator(room, target)
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("target", string(target)).Str("role", string(role)).Msg("role changed")
	return nil
}
