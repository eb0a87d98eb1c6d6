package orch

import (
	"context"

	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) BindMediaHandlers(mc core.MediaConnection, sid core.SessionID) {
	mc.OnTrack(func(trackCtx context.Context, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		o.OnTrack(trackCtx, sid, track)
	})
	mc.OnClosed(func() { o.OnMediaDisconnect(sid) })
}

func (o *Orchestrator) OnMediaDisconnect(sid core.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cleanupMedia(sid)
}

func (o *Orchestrator) cleanupMedia(sid core.SessionID) {
	if o.Relays != nil {
		o.Relays.StopRelay(sid)

		if room, _, ok := o.roomOf(sid); ok {
			for _, m := range room.Sessions() {
				o.Relays.MarkSubscriberDelete(m.SID, sid)
			}
		}
	}

	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	for _, t := range sess.State().Snapshot().LocalTracks() {
		if err := o.unpublishTrack(sid, t.Handle); err != nil {
			log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("unpublish on cleanup")
		}
	}
	if mc := sess.Media(); mc != nil {
		sess.UpdateMedia(nil)
		// Close reports back through OnMediaDisconnect, which needs mu.
		go mc.Close()
	}
}

func mediaTypeOf(kind webrtc.RTPCodecType) domain.MediaType {
	if kind == webrtc.RTPCodecTypeVideo {
		return domain.MediaTypeVideo
	}
	return domain.MediaTypeAudio
}

// OnTrack is called when a new remote media track appears for a given session.
func (o *Orchestrator) OnTrack(ctx context.Context, sid core.SessionID, track *webrtc.TrackRemote) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if sess, ok := o.Registry.GetSession(sid); !ok || sess.Media() == nil {
		return
	}
	if o.Relays != nil {
		o.Relays.StartRelay(ctx, sid, track)
	}
	if err := o.publishTrack(sid, track, mediaTypeOf(track.Kind())); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("publish track")
		return
	}
	o.subscribeRoomTo(sid, track)
}

// PublishTrack adds a track owned by sid. Its own view gets it as local,
// before or after the join; roommates get a remote copy.
func (o *Orchestrator) PublishTrack(sid core.SessionID, handle domain.StreamHandle, mediaType domain.MediaType) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.publishTrack(sid, handle, mediaType)
}

func (o *Orchestrator) publishTrack(sid core.SessionID, handle domain.StreamHandle, mediaType domain.MediaType) error {
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return app.ErrNoSession
	}
	t := domain.Track{Handle: handle, Local: true, MediaType: mediaType}
	if self, ok := session.State().Snapshot().LocalParticipant(); ok {
		t.ParticipantID = self.ID
	}
	if err := o.deliver(session, core.TrackAdded{Track: t}); err != nil {
		return err
	}

	if room, _, ok := o.roomOf(sid); ok {
		remote := remoteTrack(t, session.Meta().ID)
		o.publish(room, sid, func(core.MemberSession) core.Action {
			return core.TrackAdded{Track: remote}
		})
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("track", handle.ID()).Str("media", string(mediaType)).Msg("track published")
	return nil
}

func (o *Orchestrator) UnpublishTrack(sid core.SessionID, handle domain.StreamHandle) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.unpublishTrack(sid, handle)
}

func (o *Orchestrator) unpublishTrack(sid core.SessionID, handle domain.StreamHandle) error {
	if err := core.ValidateAction(core.TrackRemoved{Handle: handle}); err != nil {
		return err
	}
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return app.ErrNoSession
	}
	if o.Relays != nil {
		o.Relays.StopTrack(sid, handle.ID())
	}
	if err := o.deliver(session, core.TrackRemoved{Handle: handle}); err != nil {
		return err
	}
	if room, _, ok := o.roomOf(sid); ok {
		o.publish(room, sid, func(core.MemberSession) core.Action {
			return core.TrackRemoved{Handle: handle}
		})
	}
	return nil
}

// LocalTrack finds one of sid's own tracks by its id. An empty id matches
// nothing.
func (o *Orchestrator) LocalTrack(sid core.SessionID, trackID string) (domain.Track, bool) {
	if trackID == "" {
		return domain.Track{}, false
	}
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return domain.Track{}, false
	}
	for _, t := range session.State().Snapshot().LocalTracks() {
		if t.Handle.ID() == trackID {
			return t, true
		}
	}
	return domain.Track{}, false
}

// ChangeTrack merges c into one of sid's own tracks in every view. Mirroring
// only concerns the owner's view.
func (o *Orchestrator) ChangeTrack(sid core.SessionID, c domain.TrackChange) error {
	if err := core.ValidateAction(core.TrackChanged{Change: c}); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return app.ErrNoSession
	}
	found := false
	for _, t := range session.State().Snapshot().LocalTracks() {
		if t.Handle == c.Handle {
			found = true
		}
	}
	if !found {
		return app.ErrNoTrack
	}
	c.ParticipantID = nil

	if err := o.deliver(session, core.TrackChanged{Change: c}); err != nil {
		return err
	}

	shared := c
	shared.MirrorVideo = nil
	if room, _, ok := o.roomOf(sid); ok {
		o.publish(room, sid, func(core.MemberSession) core.Action {
			return core.TrackChanged{Change: shared}
		})
	}

	if c.Muted != nil && o.Relays != nil {
		o.Relays.SetMuted(sid, c.Handle.ID(), *c.Muted)
	}
	return nil
}

// subscribeRoomTo feeds the given tracks of sid to every roommate with a
// media session.
func (o *Orchestrator) subscribeRoomTo(sid core.SessionID, tracks ...*webrtc.TrackRemote) {
	if o.Relays == nil || len(tracks) == 0 {
		return
	}
	room, _, ok := o.roomOf(sid)
	if !ok {
		log.Info().
			Str("module", "sfu").
			Str("sid", string(sid)).
			Msg("OnTrack: no room for sid")
		return
	}

	for _, m := range room.Sessions() {
		if m.SID == sid {
			continue
		}
		pc := m.Session.Media()
		if pc == nil {
			continue
		}
		for _, src := range tracks {
			if err := o.Relays.Subscribe(sid, m.SID, pc, src); err != nil {
				log.Error().Err(err).Str("module", "sfu").Str("src", string(sid)).Str("dst", string(m.SID)).Msg("subscribe")
			}
		}
	}
}

// OnMediaReady is called when MediaConnection is attached to the session (offer/answer done).
// It subscribes this user to every relayed track in the same room.
func (o *Orchestrator) OnMediaReady(sid core.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subscribeToRoom(sid)
}

func (o *Orchestrator) subscribeToRoom(sid core.SessionID) {
	if o.Relays == nil {
		return
	}
	room, sess, ok := o.roomOf(sid)
	if !ok {
		return
	}

	// If there is no media connection yet, nothing to do.
	mc := sess.Media()
	if mc == nil {
		return
	}

	for _, m := range room.Sessions() {
		if m.SID == sid {
			continue
		}
		for _, src := range o.Relays.SrcTracks(m.SID) {
			if err := o.Relays.Subscribe(m.SID, sid, mc, src); err != nil {
				log.Error().Err(err).Str("module", "sfu").Str("src", string(m.SID)).Str("dst", string(sid)).Msg("subscribe")
			}
		}
	}
}
