package signal

import (
	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleSpeaking(
	sid core.SessionID,
	conn *WsSignalConn,
) {
	if err := ctl.Orch.SetDominantSpeaker(sid); err != nil {
		ctl.sendError(conn, err)
	}
}

// handleViewTarget covers pin, focus and select, which only touch the
// caller's own view.
func (ctl *SignalWSController) handleViewTarget(
	sid core.SessionID,
	conn *WsSignalConn,
	kind string,
	data []byte,
) {
	var p struct {
		ID domain.ParticipantID `json:"id"`
	}
	if !ctl.decode(conn, data, &p) {
		return
	}

	var err error
	switch kind {
	case "pin":
		err = ctl.Orch.Pin(sid, p.ID)
	case "focus":
		err = ctl.Orch.Focus(sid, p.ID)
	case "select":
		err = ctl.Orch.Select(sid, p.ID)
	}
	if err != nil {
		ctl.sendError(conn, err)
	}
}

func (ctl *SignalWSController) handleTrack(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		TrackID      string            `json:"trackId"`
		Muted        *bool             `json:"muted,omitempty"`
		MirrorVideo  *bool             `json:"mirrorVideo,omitempty"`
		VideoStarted *bool             `json:"videoStarted,omitempty"`
		VideoType    *domain.VideoType `json:"videoType,omitempty"`
	}
	if !ctl.decode(conn, data, &p) {
		return
	}

	t, ok := ctl.Orch.LocalTrack(sid, p.TrackID)
	if !ok {
		ctl.sendError(conn, app.ErrNoTrack)
		return
	}
	change := domain.TrackChange{
		Handle:       t.Handle,
		Muted:        p.Muted,
		MirrorVideo:  p.MirrorVideo,
		VideoStarted: p.VideoStarted,
		VideoType:    p.VideoType,
	}
	if err := ctl.Orch.ChangeTrack(sid, change); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("track", p.TrackID).Msg("track change")
		ctl.sendError(conn, err)
	}
}
