package signal

import (
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleRename(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		Name string `json:"name"`
	}
	if !ctl.decode(conn, data, &p) {
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", p.Name).Msg("rename")
	if err := ctl.Orch.Rename(sid, p.Name); err != nil {
		ctl.sendError(conn, err)
		return
	}
	ctl.handleWhoAmI(sid, conn)
}

// handleUpdate takes the participant fields at the top level of the message,
// next to "type".
func (ctl *SignalWSController) handleUpdate(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var u domain.ParticipantUpdate
	if !ctl.decode(conn, data, &u) {
		return
	}
	if err := ctl.Orch.Update(sid, u); err != nil {
		ctl.sendError(conn, err)
	}
}

func (ctl *SignalWSController) handleRole(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		ID   domain.ParticipantID `json:"id"`
		Role domain.Role          `json:"role"`
	}
	if !ctl.decode(conn, data, &p) {
		return
	}
	if err := ctl.Orch.ChangeRole(sid, p.ID, p.Role); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("target", string(p.ID)).Msg("role change refused")
		ctl.sendError(conn, err)
	}
}
