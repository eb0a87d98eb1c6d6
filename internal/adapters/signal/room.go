package signal

import (
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleCreateRoom(
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

	room := ctl.Orch.Rooms.CreateRoom(domain.RoomName(p.Name))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", string(room.Room().ID)).Msg("room created")
	resp := struct {
		Type     string          `json:"type"`
		Room     domain.RoomID   `json:"room"`
		RoomName domain.RoomName `json:"room_name"`
	}{
		Type:     "room_created",
		Room:     room.Room().ID,
		RoomName: room.Room().Name,
	}
	ctl.sendJSON(conn, resp)
}

// enterRoom runs join or move under the per-participant rate limit.
func (ctl *SignalWSController) enterRoom(
	sid core.SessionID,
	conn *WsSignalConn,
	roomID domain.RoomID,
	enter func(core.SessionID, domain.RoomID) error,
) {
	member := ctl.Orch.Registry.GetOrCreateMember(sid)
	if !ctl.Limiter.Allow(member.ID) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("join rate limited")
		ctl.sendError(conn, errRateLimited)
		return
	}
	if err := enter(sid, roomID); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room_id", string(roomID)).Msg("enter room")
		ctl.sendError(conn, err)
		return
	}
	room, ok := ctl.Orch.Rooms.GetRoom(roomID)
	if !ok {
		return
	}
	resp := struct {
		Type     string              `json:"type"`
		Room     domain.RoomID       `json:"room"`
		RoomName domain.RoomName     `json:"room_name"`
		Count    int                 `json:"count"`
		Members  []domain.MemberInfo `json:"members"`
	}{
		Type:     "joined",
		Room:     room.Room().ID,
		RoomName: room.Room().Name,
		Count:    room.MemberCount(),
		Members:  room.MembersSnapshot(),
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		Room string `json:"room"`
		Name string `json:"name,omitempty"`
	}
	if !ctl.decode(conn, data, &p) {
		return
	}
	if p.Name != "" {
		if err := ctl.Orch.Rename(sid, p.Name); err != nil {
			ctl.sendError(conn, err)
			return
		}
		log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", p.Name).Msg("rename on join")
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", p.Room).Msg("join")
	ctl.enterRoom(sid, conn, domain.RoomID(p.Room), ctl.Orch.Join)
}

func (ctl *SignalWSController) handleMove(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		Room string `json:"room"`
	}
	if !ctl.decode(conn, data, &p) {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", p.Room).Msg("move")
	ctl.enterRoom(sid, conn, domain.RoomID(p.Room), ctl.Orch.Move)
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(
	sid core.SessionID,
	conn *WsSignalConn,
) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	if err := ctl.Orch.Leave(sid); err != nil {
		ctl.sendError(conn, err)
		return
	}
	ctl.sendJSON(conn, map[string]any{
		"type": "left",
	})
}
