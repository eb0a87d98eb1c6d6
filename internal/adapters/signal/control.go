package signal

import (
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
)

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleWhoAmI(
	sid core.SessionID,
	conn *WsSignalConn,
) {
	member := ctl.Orch.Registry.GetOrCreateMember(sid).Info()

	resp := struct {
		Type     string               `json:"type"`
		ID       domain.ParticipantID `json:"id"`
		Name     string               `json:"name"`
		Role     domain.Role          `json:"role,omitempty"`
		Room     domain.RoomID        `json:"room,omitempty"`
		RoomName domain.RoomName      `json:"room_name,omitempty"`
	}{
		Type: "whoami",
		ID:   member.ID,
		Name: member.Name,
		Role: member.Role,
	}
	if roomID, _, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		if room, ok := ctl.Orch.Rooms.GetRoom(roomID); ok {
			resp.RoomName = room.Room().Name
			resp.Room = roomID
		}
	}
	ctl.sendJSON(conn, resp)
}
