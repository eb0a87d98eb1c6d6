package core

import (
	"github.com/dkeye/Conference/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// RoomMember pairs a session with its id inside a room.
type RoomMember struct {
	SID     SessionID
	Session MemberSession
}

// ActionFor builds the action a single recipient should see, or nil to skip
// that recipient.
type ActionFor func(recipient MemberSession) Action

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	MembersSnapshot() []domain.MemberInfo
	// Sessions lists members in join order.
	Sessions() []RoomMember

	AddMember(sid SessionID, ms MemberSession)
	RemoveMember(sid SessionID)
	// Publish delivers a per-recipient action to every member except from.
	// An empty from reaches everyone.
	Publish(from SessionID, build ActionFor) PublishResult
}

type RoomInfo struct {
	ID          domain.RoomID   `json:"id"`
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
}

type RoomManager interface {
	CreateRoom(name domain.RoomName) RoomService
	GetRoom(id domain.RoomID) (RoomService, bool)
	List() []RoomInfo
	StopRoom(id domain.RoomID)
}
