package core

import "github.com/dkeye/Conference/internal/domain"

type SessionID string

// MemberSession binds domain.Member, its transport endpoints and the
// session's own view of the conference.
// This is what a room stores and fans out to.
type MemberSession interface {
	Meta() *domain.Member
	State() *Store
	Signal() SignalConnection
	Media() MediaConnection
	UpdateSignal(SignalConnection) MemberSession
	UpdateMedia(MediaConnection) MemberSession
}
