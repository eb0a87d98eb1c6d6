package domain

import (
	"sync"

	"github.com/google/uuid"
)

const DefaultMemberName = "guest"

// Member represents a session's participation meta on the server side.
// No transport or lifecycle logic here. ID never changes; the other fields
// are guarded by mu.
type Member struct {
	ID ParticipantID

	mu     sync.RWMutex
	name   string
	avatar string
	role   Role
}

// MemberInfo is a point in time copy of a Member.
type MemberInfo struct {
	ID     ParticipantID `json:"id"`
	Name   string        `json:"name"`
	Avatar string        `json:"avatar,omitempty"`
	Role   Role          `json:"role,omitempty"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(name string) (*Member, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return &Member{ID: ParticipantID(uuid.NewString()), name: name}, nil
}

func (m *Member) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.name
}

func (m *Member) Role() Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.role
}

func (m *Member) SetName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	m.mu.Lock()
	m.name = name
	m.mu.Unlock()
	return nil
}

func (m *Member) SetAvatar(avatar string) {
	m.mu.Lock()
	m.avatar = avatar
	m.mu.Unlock()
}

func (m *Member) SetRole(role Role) {
	m.mu.Lock()
	m.role = role
	m.mu.Unlock()
}

func (m *Member) Info() MemberInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MemberInfo{ID: m.ID, Name: m.name, Avatar: m.avatar, Role: m.role}
}

// Participant builds the record announced into a view. local is true only
// for the view that belongs to this member's own session.
func (m *Member) Participant(local bool) Participant {
	info := m.Info()
	return Participant{
		ID:     info.ID,
		Name:   info.Name,
		Avatar: info.Avatar,
		Role:   info.Role,
		Local:  local,
	}
}
