package core

import (
	"sync"

	"github.com/dkeye/Conference/internal/domain"
)

// memberSession implements MemberSession by pairing meta + transports + view.
type memberSession struct {
	meta  *domain.Member
	state *Store

	mu     sync.RWMutex
	signal SignalConnection
	media  MediaConnection
}

func NewMemberSession(meta *domain.Member) MemberSession {
	return &memberSession{meta: meta, state: NewConferenceStore()}
}

func (m *memberSession) Meta() *domain.Member { return m.meta }
func (m *memberSession) State() *Store        { return m.state }

func (m *memberSession) Signal() SignalConnection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.signal
}

func (m *memberSession) Media() MediaConnection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.media
}

func (m *memberSession) UpdateSignal(sc SignalConnection) MemberSession {
	m.mu.Lock()
	m.signal = sc
	m.mu.Unlock()
	return m
}

func (m *memberSession) UpdateMedia(mc MediaConnection) MemberSession {
	m.mu.Lock()
	m.media = mc
	m.mu.Unlock()
	return m
}
