package core

import (
	"errors"
	"slices"
	"sync"

	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room  *domain.Room
	mu    sync.RWMutex
	bySID map[SessionID]MemberSession
	order []SessionID
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		room:  room,
		bySID: make(map[SessionID]MemberSession),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) AddMember(sid SessionID, ms MemberSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; !ok {
		r.order = append(r.order, sid)
	}
	r.bySID[sid] = ms
	log.Info().Str("module", "core.room").Str("sid", string(sid)).Str("member", string(ms.Meta().ID)).Msg("member added")
}

func (r *roomImpl) RemoveMember(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; !ok {
		return
	}
	delete(r.bySID, sid)
	r.order = slices.DeleteFunc(r.order, func(s SessionID) bool { return s == sid })
	log.Info().Str("module", "core.room").Str("sid", string(sid)).Msg("member removed")
}

func (r *roomImpl) Sessions() []RoomMember {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomMember, 0, len(r.order))
	for _, sid := range r.order {
		out = append(out, RoomMember{SID: sid, Session: r.bySID[sid]})
	}
	return out
}

func (r *roomImpl) Publish(from SessionID, build ActionFor) PublishResult {
	res := PublishResult{}
	for _, m := range r.Sessions() {
		sid, ms := m.SID, m.Session
		if from != "" && sid == from {
			continue
		}
		a := build(ms)
		if a == nil {
			continue
		}
		if err := Deliver(ms, a); err != nil {
			if errors.Is(err, ErrDeliveryDropped) {
				res.Dropped = append(res.Dropped, ms)
				continue
			}
			log.Error().Err(err).Str("module", "core.room").Str("sid", string(sid)).Msg("publish")
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("publish result")
	return res
}

func (r *roomImpl) MembersSnapshot() []domain.MemberInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.MemberInfo, 0, len(r.order))
	for _, sid := range r.order {
		out = append(out, r.bySID[sid].Meta().Info())
	}
	return out
}
