package app

import (
	"sync"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]core.RoomService

	metrics *Metrics
}

func NewRoomManager(metrics *Metrics) core.RoomManager {
	return &RoomManagerImpl{
		rooms:   make(map[domain.RoomID]core.RoomService),
		metrics: metrics,
	}
}

func (f *RoomManagerImpl) CreateRoom(name domain.RoomName) core.RoomService {
	room := core.NewRoomService(domain.NewRoom(string(name)))
	f.mu.Lock()
	f.rooms[room.Room().ID] = room
	n := len(f.rooms)
	f.mu.Unlock()
	f.metrics.SetRooms(n)
	log.Info().Str("module", "app.rooms").Str("room", string(room.Room().ID)).Str("name", string(room.Room().Name)).Msg("room created")
	return room
}

func (f *RoomManagerImpl) GetRoom(id domain.RoomID) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for id, r := range f.rooms {
		out = append(out, core.RoomInfo{ID: id, Name: r.Room().Name, MemberCount: r.MemberCount()})
	}
	return out
}

func (f *RoomManagerImpl) StopRoom(id domain.RoomID) {
	f.mu.Lock()
	delete(f.rooms, id)
	n := len(f.rooms)
	f.mu.Unlock()
	f.metrics.SetRooms(n)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room stopped")
}
