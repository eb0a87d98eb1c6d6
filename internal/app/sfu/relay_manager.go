package sfu

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/Conference/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// RelayManager holds one relay per published track, grouped by the
// publishing session.
type RelayManager struct {
	mu     sync.RWMutex
	relays map[core.SessionID]map[string]*Relay
}

func NewRelayManager() *RelayManager {
	return &RelayManager{
		relays: make(map[core.SessionID]map[string]*Relay),
	}
}

func (m *RelayManager) relay(sid core.SessionID, trackID string) (*Relay, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.relays[sid][trackID]
	return r, ok
}

// relaysOf returns every relay sid publishes.
func (m *RelayManager) relaysOf(sid core.SessionID) []*Relay {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Relay, 0, len(m.relays[sid]))
	for _, r := range m.relays[sid] {
		out = append(out, r)
	}
	return out
}

func (m *RelayManager) put(sid core.SessionID, trackID string, r *Relay) (old *Relay) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byTrack, ok := m.relays[sid]
	if !ok {
		byTrack = make(map[string]*Relay)
		m.relays[sid] = byTrack
	}
	old = byTrack[trackID]
	byTrack[trackID] = r
	return old
}

func (r *Relay) stop() {
	r.markAllDelete()
	if r.cancel != nil {
		r.cancel()
	}
}

// StartRelay creates a Relay for one track of sid and starts its loop. A
// relay already running for the same track id is replaced.
func (m *RelayManager) StartRelay(ctx context.Context, sid core.SessionID, track *webrtc.TrackRemote) {
	logger := log.With().
		Str("module", "relay").
		Str("sid", string(sid)).
		Str("track", track.ID()).
		Logger()

	relayCtx, cancel := context.WithCancel(ctx)
	relay := NewRelay(track, cancel)

	if old := m.put(sid, track.ID(), relay); old != nil {
		logger.Info().Msg("replacing existing relay for track")
		old.stop()
	}

	logger.Info().Msg("starting relay loop")

	go relay.loop(relayCtx, &logger)
}

// AddSubscriber attaches an OutTrack for dstSID to the relay of one of
// srcSID's tracks.
func (m *RelayManager) AddSubscriber(srcSID core.SessionID, trackID string, dstSID core.SessionID, localTrack *webrtc.TrackLocalStaticRTP) {
	relay, ok := m.relay(srcSID, trackID)
	if !ok {
		return
	}
	relay.AddOutTrack(dstSID, NewOutTrack(localTrack))
}

// Subscribe creates a local copy of src on dst's media connection and feeds
// it from the relay of src.
func (m *RelayManager) Subscribe(srcSID, dstSID core.SessionID, mc core.MediaConnection, src *webrtc.TrackRemote) error {
	local, err := webrtc.NewTrackLocalStaticRTP(src.Codec().RTPCodecCapability, src.ID(), src.StreamID())
	if err != nil {
		return fmt.Errorf("new local track: %w", err)
	}
	if _, err := mc.AddLocalTrack(local); err != nil {
		return fmt.Errorf("add local track: %w", err)
	}
	m.AddSubscriber(srcSID, src.ID(), dstSID, local)
	log.Info().Str("module", "relay").Str("src", string(srcSID)).Str("dst", string(dstSID)).Str("track", src.ID()).Msg("subscribed")
	return nil
}

// MarkSubscriberDelete stops feeding any of srcSID's tracks to dstSID.
func (m *RelayManager) MarkSubscriberDelete(srcSID, dstSID core.SessionID) {
	for _, relay := range m.relaysOf(srcSID) {
		relay.mu.RLock()
		ot, ok := relay.outTracks[dstSID]
		relay.mu.RUnlock()
		if ok {
			ot.MarkDelete()
		}
	}
}

// SetMuted stops or resumes forwarding one of srcSID's tracks to every
// subscriber.
func (m *RelayManager) SetMuted(srcSID core.SessionID, trackID string, muted bool) bool {
	relay, ok := m.relay(srcSID, trackID)
	if !ok {
		return false
	}
	relay.setMuted(muted)
	return true
}

// StopTrack stops the relay of one track.
func (m *RelayManager) StopTrack(srcSID core.SessionID, trackID string) {
	m.mu.Lock()
	relay, ok := m.relays[srcSID][trackID]
	if ok {
		delete(m.relays[srcSID], trackID)
		if len(m.relays[srcSID]) == 0 {
			delete(m.relays, srcSID)
		}
	}
	m.mu.Unlock()
	if ok {
		relay.stop()
	}
}

// StopRelay stops every relay of srcSID and removes them from the manager.
func (m *RelayManager) StopRelay(srcSID core.SessionID) {
	m.mu.Lock()
	byTrack := m.relays[srcSID]
	delete(m.relays, srcSID)
	m.mu.Unlock()
	for _, relay := range byTrack {
		relay.stop()
	}
}

// HasRelay reports whether sid publishes any relayed track.
func (m *RelayManager) HasRelay(sid core.SessionID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.relays[sid]) > 0
}

// SrcTracks returns the source tracks sid publishes.
func (m *RelayManager) SrcTracks(sid core.SessionID) []*webrtc.TrackRemote {
	relays := m.relaysOf(sid)
	out := make([]*webrtc.TrackRemote, 0, len(relays))
	for _, r := range relays {
		out = append(out, r.Src)
	}
	return out
}
