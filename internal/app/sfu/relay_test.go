package sfu

import (
	"testing"

	"github.com/dkeye/Conference/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestOutTrack_SetMuted(t *testing.T) {
	ot := NewOutTrack(nil)
	assert.Equal(t, TrackStateOk, ot.GetState())

	ot.SetMuted(true)
	assert.Equal(t, TrackStateMuted, ot.GetState())
	ot.SetMuted(false)
	assert.Equal(t, TrackStateOk, ot.GetState())

	ot.MarkDelete()
	ot.SetMuted(false)
	assert.Equal(t, TrackStateDelete, ot.GetState())
	ot.SetMuted(true)
	assert.Equal(t, TrackStateDelete, ot.GetState())
}

func TestRelay_MutedAppliesToLateSubscribers(t *testing.T) {
	r := NewRelay(nil, nil)
	early := NewOutTrack(nil)
	r.AddOutTrack("early", early)

	r.setMuted(true)
	late := NewOutTrack(nil)
	r.AddOutTrack("late", late)

	assert.Equal(t, TrackStateMuted, early.GetState())
	assert.Equal(t, TrackStateMuted, late.GetState())

	r.setMuted(false)
	assert.Equal(t, TrackStateOk, early.GetState())
	assert.Equal(t, TrackStateOk, late.GetState())
}

func TestRelay_CleanupDeleted(t *testing.T) {
	r := NewRelay(nil, nil)
	r.AddOutTrack("a", NewOutTrack(nil))
	r.AddOutTrack("b", NewOutTrack(nil))

	r.markAllDelete()
	r.cleanupDeleted([]core.SessionID{"a"})

	r.mu.RLock()
	defer r.mu.RUnlock()
	assert.Len(t, r.outTracks, 1)
	assert.Equal(t, TrackStateDelete, r.outTracks["b"].GetState())
}

func TestRelayManager_WithoutRelays(t *testing.T) {
	m := NewRelayManager()

	assert.False(t, m.SetMuted("x", "mic", true))
	assert.False(t, m.HasRelay("x"))
	assert.Empty(t, m.SrcTracks("x"))

	m.AddSubscriber("x", "mic", "y", nil)
	m.MarkSubscriberDelete("x", "y")
	m.StopTrack("x", "mic")
	m.StopRelay("x")
}

func TestRelayManager_PerTrack(t *testing.T) {
	m := NewRelayManager()
	mic := NewRelay(nil, nil)
	cam := NewRelay(nil, nil)
	m.put("src", "mic", mic)
	m.put("src", "cam", cam)
	m.AddSubscriber("src", "mic", "dst", nil)
	m.AddSubscriber("src", "cam", "dst", nil)

	assert.True(t, m.SetMuted("src", "mic", true))
	assert.Equal(t, TrackStateMuted, mic.outTracks["dst"].GetState())
	assert.Equal(t, TrackStateOk, cam.outTracks["dst"].GetState())
	assert.False(t, m.SetMuted("src", "screen", true))

	m.MarkSubscriberDelete("src", "dst")
	assert.Equal(t, TrackStateDelete, mic.outTracks["dst"].GetState())
	assert.Equal(t, TrackStateDelete, cam.outTracks["dst"].GetState())

	m.StopTrack("src", "mic")
	assert.True(t, m.HasRelay("src"))
	assert.Len(t, m.SrcTracks("src"), 1)

	m.StopRelay("src")
	assert.False(t, m.HasRelay("src"))
}
