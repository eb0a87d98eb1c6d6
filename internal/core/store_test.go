package core_test

import (
	"testing"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_DispatchReachesBothSlices(t *testing.T) {
	st := core.NewConferenceStore()
	local := newStream("mic")

	// Local track before the local participant exists.
	require.NoError(t, st.Dispatch(core.TrackAdded{Track: domain.Track{Handle: local, Local: true, MediaType: domain.MediaTypeAudio}}))
	assert.Equal(t, domain.ParticipantID(""), st.Tracks()[0].ParticipantID)

	require.NoError(t, st.Dispatch(core.ParticipantAdded{Participant: domain.Participant{ID: "me", Local: true}}))

	snap := st.Snapshot()
	require.Len(t, snap.Participants, 1)
	require.Len(t, snap.Tracks, 1)
	assert.Equal(t, domain.ParticipantID("me"), snap.Tracks[0].ParticipantID)

	p, ok := snap.LocalParticipant()
	assert.True(t, ok)
	assert.Equal(t, domain.ParticipantID("me"), p.ID)
	assert.Len(t, snap.TracksOf("me"), 1)
	assert.Len(t, snap.LocalTracks(), 1)
}

func TestStore_RefusesInvalidActions(t *testing.T) {
	st := core.NewConferenceStore()

	err := st.Dispatch(core.ParticipantAdded{})
	assert.ErrorIs(t, err, core.ErrMissingParticipantID)

	err = st.Dispatch(core.TrackChanged{})
	assert.ErrorIs(t, err, core.ErrMissingStreamHandle)

	assert.Empty(t, st.Participants())
	assert.Empty(t, st.Tracks())
}

func TestStore_Subscribe(t *testing.T) {
	st := core.NewConferenceStore()

	var seen []core.ActionType
	unsubscribe := st.Subscribe(func(a core.Action) { seen = append(seen, a.Type()) })

	require.NoError(t, st.Dispatch(core.ParticipantAdded{Participant: domain.Participant{ID: "a"}}))
	require.NoError(t, st.Dispatch(core.ParticipantPinned{ID: "a"}))
	_ = st.Dispatch(core.ParticipantPinned{})
	unsubscribe()
	unsubscribe()
	require.NoError(t, st.Dispatch(core.ParticipantRemoved{ID: "a"}))

	assert.Equal(t, []core.ActionType{core.TypeParticipantAdded, core.TypeParticipantPinned}, seen)
}

func TestStore_SelectAndCopies(t *testing.T) {
	st := core.NewConferenceStore()
	require.NoError(t, st.Dispatch(core.ParticipantAdded{Participant: domain.Participant{ID: "a"}}))

	ps := st.Participants()
	ps[0].Name = "changed"
	assert.Equal(t, "", st.Participants()[0].Name)

	_, ok := core.Select[[]domain.Participant](st, "missing")
	assert.False(t, ok)
	_, ok = core.Select[[]domain.Track](st, core.ParticipantsSlice)
	assert.False(t, ok)
	tracks, ok := core.Select[[]domain.Track](st, core.TracksSlice)
	assert.True(t, ok)
	assert.Empty(t, tracks)
}

func TestNewStore_DuplicateName(t *testing.T) {
	assert.Panics(t, func() {
		core.NewStore(
			core.NewSlice(core.TracksSlice, core.ReduceTracks, nil),
			core.NewSlice(core.TracksSlice, core.ReduceTracks, nil),
		)
	})
}

func TestStore_CustomSlice(t *testing.T) {
	count := func(n int, _ core.Action) int { return n + 1 }
	st := core.NewStore(core.NewSlice("test/count", count, 0))

	require.NoError(t, st.Dispatch(core.ParticipantPinned{ID: "a"}))
	require.NoError(t, st.Dispatch(core.ParticipantPinned{ID: "b"}))

	n, ok := core.Select[int](st, "test/count")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	snap := st.Snapshot()
	assert.NotNil(t, snap.Participants)
	assert.NotNil(t, snap.Tracks)
}

func TestStore_DispatchSnapshot(t *testing.T) {
	st := core.NewConferenceStore()

	snap, err := st.DispatchSnapshot(core.ParticipantAdded{Participant: domain.Participant{ID: "a", Local: true}})
	require.NoError(t, err)
	require.Len(t, snap.Participants, 1)
	assert.Empty(t, snap.Tracks)

	_, err = st.DispatchSnapshot(core.ParticipantRemoved{})
	assert.ErrorIs(t, err, core.ErrMissingParticipantID)
}

// sliceHandle is a StreamHandle whose value type cannot be compared.
type sliceHandle struct{ ids []string }

func (h sliceHandle) ID() string       { return h.ids[0] }
func (h sliceHandle) StreamID() string { return h.ids[0] }

func TestStore_RefusesUncomparableHandle(t *testing.T) {
	st := core.NewConferenceStore()
	require.NoError(t, st.Dispatch(core.TrackAdded{Track: domain.Track{Handle: newStream("t1")}}))

	h := sliceHandle{ids: []string{"t2"}}
	for _, a := range []core.Action{
		core.TrackAdded{Track: domain.Track{Handle: h}},
		core.TrackRemoved{Handle: h},
		core.TrackChanged{Change: domain.TrackChange{Handle: h, Muted: ptr(true)}},
	} {
		assert.NotPanics(t, func() {
			assert.ErrorIs(t, st.Dispatch(a), core.ErrUncomparableHandle)
		})
	}
	assert.Len(t, st.Tracks(), 1)
}
