package core_test

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reduceAll(actions ...core.Action) []domain.Participant {
	state := []domain.Participant{}
	for _, a := range actions {
		state = core.ReduceParticipants(state, a)
	}
	return state
}

func TestReduceParticipants_AddDefaults(t *testing.T) {
	state := reduceAll(core.ParticipantAdded{Participant: domain.Participant{
		ID:           "a",
		Name:         "alice",
		VideoStarted: true,
	}})

	require.Len(t, state, 1)
	assert.Equal(t, domain.Participant{ID: "a", Name: "alice"}, state[0])
	assert.Equal(t, domain.VideoTypeUnset, state[0].VideoType)
}

func TestReduceParticipants_PinMoves(t *testing.T) {
	state := reduceAll(
		core.ParticipantAdded{Participant: domain.Participant{ID: "a", Local: true}},
		core.ParticipantAdded{Participant: domain.Participant{ID: "b"}},
		core.ParticipantPinned{ID: "b"},
	)

	assert.Equal(t, []domain.Participant{
		{ID: "a", Local: true},
		{ID: "b", Pinned: true},
	}, state)
}

func TestReduceParticipants_ExclusiveFlags(t *testing.T) {
	type testCase struct {
		descr  string
		action func(domain.ParticipantID) core.Action
		flag   func(domain.Participant) bool
	}

	testCases := []testCase{
		{"dominant speaker", func(id domain.ParticipantID) core.Action { return core.DominantSpeakerChanged{ID: id} }, func(p domain.Participant) bool { return p.Speaking }},
		{"focused", func(id domain.ParticipantID) core.Action { return core.ParticipantFocused{ID: id} }, func(p domain.Participant) bool { return p.Focused }},
		{"pinned", func(id domain.ParticipantID) core.Action { return core.ParticipantPinned{ID: id} }, func(p domain.Participant) bool { return p.Pinned }},
		{"selected", func(id domain.ParticipantID) core.Action { return core.ParticipantSelected{ID: id} }, func(p domain.Participant) bool { return p.Selected }},
	}

	for _, tc := range testCases {
		t.Run(tc.descr, func(t *testing.T) {
			state := reduceAll(
				core.ParticipantAdded{Participant: domain.Participant{ID: "a"}},
				core.ParticipantAdded{Participant: domain.Participant{ID: "b"}},
				core.ParticipantAdded{Participant: domain.Participant{ID: "c"}},
			)

			for _, target := range []domain.ParticipantID{"a", "c", "b", "missing"} {
				state = core.ReduceParticipants(state, tc.action(target))
				count := 0
				for _, p := range state {
					if tc.flag(p) {
						count++
					}
					assert.Equal(t, p.ID == target, tc.flag(p), "participant %s after %s", p.ID, target)
				}
				assert.LessOrEqual(t, count, 1)
			}
		})
	}
}

func TestReduceParticipants_AddKeepsExclusiveInvariant(t *testing.T) {
	state := reduceAll(
		core.ParticipantAdded{Participant: domain.Participant{ID: "a"}},
		core.ParticipantPinned{ID: "a"},
		core.ParticipantAdded{Participant: domain.Participant{ID: "b", Pinned: true}},
	)

	assert.False(t, state[0].Pinned)
	assert.True(t, state[1].Pinned)
}

func TestReduceParticipants_UpdateProtectsFlags(t *testing.T) {
	state := reduceAll(
		core.ParticipantAdded{Participant: domain.Participant{ID: "a", Local: true}},
		core.ParticipantAdded{Participant: domain.Participant{ID: "b"}},
		core.ParticipantPinned{ID: "a"},
		core.ParticipantFocused{ID: "a"},
		core.DominantSpeakerChanged{ID: "a"},
	)

	var u domain.ParticipantUpdate
	payload := `{"id":"a","name":"renamed","local":false,"pinned":false,"speaking":false,"focused":false,"videoStarted":true,"videoType":"desktop"}`
	require.NoError(t, json.Unmarshal([]byte(payload), &u))

	next := core.ReduceParticipants(state, core.ParticipantUpdated{Update: u})

	assert.Equal(t, domain.Participant{
		ID:           "a",
		Name:         "renamed",
		Local:        true,
		Pinned:       true,
		Focused:      true,
		Speaking:     true,
		VideoStarted: true,
		VideoType:    domain.VideoTypeDesktop,
	}, next[0])
	assert.Equal(t, state[1], next[1])
	assert.Equal(t, "", state[0].Name, "input must not be modified")
}

func TestReduceParticipants_UpdateSelected(t *testing.T) {
	state := reduceAll(
		core.ParticipantAdded{Participant: domain.Participant{ID: "a"}},
		core.ParticipantUpdated{Update: domain.ParticipantUpdate{ID: "a", Selected: ptr(true)}},
	)

	assert.True(t, state[0].Selected)
}

func TestReduceParticipants_RemoveRoundTrip(t *testing.T) {
	start := reduceAll(
		core.ParticipantAdded{Participant: domain.Participant{ID: "a"}},
		core.ParticipantAdded{Participant: domain.Participant{ID: "b"}},
	)

	state := core.ReduceParticipants(start, core.ParticipantAdded{Participant: domain.Participant{ID: "c"}})
	state = core.ReduceParticipants(state, core.ParticipantRemoved{ID: "c"})
	assert.Equal(t, start, state)

	state = core.ReduceParticipants(start, core.ParticipantRemoved{ID: "a"})
	assert.Equal(t, []domain.Participant{{ID: "b"}}, state)
	assert.Len(t, start, 2)
}

func TestReduceParticipants_UnknownIDs(t *testing.T) {
	start := reduceAll(core.ParticipantAdded{Participant: domain.Participant{ID: "a", Name: "alice"}})

	for _, a := range []core.Action{
		core.ParticipantRemoved{ID: "x"},
		core.ParticipantUpdated{Update: domain.ParticipantUpdate{ID: "x", Name: ptr("bob")}},
		core.ParticipantRoleChanged{ID: "x", Role: domain.RoleModerator},
		core.TrackRemoved{Handle: newStream("t")},
	} {
		assert.Equal(t, start, core.ReduceParticipants(start, a), "action %s", a.Type())
	}
}

func TestReduceParticipants_RoleChanged(t *testing.T) {
	state := reduceAll(
		core.ParticipantAdded{Participant: domain.Participant{ID: "a", Role: domain.RoleParticipant}},
		core.ParticipantAdded{Participant: domain.Participant{ID: "b", Role: domain.RoleParticipant}},
		core.ParticipantRoleChanged{ID: "b", Role: domain.RoleModerator},
	)

	assert.Equal(t, domain.RoleParticipant, state[0].Role)
	assert.Equal(t, domain.RoleModerator, state[1].Role)
}
