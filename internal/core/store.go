package core

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

// Reducer maps (prior state, action) to the next state without side effects.
type Reducer[S any] func(state S, action Action) S

// Slice is a named piece of the root state with its own reducer.
type Slice interface {
	Name() string
	reduce(Action)
	value() any
}

type slice[S any] struct {
	name    string
	reducer Reducer[S]
	state   S
}

func NewSlice[S any](name string, reducer Reducer[S], initial S) Slice {
	return &slice[S]{name: name, reducer: reducer, state: initial}
}

func (s *slice[S]) Name() string    { return s.name }
func (s *slice[S]) reduce(a Action) { s.state = s.reducer(s.state, a) }
func (s *slice[S]) value() any      { return s.state }

// Store is the root state container of one view. Slices are composed once
// at construction; dispatches are applied one at a time in call order.
type Store struct {
	mu     sync.RWMutex
	slices []Slice
	byName map[string]Slice

	lmu       sync.Mutex
	listeners map[int]func(Action)
	nextID    int
}

// NewStore composes the given slices. Names must be unique.
func NewStore(parts ...Slice) *Store {
	s := &Store{
		byName:    make(map[string]Slice, len(parts)),
		listeners: make(map[int]func(Action)),
	}
	for _, sl := range parts {
		if _, dup := s.byName[sl.Name()]; dup {
			panic(fmt.Sprintf("core: slice %q registered twice", sl.Name()))
		}
		s.byName[sl.Name()] = sl
		s.slices = append(s.slices, sl)
	}
	return s
}

// NewConferenceStore returns a store holding the participant and track
// collections, both empty.
func NewConferenceStore() *Store {
	return NewStore(
		NewSlice(ParticipantsSlice, ReduceParticipants, []domain.Participant{}),
		NewSlice(TracksSlice, ReduceTracks, []domain.Track{}),
	)
}

// Dispatch runs a through every slice and then notifies subscribers.
func (s *Store) Dispatch(a Action) error {
	_, err := s.apply(a, false)
	return err
}

// DispatchSnapshot is Dispatch that also returns the state right after a,
// read before any later action can land.
func (s *Store) DispatchSnapshot(a Action) (Snapshot, error) {
	return s.apply(a, true)
}

func (s *Store) apply(a Action, withSnapshot bool) (Snapshot, error) {
	if err := ValidateAction(a); err != nil {
		log.Warn().Err(err).Str("module", "core.store").Str("action", string(a.Type())).Msg("action refused")
		return Snapshot{}, fmt.Errorf("dispatch %s: %w", a.Type(), err)
	}

	var snap Snapshot
	s.mu.Lock()
	for _, sl := range s.slices {
		sl.reduce(a)
	}
	if withSnapshot {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	log.Debug().Str("module", "core.store").Str("action", string(a.Type())).Msg("dispatched")

	s.lmu.Lock()
	fns := make([]func(Action), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()
	for _, fn := range fns {
		fn(a)
	}
	return snap, nil
}

// Subscribe registers fn to be called after every successful dispatch.
func (s *Store) Subscribe(fn func(Action)) (unsubscribe func()) {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			delete(s.listeners, id)
			s.lmu.Unlock()
		})
	}
}

// Select returns the current value of the named slice. The value is a
// snapshot shared with the store and must not be modified.
func Select[S any](s *Store, name string) (S, bool) {
	var zero S
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.byName[name]
	if !ok {
		return zero, false
	}
	v, ok := sl.value().(S)
	if !ok {
		return zero, false
	}
	return v, true
}

func (s *Store) Participants() []domain.Participant {
	ps, _ := Select[[]domain.Participant](s, ParticipantsSlice)
	return slices.Clone(ps)
}

func (s *Store) Tracks() []domain.Track {
	ts, _ := Select[[]domain.Track](s, TracksSlice)
	return slices.Clone(ts)
}

// Snapshot is a consistent read of both conference collections.
type Snapshot struct {
	Participants []domain.Participant `json:"participants"`
	Tracks       []domain.Track       `json:"tracks"`
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{}
	if sl, ok := s.byName[ParticipantsSlice]; ok {
		ps, _ := sl.value().([]domain.Participant)
		snap.Participants = slices.Clone(ps)
	}
	if sl, ok := s.byName[TracksSlice]; ok {
		ts, _ := sl.value().([]domain.Track)
		snap.Tracks = slices.Clone(ts)
	}
	if snap.Participants == nil {
		snap.Participants = []domain.Participant{}
	}
	if snap.Tracks == nil {
		snap.Tracks = []domain.Track{}
	}
	return snap
}

// LocalParticipant returns the record of the view owner, if it joined.
func (snap Snapshot) LocalParticipant() (domain.Participant, bool) {
	for _, p := range snap.Participants {
		if p.Local {
			return p, true
		}
	}
	return domain.Participant{}, false
}

// TracksOf returns the tracks bound to id, in insertion order.
func (snap Snapshot) TracksOf(id domain.ParticipantID) []domain.Track {
	var out []domain.Track
	for _, t := range snap.Tracks {
		if t.ParticipantID == id {
			out = append(out, t)
		}
	}
	return out
}

// LocalTracks returns the tracks the view owner publishes.
func (snap Snapshot) LocalTracks() []domain.Track {
	var out []domain.Track
	for _, t := range snap.Tracks {
		if t.Local {
			out = append(out, t)
		}
	}
	return out
}
