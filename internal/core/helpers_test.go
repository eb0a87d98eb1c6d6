package core_test

import (
	"sync"

	"github.com/dkeye/Conference/internal/core"
)

type stream struct {
	id       string
	streamID string
}

func newStream(id string) *stream { return &stream{id: id, streamID: "s-" + id} }

func (s *stream) ID() string       { return s.id }
func (s *stream) StreamID() string { return s.streamID }

type fakeSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	err    error
}

func (f *fakeSignal) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSignal) Close() {}

func (f *fakeSignal) Frames() []core.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Frame(nil), f.frames...)
}

func ptr[T any](v T) *T { return &v }
