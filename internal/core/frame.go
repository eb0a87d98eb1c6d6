package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDeliveryDropped means the view was updated but the client was not told.
var ErrDeliveryDropped = errors.New("state frame dropped")

// StateFrame is pushed to a client after each action applied to its view.
type StateFrame struct {
	Type   string     `json:"type"`
	Action ActionType `json:"action"`
	Snapshot
}

func EncodeState(a Action, snap Snapshot) (Frame, error) {
	b, err := json.Marshal(StateFrame{Type: "state", Action: a.Type(), Snapshot: snap})
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return b, nil
}

// Deliver dispatches a into the session's view and pushes the new state to
// its signal connection, when there is one.
func Deliver(ms MemberSession, a Action) error {
	sc := ms.Signal()
	if sc == nil {
		return ms.State().Dispatch(a)
	}
	snap, err := ms.State().DispatchSnapshot(a)
	if err != nil {
		return err
	}
	f, err := EncodeState(a, snap)
	if err != nil {
		return err
	}
	if err := sc.TrySend(f); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryDropped, err)
	}
	return nil
}
