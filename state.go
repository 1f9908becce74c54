package hotswap

import (
	"fmt"

	"github.com/pthm/hotswap/lib/snapshot"
)

// Snapshot is the transplantable state of a live instance: its externally
// observable property values and its registered listener table.
//
// Snapshots are captured exactly once per rerender cycle, immediately
// before the old instance is destroyed, and applied exactly once to its
// replacement. Applying clones the property map first, so restoring twice
// with the same snapshot yields the same observable state.
type Snapshot struct {
	Props     map[string]any
	Listeners map[string][]Listener
}

// Capture extracts a snapshot from a live instance. Fails with
// ErrInvalidTarget when inst is nil: capturing from nothing would
// silently produce garbage, so this fails loudly instead.
func Capture(inst Instance) (*Snapshot, error) {
	if inst == nil {
		return nil, fmt.Errorf("%w: capture requires a live instance", ErrInvalidTarget)
	}
	state := inst.State()
	props, err := snapshot.CloneProps(state.Props)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Props:     props,
		Listeners: cloneListeners(state.Listeners),
	}, nil
}

// Restore applies a snapshot to a freshly constructed instance. The
// listener table replaces the instance's fresh one directly; properties
// are re-applied through the instance's public Set path so its own change
// detection runs.
//
// A nil snapshot after a capture is a capture/restore pairing violation
// and fails with ErrIllegalState. A nil instance fails with
// ErrInvalidTarget.
func Restore(inst Instance, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: restore without a captured snapshot", ErrIllegalState)
	}
	if inst == nil {
		return fmt.Errorf("%w: restore requires a live instance", ErrInvalidTarget)
	}
	if snap.Listeners != nil {
		inst.State().Listeners = cloneListeners(snap.Listeners)
	}
	if snap.Props != nil {
		props, err := snapshot.CloneProps(snap.Props)
		if err != nil {
			return err
		}
		inst.Set(props)
	}
	return nil
}

// Encode serializes the snapshot's property map. Listeners are function
// values and never serialize; decoding yields a snapshot with properties
// only.
func (s *Snapshot) Encode() ([]byte, error) {
	return snapshot.EncodeProps(s.Props)
}

// DecodeSnapshot rebuilds a properties-only snapshot from Encode output.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	props, err := snapshot.DecodeProps(data)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Props: props}, nil
}
