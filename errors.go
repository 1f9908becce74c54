package hotswap

import (
	"errors"
	"fmt"
)

// Sentinel errors for proxy operations.
var (
	// ErrInvalidTarget means an operation required a live internal
	// instance and none existed. Capture fails with this; forwarded
	// relay calls tolerate the same condition as a silent no-op.
	ErrInvalidTarget = errors.New("hotswap: no live instance")

	// ErrIllegalState means a lifecycle ordering violation: restore
	// without a prior capture, or rerender before an anchor point
	// exists. Always a logic bug in the surrounding driver.
	ErrIllegalState = errors.New("hotswap: illegal lifecycle state")

	// ErrFullReloadRequired means construction of the current
	// implementation failed and no last-known-good implementation was
	// available to roll back to. The unit id is unusable until the host
	// performs a fresh full load.
	ErrFullReloadRequired = errors.New("hotswap: full reload required")
)

// ConstructionError wraps a failure of an implementation's constructor.
// Recoverable via rollback when a last-known-good implementation exists
// for the unit id; otherwise it escalates to ErrFullReloadRequired.
type ConstructionError struct {
	ID   string // unit id
	Impl string // implementation name
	Err  error  // constructor failure (or recovered panic)
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("hotswap: constructing %q for unit %q: %v", e.Impl, e.ID, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// IsInvalidTarget checks if err reports an absent internal instance.
func IsInvalidTarget(err error) bool {
	return errors.Is(err, ErrInvalidTarget)
}

// IsIllegalState checks if err reports a lifecycle ordering violation.
func IsIllegalState(err error) bool {
	return errors.Is(err, ErrIllegalState)
}

// IsFullReloadRequired checks if err reports an unrecoverable
// construction failure for a unit id.
func IsFullReloadRequired(err error) bool {
	return errors.Is(err, ErrFullReloadRequired)
}

// IsConstruction checks if err originated from an implementation
// constructor.
func IsConstruction(err error) bool {
	var ce *ConstructionError
	return errors.As(err, &ce)
}
