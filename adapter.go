package hotswap

import (
	"fmt"
	"log/slog"
)

// Adapter owns where an instance is anchored in the host structure and
// how to recreate it in place. ProxyInstances delegate all anchoring to
// their adapter; the two concrete variants (TreeAdapter, StackAdapter)
// share this one lifecycle contract and are selected at construction
// time, never by runtime type-sniffing in core logic.
type Adapter interface {
	// Mount records the anchor point and attaches the initial instance.
	// Only the first call has effect; a mounted instance's external
	// attachment point never moves.
	Mount(target Node, anchor Node) error

	// Rerender destroys the current internal instance (capturing its
	// state first), constructs a new one from the unit's current
	// implementation at the same anchor point, and restores the state.
	Rerender() error

	// Dispose removes the anchor point from the host unconditionally and
	// destroys the internal instance if still live.
	Dispose() error

	// Mounted reports whether an anchor point exists.
	Mounted() bool
}

// Remounter is the adapter's view of the proxy owning the instance
// lifecycle. The adapter decides where and when; the proxy decides how an
// instance is captured, constructed, restored, and rolled back.
type Remounter interface {
	// DetachInstance captures the live instance's state, destroys it,
	// and returns the snapshot.
	DetachInstance() (*Snapshot, error)

	// AttachInstance constructs an instance from the unit's current
	// implementation at (target, anchor), restoring snap when non-nil.
	// Rollback on construction failure happens inside.
	AttachInstance(target Node, anchor Node, snap *Snapshot) error

	// DiscardInstance destroys the live instance without capturing.
	DiscardInstance()

	// HasInstance reports whether an internal instance is live.
	HasInstance() bool
}

// TreeAdapter anchors an instance in a plain host tree via a stable
// marker node inserted on first mount.
type TreeAdapter struct {
	owner  Remounter
	doc    Document
	logger *slog.Logger

	target Node
	marker Node
}

// NewTreeAdapter builds a tree adapter for owner. doc allocates the
// marker node.
func NewTreeAdapter(owner Remounter, doc Document, logger *slog.Logger) *TreeAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TreeAdapter{owner: owner, doc: doc, logger: logger}
}

// Mounted reports whether the marker has been inserted.
func (a *TreeAdapter) Mounted() bool {
	return a.marker != nil
}

// Marker returns the anchor marker node, or nil before the first mount.
func (a *TreeAdapter) Marker() Node {
	return a.marker
}

// Mount inserts the marker into target immediately before anchor (or at
// the end when anchor is nil) and attaches the initial instance just
// before the marker. Subsequent calls are no-ops.
func (a *TreeAdapter) Mount(target Node, anchor Node) error {
	if a.marker != nil {
		a.logger.Debug("hotswap: mount ignored, anchor point exists")
		return nil
	}
	if target == nil {
		return fmt.Errorf("%w: mount requires a target node", ErrIllegalState)
	}
	marker := a.doc.CreateAnchor("hotswap-anchor")
	target.InsertBefore(marker, anchor)
	a.target = target
	a.marker = marker
	return a.owner.AttachInstance(target, marker, nil)
}

// Rerender swaps the internal instance in place at the marker.
func (a *TreeAdapter) Rerender() error {
	if a.marker == nil {
		return fmt.Errorf("%w: rerender before mount", ErrIllegalState)
	}
	snap, err := a.owner.DetachInstance()
	if err != nil {
		return err
	}
	return a.owner.AttachInstance(a.target, a.marker, snap)
}

// Dispose removes the marker and destroys the instance if still live.
// Detachment is not optional once the proxy itself is destroyed; calling
// Dispose more than once is safe.
func (a *TreeAdapter) Dispose() error {
	if a.owner.HasInstance() {
		a.owner.DiscardInstance()
	}
	if a.marker != nil {
		a.target.RemoveChild(a.marker)
		a.marker = nil
		a.target = nil
	}
	return nil
}
