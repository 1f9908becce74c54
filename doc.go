// Package hotswap keeps a long-lived handle to a component instance valid
// while the implementation behind it is replaced at runtime (hot reload).
//
// External code holds a *Proxy instead of a real instance. The proxy never
// binds to a single instance: every property read, property write, and
// method call resolves the currently live instance at access time, so the
// handle transparently survives any number of destroy/recreate cycles.
//
// # Core Concepts
//
// A reloadable unit is identified by a stable id (typically a source module
// path). Each version of the unit's code is an Implementation: a
// constructor plus declared properties, extension methods, and statics.
// A Factory owns one unit id, tracks every live proxy for it, and exposes
// the reload entry point:
//
//	reg := hotswap.NewRegistry()
//	factory := hotswap.NewFactory("Widget", reg, v1, hotswap.WithDocument(doc))
//	proxy, err := factory.NewProxy(hotswap.ConstructOptions{Target: tree})
//
//	// later, when the unit's source changes:
//	result, err := factory.Reload(v2, nil)
//
// Reload installs the new implementation, remembers the old one as
// last-known-good, copies statics, and rerenders every live proxy in
// place: the old internal instance is destroyed (its state captured
// first), a new one is constructed from the updated implementation at the
// same anchor point, and the captured state is restored.
//
// # Anchoring
//
// Where "the same place" is depends on the host. The Adapter interface
// owns that notion, with two variants selected at factory construction:
//
//   - TreeAdapter inserts a stable marker node on first mount and
//     recreates the instance at the marker's position from then on.
//   - StackAdapter handles page-shaped nodes inside a navigation frame:
//     the active page is replaced in place (or, for the stack root, by a
//     clear-history re-navigation), back-history pages are swapped inside
//     their stack entry without navigating, and the proxy intercepts back
//     navigation so it controls instance teardown.
//
// # State Continuity
//
// Capture reads an instance's externally observable properties and its
// listener table; Restore applies them to the replacement. Properties go
// through the instance's public Set path so its own change detection
// runs; during a rerender they are preferentially supplied to the new
// constructor directly (construction-time restoration). Snapshots are
// deep-cloned per apply, so restoring the same snapshot twice yields the
// same observable state.
//
// Known limitation: nested content owned by the host renderer (slot-like
// children) is not part of a snapshot and is lost on restore.
//
// # Failure and Rollback
//
// When a new implementation's constructor fails, the proxy rolls back to
// the last-known-good implementation and retries once. If none exists the
// condition is unrecoverable: the proxy is destroyed (no marker left in
// the host tree) and ErrFullReloadRequired propagates to the reload
// caller; or, with WithPlaceholderOnError, an inert Placeholder instance
// is mounted that satisfies the forwarding contract and exposes the error
// until the next successful reload.
//
// # Concurrency
//
// The core is single-threaded and cooperative: create, destroy, rerender
// and reload are synchronous, non-reentrant, and never leave a partially
// swapped instance observable. The registry is mutex-guarded so test
// drivers may inspect it concurrently, but no cross-operation locking is
// provided or required.
//
// # Design Rationale
//
// The system favors explicit indirection over rebinding:
//   - Late-bound resolution (Relay) instead of updating every reference
//   - Explicit per-name forwarding entries instead of open-ended dispatch
//   - Adapter variants instead of host type-sniffing in core logic
//   - An injected Registry instead of an ambient singleton
package hotswap
