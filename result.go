package hotswap

// ReloadResult reports what one reload did, per proxy outcome. Returned
// alongside the error so drivers can tell a clean swap from a rollback
// or a partial failure.
type ReloadResult struct {
	noop       bool
	rerendered int
	failed     int
	rolledBack bool
	active     *Implementation
}

// NoOp reports whether the reload was an idempotent churn: the
// implementation was already current and nothing was rerendered.
func (r *ReloadResult) NoOp() bool {
	return r.noop
}

// Rerendered returns how many proxies swapped instances successfully.
func (r *ReloadResult) Rerendered() int {
	return r.rerendered
}

// Failed returns how many proxies could not be rerendered.
func (r *ReloadResult) Failed() int {
	return r.failed
}

// RolledBack reports whether the rollback protocol fired: the unit's
// current implementation after the reload is not the one passed in.
func (r *ReloadResult) RolledBack() bool {
	return r.rolledBack
}

// Active returns the implementation that is current after the reload.
// Equal to the reloaded one on success, the last-known-good one after a
// rollback.
func (r *ReloadResult) Active() *Implementation {
	return r.active
}
