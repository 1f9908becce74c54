package hotswap

import "sort"

// Resolver returns the currently live instance, or nil when none exists.
//
// Relays hold a Resolver instead of an instance reference. Resolution
// happens at access/call time, not at construction time, which is what
// lets a proxy outlive any single internal instance: after a swap, the
// same relay transparently reaches the replacement.
type Resolver func() Instance

// PropertyRelay redirects reads and writes of a fixed set of property
// names to whichever instance is currently alive.
//
// Reads return the zero value (and false) when no target exists; writes
// are silent no-ops. Degrading gracefully on a missing target is the
// relay's job, so neither case is an error.
type PropertyRelay struct {
	resolve Resolver
	names   map[string]struct{}
}

// NewPropertyRelay builds a relay exposing exactly names.
func NewPropertyRelay(resolve Resolver, names ...string) *PropertyRelay {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return &PropertyRelay{resolve: resolve, names: set}
}

// Names returns the exposed property names, sorted.
func (r *PropertyRelay) Names() []string {
	out := make([]string, 0, len(r.names))
	for n := range r.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Has reports whether name is part of the relay's exposed set.
func (r *PropertyRelay) Has(name string) bool {
	_, ok := r.names[name]
	return ok
}

// Get reads name from the live instance. Returns (nil, false) when the
// name is not exposed, no target exists, or the target has no such
// property.
func (r *PropertyRelay) Get(name string) (any, bool) {
	if _, ok := r.names[name]; !ok {
		return nil, false
	}
	target := r.resolve()
	if target == nil {
		return nil, false
	}
	return target.Get(name)
}

// Set writes name on the live instance's internal property table.
// No-op when the name is not exposed or no target exists.
func (r *PropertyRelay) Set(name string, value any) {
	if _, ok := r.names[name]; !ok {
		return
	}
	target := r.resolve()
	if target == nil {
		return
	}
	state := target.State()
	if state.Props == nil {
		state.Props = make(map[string]any)
	}
	state.Props[name] = value
}

// Hook runs around a forwarded call with the call's name and arguments.
type Hook func(name string, args []any)

// CallSpec is one explicit forwarding entry of a call relay: the exposed
// method name, the invocation against a resolved target, and optional
// hooks running before and after the forwarded call.
//
// Explicit entries are a controlled, inspectable substitute for
// duck-typed pass-through: the set of forwarded names is enumerable and
// fixed per construction.
type CallSpec struct {
	Name   string
	Invoke func(target Instance, args []any) any
	Before Hook
	After  Hook
}

// CallRelay redirects invocations of a fixed set of method names to
// whichever instance is currently alive.
type CallRelay struct {
	resolve Resolver
	calls   map[string]CallSpec
}

// NewCallRelay builds a relay exposing exactly the methods named in specs.
func NewCallRelay(resolve Resolver, specs ...CallSpec) *CallRelay {
	calls := make(map[string]CallSpec, len(specs))
	for _, s := range specs {
		calls[s.Name] = s
	}
	return &CallRelay{resolve: resolve, calls: calls}
}

// Add registers or replaces a forwarding entry. Used by proxies to mirror
// implementation extension methods per construction.
func (r *CallRelay) Add(spec CallSpec) {
	r.calls[spec.Name] = spec
}

// Remove drops a forwarding entry.
func (r *CallRelay) Remove(name string) {
	delete(r.calls, name)
}

// Has reports whether name is an exposed method.
func (r *CallRelay) Has(name string) bool {
	_, ok := r.calls[name]
	return ok
}

// Names returns the exposed method names, sorted.
func (r *CallRelay) Names() []string {
	out := make([]string, 0, len(r.calls))
	for n := range r.calls {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Call re-resolves the target and forwards the invocation. When the name
// is not exposed or no target exists the call is a silent no-op returning
// nil. Otherwise Before runs with the same arguments, the target's method
// is invoked, After runs, and the method's result is returned.
func (r *CallRelay) Call(name string, args ...any) any {
	spec, ok := r.calls[name]
	if !ok {
		return nil
	}
	target := r.resolve()
	if target == nil {
		return nil
	}
	if spec.Before != nil {
		spec.Before(name, args)
	}
	result := spec.Invoke(target, args)
	if spec.After != nil {
		spec.After(name, args)
	}
	return result
}
