package hotswap

import (
	"errors"
	"fmt"
	"log/slog"
)

// Factory produces and tracks the proxies of one unit id and exposes the
// reload entry point the build tooling drives.
//
// The factory owns the unit's mirrored statics and the fan-out set of
// live proxies; the shared implementation record lives in the injected
// Registry so every proxy for the id resolves through the same table.
type Factory struct {
	id     string
	reg    Registry
	logger *slog.Logger

	doc                Document
	stackDoc           StackDocument
	placeholderOnError bool

	instances []*Proxy
	statics   map[string]any
	hostOpts  *HostOptions

	// proven is the most recent implementation that has constructed
	// successfully at least once, the only candidate for a rollback
	// target.
	proven *Implementation
}

// NewFactory creates the factory for unit id and installs impl as its
// current implementation. Panics on nil registry, nil implementation, or
// a missing document: these are wiring mistakes at registration time,
// not runtime conditions.
func NewFactory(id string, reg Registry, impl *Implementation, opts ...FactoryOption) *Factory {
	if reg == nil {
		panic("hotswap: factory requires a registry")
	}
	if impl == nil {
		panic(fmt.Sprintf("hotswap: factory for %q requires an implementation", id))
	}
	o := newFactoryOptions(opts)
	if o.doc == nil && o.stackDoc == nil {
		panic(fmt.Sprintf("hotswap: factory for %q requires WithDocument or WithStackDocument", id))
	}

	f := &Factory{
		id:                 id,
		reg:                reg,
		logger:             o.logger,
		doc:                o.doc,
		stackDoc:           o.stackDoc,
		placeholderOnError: o.placeholder,
	}
	reg.Set(id, UnitRecord{ID: id, Current: impl})
	f.adoptStatics(impl)
	return f
}

// ID returns the unit id.
func (f *Factory) ID() string { return f.id }

// Static reads a mirrored class-level member of the current
// implementation.
func (f *Factory) Static(name string) (any, bool) {
	v, ok := f.statics[name]
	return v, ok
}

// Statics returns a copy of the mirrored statics table.
func (f *Factory) Statics() map[string]any {
	return copyStatics(f.statics)
}

// Proxies returns the live proxies, copied so reload fan-out survives
// proxies destroying themselves mid-iteration.
func (f *Factory) Proxies() []*Proxy {
	return append([]*Proxy(nil), f.instances...)
}

// NewProxy constructs a proxy and performs its initial create through
// the adapter. The returned proxy is never half-initialized: on an
// unrecoverable construction failure it is fully destroyed (anchor
// removed, registrations dropped) before the error returns.
func (f *Factory) NewProxy(opts ConstructOptions) (*Proxy, error) {
	rec, ok := f.reg.Get(f.id)
	if !ok || rec.Current == nil {
		return nil, fmt.Errorf("%w: unit %q not registered", ErrIllegalState, f.id)
	}

	p := &Proxy{
		id:      f.id,
		label:   instanceLabel(f.id, 1),
		factory: f,
		reg:     f.reg,
		logger:  f.logger,
		base: ConstructOptions{
			Props:   opts.Props,
			Intro:   opts.Intro,
			Hydrate: opts.Hydrate,
		},
	}
	p.props = NewPropertyRelay(p.resolveInternal, relayNames(rec.Current, opts.Props)...)
	p.calls = NewCallRelay(p.resolveInternal, forwardedCalls()...)
	p.adapter = f.newAdapter(p)

	f.reg.RegisterInstance(f.id, p)
	f.instances = append(f.instances, p)

	if err := p.adapter.Mount(opts.Target, opts.Anchor); err != nil {
		_ = p.Destroy()
		return nil, err
	}
	return p, nil
}

// Reload installs next as the unit's current implementation and
// rerenders every live proxy in place. Reloading the same implementation
// again is a no-op churn, not an error.
//
// Ordering: the registry record and the mirrored statics are updated
// before any instance is recreated, because construction logic may read
// statics. The most recent implementation that has constructed
// successfully is recorded as last-known-good so per-proxy rollback can
// recover from a failing constructor; an implementation that never built
// an instance is not a rollback target.
//
// hostOptions, when non-nil, is decoded via DecodeHostOptions and
// overrides the construct options of every subsequent attach.
//
// Each proxy rerenders independently; failures do not stop the fan-out.
// Unrecoverable proxies are destroyed so no anchor is left dangling, and
// the joined errors propagate to the caller, which can decide to fall
// back to a full reload of the whole unit.
func (f *Factory) Reload(next *Implementation, hostOptions map[string]any) (*ReloadResult, error) {
	if next == nil {
		return nil, fmt.Errorf("%w: reload with nil implementation", ErrIllegalState)
	}
	rec, ok := f.reg.Get(f.id)
	if !ok {
		return nil, fmt.Errorf("%w: unit %q not registered", ErrIllegalState, f.id)
	}
	if rec.Current == next {
		f.logger.Debug("hotswap: reload no-op, implementation unchanged", "unit", f.id)
		return &ReloadResult{noop: true, active: next}, nil
	}

	if hostOptions != nil {
		ho, err := DecodeHostOptions(hostOptions)
		if err != nil {
			return nil, err
		}
		f.hostOpts = &ho
	}

	rec.LastGood = f.proven
	rec.Current = next
	f.reg.Set(f.id, rec)
	f.adoptStatics(next)
	f.logger.Info("hotswap: reloading unit",
		"unit", f.id, "impl", next.Name, "proxies", len(f.instances))

	res := &ReloadResult{}
	var errs []error
	for _, p := range f.Proxies() {
		if err := p.Rerender(); err != nil {
			if IsFullReloadRequired(err) {
				_ = p.Destroy()
			}
			res.failed++
			errs = append(errs, fmt.Errorf("proxy %s: %w", p.Label(), err))
			continue
		}
		res.rerendered++
	}

	after, _ := f.reg.Get(f.id)
	res.rolledBack = after.Current != next
	res.active = after.Current
	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	return res, nil
}

// markProven records impl as having constructed successfully, making it
// eligible as a rollback target for later reloads.
func (f *Factory) markProven(impl *Implementation) {
	f.proven = impl
}

// adoptStatics mirrors impl's class-level members onto the factory.
func (f *Factory) adoptStatics(impl *Implementation) {
	f.statics = copyStatics(impl.Statics)
}

// newAdapter selects the anchoring variant configured for this factory.
func (f *Factory) newAdapter(p *Proxy) Adapter {
	if f.stackDoc != nil {
		return NewStackAdapter(p, f.stackDoc, f.logger)
	}
	return NewTreeAdapter(p, f.doc, f.logger)
}

// untrack drops a destroyed proxy from the fan-out set.
func (f *Factory) untrack(p *Proxy) {
	for i, q := range f.instances {
		if q == p {
			f.instances = append(f.instances[:i], f.instances[i+1:]...)
			return
		}
	}
}

// relayNames is the property relay's fixed name set: the
// implementation's declared props plus the initial mount props.
func relayNames(impl *Implementation, initial map[string]any) []string {
	names := append([]string(nil), impl.Props...)
	for name := range initial {
		names = append(names, name)
	}
	return names
}
