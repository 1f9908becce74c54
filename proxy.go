package hotswap

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/pthm/hotswap/lib/snapshot"
)

// Proxy is the stable external handle standing in for a unit's current
// instance. External code holds the *Proxy for the lifetime of the
// mounted component; the internal instance behind it is destroyed and
// recreated on every reload, but the proxy's identity, anchor position,
// and forwarded surface never change.
//
// Proxies are produced by Factory.NewProxy, never constructed directly.
type Proxy struct {
	id      string
	label   string
	factory *Factory
	reg     Registry
	adapter Adapter
	logger  *slog.Logger

	// internal is exclusively owned: non-nil exactly between a
	// successful create and the next destroy.
	internal Instance

	// captured is non-nil only transiently, between a
	// destroy-for-rerender and the matching create.
	captured *Snapshot

	props    *PropertyRelay
	calls    *CallRelay
	mirrored []string

	base      ConstructOptions // initial mount options, minus target/anchor
	destroyed bool
}

// ID returns the unit id this proxy belongs to.
func (p *Proxy) ID() string { return p.id }

// Label returns the proxy's debug label, unique per construction site.
func (p *Proxy) Label() string { return p.label }

// Alive reports whether an internal instance is currently live.
func (p *Proxy) Alive() bool { return p.internal != nil }

// Adapter returns the anchoring adapter owning this proxy's position.
func (p *Proxy) Adapter() Adapter { return p.adapter }

// resolveInternal is the late-binding closure both relays hold. It
// returns whichever instance is currently alive, so forwarded access
// transparently follows instance swaps.
func (p *Proxy) resolveInternal() Instance {
	return p.internal
}

// Get reads a forwarded property from the live instance. Returns
// (nil, false) when the property is not exposed or no instance is live.
func (p *Proxy) Get(name string) (any, bool) {
	return p.props.Get(name)
}

// SetProp writes a single forwarded property on the live instance's
// internal table. Silent no-op without a live instance.
func (p *Proxy) SetProp(name string, value any) {
	p.props.Set(name, value)
}

// Set applies property values through the live instance's public
// property-set path. Silent no-op without a live instance.
func (p *Proxy) Set(props map[string]any) {
	p.calls.Call("set", props)
}

// On registers an event listener on the live instance. The registration
// survives reloads because the listener table is part of the captured
// state. Without a live instance the registration is dropped and the
// returned deregistration func is a no-op.
func (p *Proxy) On(event string, fn Listener) (off func()) {
	result := p.calls.Call("on", event, fn)
	if f, ok := result.(func()); ok {
		return f
	}
	return func() {}
}

// Call invokes a forwarded method by name: either part of the fixed
// consumer-facing surface or an extension method mirrored from the
// current implementation. Unknown names and absent targets are silent
// no-ops returning nil.
func (p *Proxy) Call(name string, args ...any) any {
	return p.calls.Call(name, args...)
}

// Static reads a class-level member mirrored from the current
// implementation at the last reload.
func (p *Proxy) Static(name string) (any, bool) {
	return p.factory.Static(name)
}

// Rerender swaps the internal instance in place: destroy, capture,
// recreate from the unit's current implementation, restore. A rerender
// arriving after an explicit destroy or a fatal prior failure is a no-op
// with a diagnostic, not an error.
func (p *Proxy) Rerender() error {
	if p.destroyed || p.internal == nil {
		p.logger.Debug("hotswap: rerender ignored, no live instance",
			"unit", p.id, "proxy", p.label)
		return nil
	}
	return p.adapter.Rerender()
}

// Destroy tears the proxy down: internal instance destroyed, anchor
// point removed, registrations dropped. Idempotent.
func (p *Proxy) Destroy() error {
	if p.destroyed {
		return nil
	}
	p.destroyed = true
	err := p.adapter.Dispose()
	p.reg.DeregisterInstance(p.id, p)
	p.factory.untrack(p)
	return err
}

// DetachInstance implements Remounter: capture then destroy, never the
// reverse, so the old instance's state is transplantable before anything
// is torn down.
func (p *Proxy) DetachInstance() (*Snapshot, error) {
	if p.internal == nil {
		return nil, fmt.Errorf("%w: detach without a live instance", ErrInvalidTarget)
	}
	snap, err := Capture(p.internal)
	if err != nil {
		return nil, err
	}
	// A placeholder's props are its error display, not unit state; only
	// the listener table carries over to the replacement.
	if IsPlaceholder(p.internal) {
		snap.Props = nil
	}
	p.internal.Destroy()
	p.internal = nil
	p.captured = snap
	return snap, nil
}

// DiscardInstance implements Remounter: destroy without capture, for
// disposal paths where no replacement will ever be constructed.
func (p *Proxy) DiscardInstance() {
	if p.internal == nil {
		return
	}
	p.internal.Destroy()
	p.internal = nil
}

// HasInstance implements Remounter.
func (p *Proxy) HasInstance() bool {
	return p.internal != nil
}

// AttachInstance implements Remounter: construct from the unit's current
// implementation at (target, anchor), restoring snap when non-nil.
//
// On construction failure the rollback protocol runs: when the registry
// holds a last-known-good implementation it is installed as current, the
// pending-rollback marker consumed, and construction retried once with
// it. Without one the failure is unrecoverable for this unit id:
// ErrFullReloadRequired propagates, or, in placeholder mode, an inert
// error-displaying instance is mounted instead.
func (p *Proxy) AttachInstance(target Node, anchor Node, snap *Snapshot) error {
	rec, ok := p.reg.Get(p.id)
	if !ok || rec.Current == nil {
		return fmt.Errorf("%w: unit %q has no implementation", ErrIllegalState, p.id)
	}

	opts, err := p.constructOptions(target, anchor, snap)
	if err != nil {
		return err
	}

	impl := rec.Current
	inst, err := construct(impl, opts, p.id)
	if err != nil {
		p.logger.Warn("hotswap: construction failed",
			"unit", p.id, "impl", impl.Name, "error", err)
		if rec.LastGood != nil {
			impl = rec.LastGood
			rec.Current = impl
			rec.LastGood = nil
			p.reg.Set(p.id, rec)
			p.factory.adoptStatics(impl)
			p.logger.Info("hotswap: rolled back to last good implementation",
				"unit", p.id, "impl", impl.Name)
			inst, err = construct(impl, opts, p.id)
		}
	}
	if err != nil {
		if !p.factory.placeholderOnError {
			return fmt.Errorf("%w: %w", ErrFullReloadRequired, err)
		}
		p.logger.Warn("hotswap: mounting placeholder", "unit", p.id, "error", err)
		inst = NewPlaceholder(p.id, err)
		impl = nil
	}

	// Listeners transplant onto placeholders too, so registrations made
	// before a failure survive the interlude and reach the instance the
	// next successful reload constructs.
	if snap != nil && snap.Listeners != nil {
		inst.State().Listeners = cloneListeners(snap.Listeners)
	}

	p.internal = inst
	p.captured = nil
	p.mirror(impl)
	if impl != nil {
		p.factory.markProven(impl)
	}
	return nil
}

// constructOptions assembles the constructor contract for one attach.
// Captured properties are supplied to the constructor directly
// (construction-time restoration) after a deep clone, overlaid on the
// initial mount props and any factory-level host option overrides.
func (p *Proxy) constructOptions(target Node, anchor Node, snap *Snapshot) (ConstructOptions, error) {
	opts := ConstructOptions{
		Target:  target,
		Anchor:  anchor,
		Intro:   p.base.Intro,
		Hydrate: p.base.Hydrate,
	}
	props := p.base.Props
	if ho := p.factory.hostOpts; ho != nil {
		props = mergeProps(props, ho.Props)
		opts.Intro = ho.Intro
		opts.Hydrate = ho.Hydrate
	}
	if snap != nil && snap.Props != nil {
		restored, err := snapshot.CloneProps(snap.Props)
		if err != nil {
			return ConstructOptions{}, err
		}
		props = mergeProps(props, restored)
	}
	opts.Props = props
	return opts, nil
}

// mirror rebuilds the proxy's forwarded surface for impl: previously
// mirrored extension methods are dropped, impl's own methods are
// enumerated once and installed as explicit forwarding entries. The
// fixed consumer-facing surface always wins name collisions.
func (p *Proxy) mirror(impl *Implementation) {
	for _, name := range p.mirrored {
		p.calls.Remove(name)
	}
	p.mirrored = p.mirrored[:0]
	if impl == nil {
		return
	}
	for name, m := range impl.Methods {
		if p.calls.Has(name) {
			continue
		}
		m := m
		p.calls.Add(CallSpec{
			Name: name,
			Invoke: func(target Instance, args []any) any {
				return m(target, args)
			},
		})
		p.mirrored = append(p.mirrored, name)
	}
}

// construct runs an implementation's constructor, converting failures
// (including panics, since the constructor executes freshly reloaded
// code) into ConstructionError.
func construct(impl *Implementation, opts ConstructOptions, id string) (inst Instance, err error) {
	defer func() {
		if r := recover(); r != nil {
			inst = nil
			err = &ConstructionError{ID: id, Impl: impl.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	inst, err = impl.New(opts)
	if err != nil {
		return nil, &ConstructionError{ID: id, Impl: impl.Name, Err: err}
	}
	if inst == nil {
		return nil, &ConstructionError{ID: id, Impl: impl.Name, Err: errors.New("constructor returned nil instance")}
	}
	return inst, nil
}

// forwardedCalls is the fixed allow-list of consumer-facing methods that
// pass straight through the call relay.
func forwardedCalls() []CallSpec {
	return []CallSpec{
		{
			Name: "set",
			Invoke: func(target Instance, args []any) any {
				if len(args) > 0 {
					if props, ok := args[0].(map[string]any); ok {
						target.Set(props)
					}
				}
				return nil
			},
		},
		{
			Name: "on",
			Invoke: func(target Instance, args []any) any {
				if len(args) < 2 {
					return nil
				}
				event, ok := args[0].(string)
				if !ok {
					return nil
				}
				fn, ok := args[1].(Listener)
				if !ok {
					return nil
				}
				return target.On(event, fn)
			},
		},
	}
}

// instanceLabel generates a deterministic debug label from the unit id
// and the construction call site.
func instanceLabel(id string, skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	input := id
	if ok {
		input = fmt.Sprintf("%s:%d:%s", filepath.Base(file), line, id)
	}
	h := sha256.Sum256([]byte(input))
	return id + "-" + hex.EncodeToString(h[:4])
}
