package hotswap

import (
	"errors"
	"testing"
)

// Scenario: one marker in the tree, same marker after reload, instance
// replaced.
func TestReloadKeepsMarkerReplacesInstance(t *testing.T) {
	f, _ := newTreeFactory(t, StubImplementation("v1", map[string]any{"count": 0}))
	target := NewFakeNode("T")
	p, err := f.NewProxy(ConstructOptions{Target: target})
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}

	tree, ok := p.Adapter().(*TreeAdapter)
	if !ok {
		t.Fatalf("adapter is %T, want *TreeAdapter", p.Adapter())
	}
	marker := tree.Marker()
	first := liveStub(t, p)

	res, err := f.Reload(StubImplementation("v2", map[string]any{"count": 0}), nil)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if res.Rerendered() != 1 {
		t.Errorf("rerendered = %d, want 1", res.Rerendered())
	}
	if tree.Marker() != marker {
		t.Error("reload re-inserted the marker")
	}
	if !target.Contains(marker) {
		t.Error("marker missing after reload")
	}
	if liveStub(t, p) == first {
		t.Error("reload did not replace the instance")
	}
	if liveStub(t, p).Impl != "v2" {
		t.Errorf("live instance built from %q, want v2", liveStub(t, p).Impl)
	}
}

// Scenario: state set through the public setter survives a reload.
func TestReloadPreservesCapturedState(t *testing.T) {
	f, _ := newTreeFactory(t, StubImplementation("v1", map[string]any{"count": 0}))
	p, err := f.NewProxy(ConstructOptions{Target: NewFakeNode("T")})
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}
	p.Set(map[string]any{"count": 3})

	if _, err := f.Reload(StubImplementation("v3", map[string]any{"count": 0}), nil); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if v, _ := p.Get("count"); propInt(t, v) != 3 {
		t.Errorf("count after reload = %v, want 3", v)
	}
}

func TestReloadRollsBackToLastGood(t *testing.T) {
	v1 := StubImplementation("v1", map[string]any{"count": 0})
	v1.Methods = map[string]Method{
		"version": func(Instance, []any) any { return "v1" },
	}
	f, reg := newTreeFactory(t, v1)
	p, err := f.NewProxy(ConstructOptions{Target: NewFakeNode("T")})
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}

	v2 := FailingImplementation("v2", errors.New("broken build"))
	res, err := f.Reload(v2, nil)
	if err != nil {
		t.Fatalf("Reload with rollback available: %v", err)
	}
	if !res.RolledBack() {
		t.Error("result does not report rollback")
	}
	if res.Active() != v1 {
		t.Error("active implementation is not v1")
	}

	// The proxy behaves exactly as under v1.
	if got := p.Call("version"); got != "v1" {
		t.Errorf("Call(version) = %v, want v1", got)
	}
	if !p.Alive() {
		t.Error("proxy has no live instance after rollback")
	}

	rec, _ := reg.Get("Widget")
	if rec.Current != v1 {
		t.Error("registry current implementation is not v1")
	}
	if rec.LastGood != nil {
		t.Error("pending rollback marker not consumed")
	}
}

// Scenario: constructor always fails and no known-good implementation is
// registered: the error is unrecoverable and no marker is left dangling.
func TestInitialConstructionFailureLeavesNoMarker(t *testing.T) {
	f, reg := newTreeFactory(t, FailingImplementation("v1", errors.New("broken build")))
	target := NewFakeNode("T")

	p, err := f.NewProxy(ConstructOptions{Target: target})
	if !IsFullReloadRequired(err) {
		t.Fatalf("NewProxy error = %v, want ErrFullReloadRequired", err)
	}
	if !IsConstruction(err) {
		t.Errorf("error = %v, want wrapped ConstructionError", err)
	}
	if p != nil {
		t.Error("NewProxy returned a proxy alongside an unrecoverable error")
	}
	if len(target.Children()) != 0 {
		t.Errorf("dangling nodes after failure: %v", target.ChildNames())
	}
	if got := len(reg.Instances("Widget")); got != 0 {
		t.Errorf("registered instances = %d, want 0", got)
	}
}

func TestReloadUnrecoverableDestroysProxy(t *testing.T) {
	// v1 constructs once, then never again, so the rollback retry after
	// v2's failure also fails and the unit becomes unrecoverable.
	built := 0
	v1 := &Implementation{
		Name: "v1",
		New: func(opts ConstructOptions) (Instance, error) {
			built++
			if built > 1 {
				return nil, errors.New("source file gone")
			}
			return NewStubInstance("v1", opts.Props), nil
		},
	}
	f, _ := newTreeFactory(t, v1)
	target := NewFakeNode("T")
	p, err := f.NewProxy(ConstructOptions{Target: target})
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}

	res, err := f.Reload(FailingImplementation("v2", errors.New("broken build")), nil)
	if !IsFullReloadRequired(err) {
		t.Fatalf("Reload error = %v, want ErrFullReloadRequired", err)
	}
	if res.Failed() != 1 || res.Rerendered() != 0 {
		t.Errorf("failed = %d rerendered = %d, want 1 and 0", res.Failed(), res.Rerendered())
	}
	if len(target.Children()) != 0 {
		t.Errorf("dangling nodes after unrecoverable reload: %v", target.ChildNames())
	}
	if len(f.Proxies()) != 0 {
		t.Error("destroyed proxy still tracked for fan-out")
	}
	if err := p.Rerender(); err != nil {
		t.Errorf("rerender after destruction = %v, want benign no-op", err)
	}
}

func TestReloadSameImplementationIsNoOp(t *testing.T) {
	v1 := StubImplementation("v1", map[string]any{"count": 0})
	f, _ := newTreeFactory(t, v1)
	p, err := f.NewProxy(ConstructOptions{Target: NewFakeNode("T")})
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}
	inst := liveStub(t, p)

	res, err := f.Reload(v1, nil)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if !res.NoOp() {
		t.Error("reloading the current implementation is not a no-op")
	}
	if liveStub(t, p) != inst {
		t.Error("no-op reload replaced the instance")
	}
}

func TestReloadFansOutToAllProxies(t *testing.T) {
	f, _ := newTreeFactory(t, StubImplementation("v1", map[string]any{"count": 0}))
	targets := []*FakeNode{NewFakeNode("A"), NewFakeNode("B"), NewFakeNode("C")}
	for _, target := range targets {
		if _, err := f.NewProxy(ConstructOptions{Target: target}); err != nil {
			t.Fatalf("NewProxy: %v", err)
		}
	}

	res, err := f.Reload(StubImplementation("v2", map[string]any{"count": 0}), nil)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if res.Rerendered() != 3 {
		t.Errorf("rerendered = %d, want 3", res.Rerendered())
	}
	for _, p := range f.Proxies() {
		if liveStub(t, p).Impl != "v2" {
			t.Errorf("proxy %s still on %q", p.Label(), liveStub(t, p).Impl)
		}
	}
}

func TestReloadCopiesStaticsBeforeRecreation(t *testing.T) {
	f, _ := newTreeFactory(t, StubImplementation("v1", nil))
	if _, err := f.NewProxy(ConstructOptions{Target: NewFakeNode("T")}); err != nil {
		t.Fatalf("NewProxy: %v", err)
	}

	// v2's constructor reads a static of its own implementation, which
	// must already be mirrored when construction runs.
	var seen any
	v2 := &Implementation{
		Name:    "v2",
		Statics: map[string]any{"theme": "dark"},
		New: func(opts ConstructOptions) (Instance, error) {
			seen, _ = f.Static("theme")
			return NewStubInstance("v2", opts.Props), nil
		},
	}
	if _, err := f.Reload(v2, nil); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if seen != "dark" {
		t.Errorf("static during construction = %v, want dark", seen)
	}
	if v, _ := f.Static("theme"); v != "dark" {
		t.Errorf("Static(theme) = %v, want dark", v)
	}
}

func TestReloadDecodesHostOptions(t *testing.T) {
	f, _ := newTreeFactory(t, StubImplementation("v1", map[string]any{"count": 0}))
	p, err := f.NewProxy(ConstructOptions{Target: NewFakeNode("T")})
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}

	_, err = f.Reload(StubImplementation("v2", map[string]any{"count": 0}),
		map[string]any{"props": map[string]any{"theme": "dark"}, "intro": true})
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if v, _ := liveStub(t, p).Get("theme"); v != "dark" {
		t.Errorf("theme = %v, want dark", v)
	}
}

func TestReloadRejectsUnknownHostOptions(t *testing.T) {
	f, _ := newTreeFactory(t, StubImplementation("v1", nil))
	_, err := f.Reload(StubImplementation("v2", nil), map[string]any{"bogus": 1})
	if err == nil {
		t.Error("Reload accepted an unknown host option")
	}
}

func TestPlaceholderMountedOnUnrecoverableFailure(t *testing.T) {
	reg := NewRegistry()
	f := NewFactory("Widget", reg, FailingImplementation("v1", errors.New("broken build")),
		WithDocument(FakeDocument{}),
		WithLogger(quietLogger()),
		WithPlaceholderOnError())

	p, err := f.NewProxy(ConstructOptions{Target: NewFakeNode("T")})
	if err != nil {
		t.Fatalf("NewProxy in placeholder mode: %v", err)
	}
	if !IsPlaceholder(p.resolveInternal()) {
		t.Fatalf("live instance is %T, want *Placeholder", p.resolveInternal())
	}
	if v, ok := p.resolveInternal().Get("error"); !ok || v == "" {
		t.Error("placeholder does not expose the construction error")
	}

	// The next successful reload transparently replaces the placeholder.
	if _, err := f.Reload(StubImplementation("v2", map[string]any{"count": 0}), nil); err != nil {
		t.Fatalf("Reload after placeholder: %v", err)
	}
	if IsPlaceholder(p.resolveInternal()) {
		t.Error("placeholder still mounted after a successful reload")
	}
	if liveStub(t, p).Impl != "v2" {
		t.Errorf("live instance built from %q, want v2", liveStub(t, p).Impl)
	}
}

func TestPlaceholderPropsDoNotLeakIntoReplacement(t *testing.T) {
	reg := NewRegistry()
	f := NewFactory("Widget", reg, FailingImplementation("v1", errors.New("broken build")),
		WithDocument(FakeDocument{}),
		WithLogger(quietLogger()),
		WithPlaceholderOnError())

	p, err := f.NewProxy(ConstructOptions{Target: NewFakeNode("T")})
	if err != nil {
		t.Fatalf("NewProxy in placeholder mode: %v", err)
	}
	if !IsPlaceholder(p.resolveInternal()) {
		t.Fatalf("live instance is %T, want *Placeholder", p.resolveInternal())
	}

	if _, err := f.Reload(StubImplementation("v2", map[string]any{"count": 0}), nil); err != nil {
		t.Fatalf("Reload after placeholder: %v", err)
	}

	// The replacement must not inherit the placeholder's error display.
	inst := liveStub(t, p)
	if v, ok := inst.Get("error"); ok {
		t.Errorf("replacement carries error prop %q", v)
	}
	if v, ok := inst.Get("unit"); ok {
		t.Errorf("replacement carries unit prop %q", v)
	}
	if v, _ := inst.Get("count"); propInt(t, v) != 0 {
		t.Errorf("count = %v, want 0", v)
	}
}

func TestListenersSurvivePlaceholderInterlude(t *testing.T) {
	// v1 constructs once, then never again, so the rollback retry after
	// v2's failure also fails and a placeholder takes over.
	built := 0
	v1 := &Implementation{
		Name: "v1",
		New: func(opts ConstructOptions) (Instance, error) {
			built++
			if built > 1 {
				return nil, errors.New("source file gone")
			}
			return NewStubInstance("v1", opts.Props), nil
		},
	}
	reg := NewRegistry()
	f := NewFactory("Widget", reg, v1,
		WithDocument(FakeDocument{}),
		WithLogger(quietLogger()),
		WithPlaceholderOnError())
	p, err := f.NewProxy(ConstructOptions{Target: NewFakeNode("T")})
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}
	fired := 0
	p.On("tick", func(any) { fired++ })

	if _, err := f.Reload(FailingImplementation("v2", errors.New("broken build")), nil); err != nil {
		t.Fatalf("Reload into placeholder: %v", err)
	}
	if !IsPlaceholder(p.resolveInternal()) {
		t.Fatalf("live instance is %T, want *Placeholder", p.resolveInternal())
	}

	if _, err := f.Reload(StubImplementation("v3", map[string]any{"count": 0}), nil); err != nil {
		t.Fatalf("Reload out of placeholder: %v", err)
	}
	liveStub(t, p).Emit("tick", nil)
	if fired != 1 {
		t.Errorf("listener fired %d times after the interlude, want 1", fired)
	}
}

// Scenario: an implementation installed while no proxies were live has
// never constructed and must not become the rollback target.
func TestRollbackTargetMustHaveConstructed(t *testing.T) {
	f, reg := newTreeFactory(t, StubImplementation("v1", nil))
	p, err := f.NewProxy(ConstructOptions{Target: NewFakeNode("T")})
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}
	if err := p.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	// v2 is installed with zero live proxies, so it never builds an
	// instance before v3 replaces it.
	if _, err := f.Reload(StubImplementation("v2", nil), nil); err != nil {
		t.Fatalf("Reload v2: %v", err)
	}
	v3 := FailingImplementation("v3", errors.New("broken build"))
	if _, err := f.Reload(v3, nil); err != nil {
		t.Fatalf("Reload v3: %v", err)
	}

	p2, err := f.NewProxy(ConstructOptions{Target: NewFakeNode("T2")})
	if err != nil {
		t.Fatalf("NewProxy after failing reload: %v", err)
	}
	if got := liveStub(t, p2).Impl; got != "v1" {
		t.Errorf("rolled back to %q, want the proven v1", got)
	}
	rec, _ := reg.Get("Widget")
	if rec.Current.Name != "v1" {
		t.Errorf("registry current = %q, want v1", rec.Current.Name)
	}
}

func TestFactoryPanicsOnBadWiring(t *testing.T) {
	assertPanics := func(name string, fn func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s did not panic", name)
			}
		}()
		fn()
	}
	assertPanics("nil registry", func() {
		NewFactory("Widget", nil, StubImplementation("v1", nil), WithDocument(FakeDocument{}))
	})
	assertPanics("nil implementation", func() {
		NewFactory("Widget", NewRegistry(), nil, WithDocument(FakeDocument{}))
	})
	assertPanics("no document", func() {
		NewFactory("Widget", NewRegistry(), StubImplementation("v1", nil))
	})
}
