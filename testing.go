package hotswap

import (
	"errors"
	"fmt"
	"sort"
)

// Fakes for testing code against the host contracts without a real
// component runtime or navigation stack. The library's own tests use
// them, and consumers can drive the same fakes to test their reload
// glue.

// parentSetter lets a fake tree re-parent foreign node types it adopts.
type parentSetter interface {
	setParent(n Node)
}

// FakeNode is an in-memory host tree node.
type FakeNode struct {
	Name     string
	parent   Node
	children []Node
}

// NewFakeNode creates a detached named node.
func NewFakeNode(name string) *FakeNode {
	return &FakeNode{Name: name}
}

// Parent returns the node's parent, or nil when detached.
func (n *FakeNode) Parent() Node { return n.parent }

func (n *FakeNode) setParent(p Node) { n.parent = p }

// InsertBefore inserts child immediately before ref, or appends when ref
// is nil.
func (n *FakeNode) InsertBefore(child Node, ref Node) {
	if ps, ok := child.(parentSetter); ok {
		ps.setParent(n)
	}
	if ref == nil {
		n.children = append(n.children, child)
		return
	}
	for i, c := range n.children {
		if c == ref {
			n.children = append(n.children[:i], append([]Node{child}, n.children[i:]...)...)
			return
		}
	}
	n.children = append(n.children, child)
}

// RemoveChild removes child. Unknown children are ignored.
func (n *FakeNode) RemoveChild(child Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			if ps, ok := child.(parentSetter); ok {
				ps.setParent(nil)
			}
			return
		}
	}
}

// Children returns a copy of the node's child list.
func (n *FakeNode) Children() []Node {
	return append([]Node(nil), n.children...)
}

// ChildNames returns the names of fake children, in tree order.
func (n *FakeNode) ChildNames() []string {
	out := make([]string, 0, len(n.children))
	for _, c := range n.children {
		switch v := c.(type) {
		case *FakeNode:
			out = append(out, v.Name)
		case *FakePage:
			out = append(out, v.Name)
		default:
			out = append(out, fmt.Sprintf("%T", c))
		}
	}
	return out
}

// Contains reports whether child is a direct child of n.
func (n *FakeNode) Contains(child Node) bool {
	for _, c := range n.children {
		if c == child {
			return true
		}
	}
	return false
}

// FakeDocument allocates fake tree nodes.
type FakeDocument struct{}

// CreateAnchor returns a new detached marker node named by label.
func (FakeDocument) CreateAnchor(label string) Node {
	return NewFakeNode(label)
}

// FakePage is an in-memory page-shaped node.
type FakePage struct {
	*FakeNode
	frame *FakeFrame
	back  BackHandler
}

// NewFakePage creates a detached named page.
func NewFakePage(name string) *FakePage {
	return &FakePage{FakeNode: NewFakeNode(name)}
}

// Frame returns the enclosing fake frame, or nil when detached.
func (p *FakePage) Frame() Frame {
	if p.frame == nil {
		return nil
	}
	return p.frame
}

// SetBackHandler installs h and returns the previous handler.
func (p *FakePage) SetBackHandler(h BackHandler) (prev BackHandler) {
	prev = p.back
	p.back = h
	return prev
}

// FakeFrame is an in-memory navigation stack. The last stack entry is
// the active page. Every navigation operation is appended to Log for
// assertions.
type FakeFrame struct {
	stack []*FakePage
	Log   []string
}

// NewFakeFrame creates an empty frame.
func NewFakeFrame() *FakeFrame {
	return &FakeFrame{}
}

// Push appends p as the new active page without logging; test setup
// helper.
func (f *FakeFrame) Push(p *FakePage) {
	p.frame = f
	f.stack = append(f.stack, p)
}

// Depth returns the stack depth including the active page.
func (f *FakeFrame) Depth() int {
	return len(f.stack)
}

// CurrentPage returns the active page, or nil for an empty frame.
func (f *FakeFrame) CurrentPage() Page {
	if len(f.stack) == 0 {
		return nil
	}
	return f.stack[len(f.stack)-1]
}

// CanGoBack reports whether back history exists.
func (f *FakeFrame) CanGoBack() bool {
	return len(f.stack) > 1
}

// ReplacePage replaces the active entry in place. Fails for the root
// entry, mirroring the documented host behavior.
func (f *FakeFrame) ReplacePage(p Page) error {
	if len(f.stack) == 0 {
		return errors.New("fake frame: empty stack")
	}
	if len(f.stack) == 1 {
		f.Log = append(f.Log, "replace-failed-root")
		return errors.New("fake frame: cannot replace the root entry")
	}
	np, ok := p.(*FakePage)
	if !ok {
		return fmt.Errorf("fake frame: unexpected page type %T", p)
	}
	old := f.stack[len(f.stack)-1]
	old.frame = nil
	np.frame = f
	f.stack[len(f.stack)-1] = np
	f.Log = append(f.Log, "replace")
	return nil
}

// Navigate makes p the active page, discarding history first when
// clearHistory is set.
func (f *FakeFrame) Navigate(p Page, clearHistory bool) {
	np, ok := p.(*FakePage)
	if !ok {
		return
	}
	if clearHistory {
		for _, old := range f.stack {
			old.frame = nil
		}
		f.stack = f.stack[:0]
		f.Log = append(f.Log, "navigate-clear")
	} else {
		f.Log = append(f.Log, "navigate")
	}
	np.frame = f
	f.stack = append(f.stack, np)
}

// FindBackstackEntry finds the back-history entry holding resolved,
// excluding the active page.
func (f *FakeFrame) FindBackstackEntry(resolved Page) (BackstackEntry, bool) {
	for i := 0; i < len(f.stack)-1; i++ {
		if f.stack[i] == resolved {
			return &fakeBackstackEntry{frame: f, idx: i}, true
		}
	}
	return nil, false
}

// GoBack pops the active page, invoking its back handler first.
func (f *FakeFrame) GoBack() {
	if len(f.stack) == 0 {
		return
	}
	current := f.stack[len(f.stack)-1]
	if current.back != nil {
		current.back(false)
	}
	current.frame = nil
	f.stack = f.stack[:len(f.stack)-1]
	f.Log = append(f.Log, "back")
}

type fakeBackstackEntry struct {
	frame *FakeFrame
	idx   int
}

func (e *fakeBackstackEntry) ResolvedPage() Page {
	return e.frame.stack[e.idx]
}

func (e *fakeBackstackEntry) SwapPage(p Page) {
	np, ok := p.(*FakePage)
	if !ok {
		return
	}
	e.frame.stack[e.idx].frame = nil
	np.frame = e.frame
	e.frame.stack[e.idx] = np
	e.frame.Log = append(e.frame.Log, "backstack-swap")
}

// FakeStackDocument allocates fake nodes and pages.
type FakeStackDocument struct {
	FakeDocument
}

// CreatePage returns a new detached fake page named by label.
func (FakeStackDocument) CreatePage(label string) Page {
	return NewFakePage(label)
}

// StubInstance is a minimal host-runtime instance: a property map, a
// listener table, and a fragment that mounts one root node into the
// target tree.
type StubInstance struct {
	Impl      string
	Destroyed bool
	SetCalls  int

	state  *InstanceState
	root   *FakeNode
	target Node
}

// NewStubInstance creates an unmounted stub with the given properties.
func NewStubInstance(impl string, props map[string]any) *StubInstance {
	if props == nil {
		props = make(map[string]any)
	}
	s := &StubInstance{
		Impl: impl,
		root: NewFakeNode("instance:" + impl),
		state: &InstanceState{
			Props:     props,
			Listeners: make(map[string][]Listener),
		},
	}
	s.state.Fragment = &stubFragment{inst: s}
	return s
}

// Root returns the node the stub renders as.
func (s *StubInstance) Root() *FakeNode { return s.root }

// State returns the internal state block.
func (s *StubInstance) State() *InstanceState { return s.state }

// Set merges props through the public path and counts the call, standing
// in for the host runtime's change detection.
func (s *StubInstance) Set(props map[string]any) {
	s.SetCalls++
	for k, v := range props {
		s.state.Props[k] = v
	}
	s.state.Fragment.Update()
}

// Get reads a current property value.
func (s *StubInstance) Get(name string) (any, bool) {
	v, ok := s.state.Props[name]
	return v, ok
}

// On registers a listener and returns its deregistration func.
func (s *StubInstance) On(event string, fn Listener) (off func()) {
	s.state.Listeners[event] = append(s.state.Listeners[event], fn)
	idx := len(s.state.Listeners[event]) - 1
	return func() {
		fns := s.state.Listeners[event]
		if idx < len(fns) {
			s.state.Listeners[event] = append(fns[:idx], fns[idx+1:]...)
		}
	}
}

// Emit fires an event to all registered listeners; test helper.
func (s *StubInstance) Emit(event string, payload any) {
	for _, fn := range s.state.Listeners[event] {
		fn(payload)
	}
}

// Destroy detaches the fragment and marks the stub dead.
func (s *StubInstance) Destroy() {
	if s.Destroyed {
		return
	}
	s.Destroyed = true
	s.state.Fragment.Destroy(true)
}

type stubFragment struct {
	inst *StubInstance
}

func (f *stubFragment) Create()         {}
func (f *stubFragment) Claim(root Node) {}
func (f *stubFragment) Hydrate()        {}
func (f *stubFragment) Update()         {}
func (f *stubFragment) Intro()          {}
func (f *stubFragment) Outro()          {}

func (f *stubFragment) Mount(target Node, anchor Node) {
	f.inst.target = target
	target.InsertBefore(f.inst.root, anchor)
}

func (f *stubFragment) Destroy(detach bool) {
	if detach && f.inst.target != nil {
		f.inst.target.RemoveChild(f.inst.root)
		f.inst.target = nil
	}
}

// StubImplementation builds an implementation whose constructor mounts a
// StubInstance with the given default properties.
func StubImplementation(name string, defaults map[string]any) *Implementation {
	props := make([]string, 0, len(defaults))
	for k := range defaults {
		props = append(props, k)
	}
	sort.Strings(props)
	return &Implementation{
		Name:  name,
		Props: props,
		New: func(opts ConstructOptions) (Instance, error) {
			inst := NewStubInstance(name, mergeProps(defaults, opts.Props))
			if opts.Target != nil {
				frag := inst.State().Fragment
				frag.Create()
				frag.Mount(opts.Target, opts.Anchor)
			}
			return inst, nil
		},
	}
}

// FailingImplementation builds an implementation whose constructor
// always fails with cause.
func FailingImplementation(name string, cause error) *Implementation {
	return &Implementation{
		Name: name,
		New: func(opts ConstructOptions) (Instance, error) {
			return nil, cause
		},
	}
}
