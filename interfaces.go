package hotswap

// Listener is a host-runtime event callback registered on an instance.
type Listener func(payload any)

// Fragment is the host runtime's render block for one instance. The core
// never drives fragments itself; it forwards to whatever the instance's
// implementation does. The operation set mirrors the host contract and is
// treated as fixed.
type Fragment interface {
	Create()
	Claim(root Node)
	Hydrate()
	Mount(target Node, anchor Node)
	Update()
	Intro()
	Outro()
	Destroy(detach bool)
}

// InstanceState is the fixed internal state block every host instance
// exposes: current property values, the registered listener table, and
// the instance's fragment.
type InstanceState struct {
	Props     map[string]any
	Listeners map[string][]Listener
	Fragment  Fragment
}

// Instance is the live object produced by constructing a unit's current
// implementation. The interface is the host component runtime's contract,
// treated as a fixed black box: a public set/on/destroy surface plus the
// internal state block.
//
// Set must run the instance's own change detection; restoring captured
// properties goes through Set, never through direct field pokes, so
// invariants the instance maintains for itself are preserved.
type Instance interface {
	// State returns the internal state block. Never nil for a live
	// instance.
	State() *InstanceState

	// Set applies property values through the instance's public
	// property-set path.
	Set(props map[string]any)

	// Get reads a current property value. The second return is false
	// when the property does not exist.
	Get(name string) (any, bool)

	// On registers an event listener and returns a deregistration func.
	On(event string, fn Listener) (off func())

	// Destroy tears the instance down, detaching its fragment.
	Destroy()
}

// Node is the host tree contract the tree adapter depends on: insertion
// before a reference node and removal. Nothing else about the host's tree
// is assumed.
type Node interface {
	Parent() Node
	// InsertBefore inserts child immediately before ref, or appends when
	// ref is nil.
	InsertBefore(child Node, ref Node)
	RemoveChild(child Node)
}

// Document allocates host nodes. The tree adapter uses it to create its
// marker anchor.
type Document interface {
	// CreateAnchor returns a new inert marker node. The label is
	// diagnostic only.
	CreateAnchor(label string) Node
}

// BackHandler is invoked when the user navigates back away from a page.
type BackHandler func(destroyed bool)

// Page is a page-shaped host node living inside a navigation frame.
//
// SetBackHandler installs h as the page's back-navigation handler and
// returns the previously installed one. The stack adapter installs its
// own handler at mount, keeping the host's original so it can delegate:
// the proxy, not the host's default teardown, decides whether the
// internal instance is destroyed on back navigation.
type Page interface {
	Node
	// Frame returns the enclosing navigation frame, or nil when the page
	// is detached from navigation.
	Frame() Frame
	SetBackHandler(h BackHandler) (prev BackHandler)
}

// BackstackEntry is one persisted entry of a frame's back history.
type BackstackEntry interface {
	// ResolvedPage returns the page stored in this entry.
	ResolvedPage() Page
	// SwapPage replaces the stored page without triggering navigation.
	SwapPage(p Page)
}

// Frame is the host's navigation stack contract.
type Frame interface {
	// CurrentPage returns the active page, or nil.
	CurrentPage() Page
	CanGoBack() bool
	// ReplacePage replaces the active entry in place with zero history
	// impact. Documented to fail for the stack's root entry.
	ReplacePage(p Page) error
	// Navigate makes p the active page. When clearHistory is set the
	// back stack is discarded first.
	Navigate(p Page, clearHistory bool)
	// FindBackstackEntry finds the back-history entry whose resolved
	// page is resolved, excluding the active page.
	FindBackstackEntry(resolved Page) (BackstackEntry, bool)
}

// StackDocument allocates nodes for navigation-stack hosts.
type StackDocument interface {
	Document
	// CreatePage returns a fresh detached page node for an instance to
	// render into.
	CreatePage(label string) Page
}

// ConstructOptions is the host runtime's constructor contract: where to
// attach and with what properties.
type ConstructOptions struct {
	Target  Node           `mapstructure:"-"`
	Anchor  Node           `mapstructure:"-"`
	Props   map[string]any `mapstructure:"props"`
	Intro   bool           `mapstructure:"intro"`
	Hydrate bool           `mapstructure:"hydrate"`
}

// Constructor builds a live instance attached per opts. Implementations
// report failure by error; panics are recovered by the proxy and treated
// the same way.
type Constructor func(opts ConstructOptions) (Instance, error)

// Method is an instance-level extension method of an implementation,
// beyond the fixed set/on/destroy surface. The proxy mirrors these onto
// its forwarding table at every construction, so extension methods keep
// working across reloads without the relay knowing their names upfront.
type Method func(inst Instance, args []any) any

// Implementation is one loadable version of a unit.
type Implementation struct {
	// Name identifies the version for diagnostics.
	Name string

	// Props declares the externally observable property names the
	// property relay exposes.
	Props []string

	// New constructs a live instance.
	New Constructor

	// Methods are instance extension methods, mirrored onto proxies.
	Methods map[string]Method

	// Statics are class-level members, copied onto the unit's factory on
	// every reload before any instance is recreated.
	Statics map[string]any
}

// Registry is the process-wide table mapping unit ids to their current
// (and optionally last-known-good) implementations, plus the live proxies
// per id. Entries are created on first registration and persist for the
// process lifetime. The core consumes this interface; NewRegistry returns
// the default in-memory implementation.
type Registry interface {
	Get(id string) (UnitRecord, bool)
	Set(id string, rec UnitRecord)
	RegisterInstance(id string, p *Proxy)
	DeregisterInstance(id string, p *Proxy)
}

// UnitRecord is the registry's per-id record.
//
// LastGood records the rollback target when a reload installs a new
// implementation: the most recent one that has constructed successfully
// at least once. Consumed on rollback; at most one pending rollback
// target exists per id.
type UnitRecord struct {
	ID       string
	Current  *Implementation
	LastGood *Implementation
}
