package hotswap

// Placeholder is an inert instance mounted when construction fails and no
// rollback target exists, so the host tree is never left with a dangling
// attachment point. It satisfies the full forwarding contract with
// no-ops and exposes the failure through the "error" property; the next
// successful reload or rerender replaces it transparently.
type Placeholder struct {
	id    string
	cause error
	state *InstanceState
}

// NewPlaceholder builds a placeholder for unit id displaying cause.
func NewPlaceholder(id string, cause error) *Placeholder {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &Placeholder{
		id:    id,
		cause: cause,
		state: &InstanceState{
			Props: map[string]any{
				"error": msg,
				"unit":  id,
			},
			Listeners: make(map[string][]Listener),
			Fragment:  noopFragment{},
		},
	}
}

// Cause returns the construction failure the placeholder stands in for.
func (p *Placeholder) Cause() error { return p.cause }

// State returns the placeholder's state block.
func (p *Placeholder) State() *InstanceState { return p.state }

// Set is a no-op; a placeholder has no behavior to configure.
func (p *Placeholder) Set(props map[string]any) {}

// Get reads the error-display properties.
func (p *Placeholder) Get(name string) (any, bool) {
	v, ok := p.state.Props[name]
	return v, ok
}

// On accepts the registration so consumer code keeps working, but no
// event ever fires.
func (p *Placeholder) On(event string, fn Listener) func() {
	p.state.Listeners[event] = append(p.state.Listeners[event], fn)
	return func() {}
}

// Destroy is a no-op.
func (p *Placeholder) Destroy() {}

// IsPlaceholder reports whether inst is a placeholder error instance.
func IsPlaceholder(inst Instance) bool {
	_, ok := inst.(*Placeholder)
	return ok
}

// noopFragment satisfies the host fragment contract with no-ops.
type noopFragment struct{}

func (noopFragment) Create()                        {}
func (noopFragment) Claim(root Node)                {}
func (noopFragment) Hydrate()                       {}
func (noopFragment) Mount(target Node, anchor Node) {}
func (noopFragment) Update()                        {}
func (noopFragment) Intro()                         {}
func (noopFragment) Outro()                         {}
func (noopFragment) Destroy(detach bool)            {}
