package hotswap

import "sync"

// MemoryRegistry is the default process-wide Registry: an in-memory
// table of unit records and live proxy sets. Entries are created on
// first use and never torn down; units persist for the process lifetime.
//
// The core's execution model is single-threaded, but the table is
// mutex-guarded so test drivers and diagnostics can read it from other
// goroutines safely.
type MemoryRegistry struct {
	mu        sync.RWMutex
	units     map[string]UnitRecord
	instances map[string][]*Proxy
}

// NewRegistry creates an empty in-memory registry.
func NewRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		units:     make(map[string]UnitRecord),
		instances: make(map[string][]*Proxy),
	}
}

// Get returns the record for a unit id.
func (r *MemoryRegistry) Get(id string) (UnitRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.units[id]
	return rec, ok
}

// Set stores the record for a unit id.
func (r *MemoryRegistry) Set(id string, rec UnitRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[id] = rec
}

// RegisterInstance adds a live proxy to the unit's instance set.
// Registering the same proxy twice is a no-op.
func (r *MemoryRegistry) RegisterInstance(id string, p *Proxy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.instances[id] {
		if q == p {
			return
		}
	}
	r.instances[id] = append(r.instances[id], p)
}

// DeregisterInstance removes a proxy from the unit's instance set.
// Unknown proxies are ignored.
func (r *MemoryRegistry) DeregisterInstance(id string, p *Proxy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.instances[id]
	for i, q := range set {
		if q == p {
			r.instances[id] = append(set[:i], set[i+1:]...)
			return
		}
	}
}

// Instances returns a copy of the unit's live proxy set.
func (r *MemoryRegistry) Instances(id string) []*Proxy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Proxy(nil), r.instances[id]...)
}
