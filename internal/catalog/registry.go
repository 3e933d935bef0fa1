package catalog

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Registry is a process-wide table of catalogs keyed by type.
//
// Population happens during an explicit initialization phase under a single
// mutex. Seal locks every registered catalog and publishes an immutable
// snapshot; lookups after Seal never take the mutex.
type Registry struct {
	mu       sync.Mutex
	building map[TypeID]*Catalog
	order    []TypeID
	sealed   atomic.Pointer[snapshot]
}

type snapshot struct {
	byType map[TypeID]*Catalog
	order  []TypeID
}

// Default is the process registry.
var Default = NewRegistry()

// NewRegistry creates an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{building: make(map[TypeID]*Catalog)}
}

// Register adds c under its owner type.
func (r *Registry) Register(c *Catalog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() != nil {
		return NewError(ErrCodeRegistrySealed, c.Owner(), "", "registry is sealed")
	}
	if _, ok := r.building[c.Owner()]; ok {
		return NewError(ErrCodeDuplicateType, c.Owner(), "", "type already registered")
	}
	r.building[c.Owner()] = c
	r.order = append(r.order, c.Owner())
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(c *Catalog) *Catalog {
	if err := r.Register(c); err != nil {
		panic(err)
	}
	return c
}

// Seal locks every registered catalog and freezes the table. Calling Seal
// again is a no-op.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() != nil {
		return
	}
	snap := &snapshot{
		byType: make(map[TypeID]*Catalog, len(r.building)),
		order:  slices.Clone(r.order),
	}
	for typ, c := range r.building {
		c.Lock()
		snap.byType[typ] = c
	}
	r.sealed.Store(snap)
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed.Load() != nil
}

// Lookup returns the catalog registered for typ.
func (r *Registry) Lookup(typ TypeID) (*Catalog, bool) {
	if snap := r.sealed.Load(); snap != nil {
		c, ok := snap.byType[typ]
		return c, ok
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.building[typ]
	return c, ok
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []TypeID {
	if snap := r.sealed.Load(); snap != nil {
		return slices.Clone(snap.order)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}
