package catalog

import (
	"iter"
	"sync"
)

// Catalog is the field registry for one entity type, chained to its
// supertype's catalog.
//
// Versioned slot indices are assigned in declaration order and continue
// across the chain, so a value set for a subtype is one contiguous array
// covering every inherited slot. A catalog is locked once a child is derived
// from it or its registry is sealed; after that it is immutable and safe for
// concurrent readers.
type Catalog struct {
	owner  TypeID
	parent *Catalog

	mu     sync.RWMutex
	fields []*Descriptor
	byID   map[FieldID]*Descriptor
	next   int
	locked bool
}

// New creates a root catalog with no parent.
func New(owner TypeID) *Catalog {
	return &Catalog{
		owner: owner,
		byID:  make(map[FieldID]*Descriptor),
	}
}

// Derive locks c and returns a child catalog whose slot numbering continues
// from c's versioned count.
func (c *Catalog) Derive(owner TypeID) *Catalog {
	c.mu.Lock()
	c.locked = true
	next := c.next
	c.mu.Unlock()

	return &Catalog{
		owner:  owner,
		parent: c,
		byID:   make(map[FieldID]*Descriptor),
		next:   next,
	}
}

// Owner returns the entity type this catalog describes.
func (c *Catalog) Owner() TypeID { return c.owner }

// Parent returns the supertype catalog, or nil for a root.
func (c *Catalog) Parent() *Catalog { return c.parent }

// Declare registers a field and returns its descriptor.
//
// Fails with DUPLICATE_FIELD if id exists anywhere in the chain,
// CATALOG_LOCKED if c has been locked, INVALID_LENGTH if a max length is
// given for a type without one or omitted for a type that needs one, and
// MISSING_ACCESSOR for a calculated field with no accessor.
func (c *Catalog) Declare(id FieldID, typ SemanticType, opts ...FieldOption) (*Descriptor, error) {
	cfg := defaultFieldConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locked {
		return nil, NewError(ErrCodeCatalogLocked, c.owner, id, "catalog is locked")
	}
	if _, ok := c.lookupLocked(id); ok {
		return nil, NewError(ErrCodeDuplicateField, c.owner, id, "field already declared in catalog chain")
	}

	if cfg.storage == Calculated && cfg.accessor == nil {
		return nil, NewError(ErrCodeMissingAccessor, c.owner, id, "calculated field requires an accessor")
	}

	maxLength := -1
	switch {
	case typ.HasLength() && cfg.maxLength == nil:
		return nil, NewError(ErrCodeInvalidLength, c.owner, id, "%s field requires a max length", typ)
	case typ.HasLength() && *cfg.maxLength < 0:
		return nil, NewError(ErrCodeInvalidLength, c.owner, id, "max length %d is negative", *cfg.maxLength)
	case !typ.HasLength() && cfg.maxLength != nil:
		return nil, NewError(ErrCodeInvalidLength, c.owner, id, "%s field does not take a max length", typ)
	case typ.HasLength():
		maxLength = *cfg.maxLength
	}

	d := &Descriptor{
		id:        id,
		owner:     c.owner,
		typ:       typ,
		maxLength: maxLength,
		equality:  cfg.equality,
		storage:   cfg.storage,
		secured:   cfg.secured,
		slot:      -1,
		accessor:  cfg.accessor,
	}
	if cfg.storage.HasSlot() {
		d.slot = c.next
		c.next++
	}

	c.fields = append(c.fields, d)
	c.byID[id] = d
	return d, nil
}

// MustDeclare is like Declare but panics on error.
// Intended for package-level field declarations.
func (c *Catalog) MustDeclare(id FieldID, typ SemanticType, opts ...FieldOption) *Descriptor {
	d, err := c.Declare(id, typ, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// Resolve finds a field anywhere in the chain.
func (c *Catalog) Resolve(id FieldID) (*Descriptor, error) {
	if d, ok := c.Lookup(id); ok {
		return d, nil
	}
	return nil, NewError(ErrCodeUnknownField, c.owner, id, "field not declared in catalog chain")
}

// MustResolve is like Resolve but panics on error.
func (c *Catalog) MustResolve(id FieldID) *Descriptor {
	d, err := c.Resolve(id)
	if err != nil {
		panic(err)
	}
	return d
}

// Lookup finds a field anywhere in the chain.
func (c *Catalog) Lookup(id FieldID) (*Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookupLocked(id)
}

func (c *Catalog) lookupLocked(id FieldID) (*Descriptor, bool) {
	if d, ok := c.byID[id]; ok {
		return d, true
	}
	if c.parent != nil {
		return c.parent.Lookup(id)
	}
	return nil, false
}

// Contains reports whether d was declared in this catalog's chain.
func (c *Catalog) Contains(d *Descriptor) bool {
	if d == nil {
		return false
	}
	found, ok := c.Lookup(d.id)
	return ok && found == d
}

// Fields yields every descriptor in the chain, parent fields first, in
// declaration order. The sequence is lazy and may be ranged over repeatedly.
func (c *Catalog) Fields() iter.Seq[*Descriptor] {
	return func(yield func(*Descriptor) bool) {
		c.walk(yield)
	}
}

func (c *Catalog) walk(yield func(*Descriptor) bool) bool {
	if c.parent != nil && !c.parent.walk(yield) {
		return false
	}
	c.mu.RLock()
	own := c.fields
	c.mu.RUnlock()
	for _, d := range own {
		if !yield(d) {
			return false
		}
	}
	return true
}

// Tracked yields the fields that take part in equality, hashing and diffs:
// equality-bearing fields that own a slot.
func (c *Catalog) Tracked() iter.Seq[*Descriptor] {
	return func(yield func(*Descriptor) bool) {
		for d := range c.Fields() {
			if d.Tracked() && !yield(d) {
				return
			}
		}
	}
}

// Len returns the number of fields in the chain.
func (c *Catalog) Len() int {
	n := 0
	for range c.Fields() {
		n++
	}
	return n
}

// VersionedCount is the slot count of a value set built from this catalog.
func (c *Catalog) VersionedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.next
}

// IsA reports whether typ is this catalog's owner or one of its ancestors.
func (c *Catalog) IsA(typ TypeID) bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.owner == typ {
			return true
		}
	}
	return false
}

// Lock prevents further declarations.
func (c *Catalog) Lock() {
	c.mu.Lock()
	c.locked = true
	c.mu.Unlock()
}

// Locked reports whether the catalog has been locked.
func (c *Catalog) Locked() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.locked
}
