package version

import (
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/roach88/fieldset/internal/catalog"
	"github.com/roach88/fieldset/internal/value"
)

// ValueSet is one snapshot of an entity's versioned field values.
//
// The slot count is fixed at construction to the catalog's versioned count.
// Only fields with a slot (Versioned or Paired storage) are addressable.
type ValueSet struct {
	catalog *catalog.Catalog
	slots   []value.Value
	version int
	deleted bool
}

// NewValueSet creates a version-0 value set with every slot null.
func NewValueSet(c *catalog.Catalog) *ValueSet {
	slots := make([]value.Value, c.VersionedCount())
	for i := range slots {
		slots[i] = value.Null{}
	}
	return &ValueSet{catalog: c, slots: slots}
}

// Catalog returns the catalog the set was built from.
func (s *ValueSet) Catalog() *catalog.Catalog { return s.catalog }

// Version returns the snapshot's version number.
func (s *ValueSet) Version() int { return s.version }

// SetVersion sets the snapshot's version number.
func (s *ValueSet) SetVersion(v int) { s.version = v }

// IsDeletion reports whether the snapshot marks the entity deleted.
func (s *ValueSet) IsDeletion() bool { return s.deleted }

// SetDeletion sets the deletion flag.
func (s *ValueSet) SetDeletion(deleted bool) { s.deleted = deleted }

// Len returns the slot count.
func (s *ValueSet) Len() int { return len(s.slots) }

// Slot returns the raw value at index i.
func (s *ValueSet) Slot(i int) value.Value {
	return s.slots[i]
}

// Get returns the value of a versioned field.
func (s *ValueSet) Get(d *catalog.Descriptor) (value.Value, error) {
	slot, err := s.slotOf(d)
	if err != nil {
		return nil, err
	}
	return s.slots[slot], nil
}

// MustGet is like Get but panics on error.
func (s *ValueSet) MustGet(d *catalog.Descriptor) value.Value {
	v, err := s.Get(d)
	if err != nil {
		panic(err)
	}
	return v
}

// Set assigns a versioned field after checking the value against the
// field's type.
func (s *ValueSet) Set(d *catalog.Descriptor, v value.Value) error {
	slot, err := s.slotOf(d)
	if err != nil {
		return err
	}
	if err := d.Check(v); err != nil {
		return err
	}
	s.slots[slot] = normalize(v)
	return nil
}

// SetUnchecked assigns a versioned field without type checking. Bulk loaders
// that have validated their input use it.
func (s *ValueSet) SetUnchecked(d *catalog.Descriptor, v value.Value) error {
	slot, err := s.slotOf(d)
	if err != nil {
		return err
	}
	s.slots[slot] = normalize(v)
	return nil
}

func (s *ValueSet) slotOf(d *catalog.Descriptor) (int, error) {
	slot, ok := d.Slot()
	if !ok {
		return 0, catalog.NewError(catalog.ErrCodeNotVersioned, d.Owner(), d.ID(),
			"%s field has no value-set slot", d.Storage())
	}
	if !s.catalog.Contains(d) {
		return 0, catalog.NewError(catalog.ErrCodeUnknownField, s.catalog.Owner(), d.ID(),
			"field belongs to %s", d.Owner())
	}
	return slot, nil
}

// Clone copies the slot array and deletion flag. Values themselves are shared;
// they are immutable. The clone's version is 0 and must be set by the caller.
func (s *ValueSet) Clone() *ValueSet {
	return &ValueSet{
		catalog: s.catalog,
		slots:   slices.Clone(s.slots),
		deleted: s.deleted,
	}
}

// CopyFrom overwrites the slots and deletion flag with those of o. The
// version is left untouched.
func (s *ValueSet) CopyFrom(o *ValueSet) error {
	if len(o.slots) != len(s.slots) {
		return catalog.NewError(catalog.ErrCodeCatalogMismatch, s.catalog.Owner(), "",
			"cannot copy %d slots into %d", len(o.slots), len(s.slots))
	}
	copy(s.slots, o.slots)
	s.deleted = o.deleted
	return nil
}

// Equal compares two sets over their tracked fields: equality-bearing fields
// that own a slot. Other fields are ignored even when populated. Sets that
// disagree on deletion are never equal.
func (s *ValueSet) Equal(o *ValueSet) bool {
	return s.Differs(o) == value.Identical
}

// Differs compares two sets over their tracked fields.
//
// Different wins over SecurityOnly: the result is SecurityOnly only when every
// tracked field matches on plain value and at least one matched after
// ignoring ciphertext.
func (s *ValueSet) Differs(o *ValueSet) value.Difference {
	if o == nil || s.catalog != o.catalog || len(s.slots) != len(o.slots) {
		return value.Different
	}
	if s.deleted != o.deleted {
		return value.Different
	}

	result := value.Identical
	for d := range s.catalog.Tracked() {
		slot, _ := d.Slot()
		result = result.Combine(value.Diff(s.slots[slot], o.slots[slot]))
		if result == value.Different {
			return result
		}
	}
	return result
}

// FieldDiffers compares one field. Untracked fields are always Identical.
func (s *ValueSet) FieldDiffers(o *ValueSet, d *catalog.Descriptor) value.Difference {
	if !d.Tracked() {
		return value.Identical
	}
	if o == nil || len(s.slots) != len(o.slots) {
		return value.Different
	}
	slot, _ := d.Slot()
	if slot >= len(s.slots) {
		return value.Identical
	}
	return value.Diff(s.slots[slot], o.slots[slot])
}

// Hash is consistent with Equal: it covers the deletion flag and the plain
// values of tracked fields.
func (s *ValueSet) Hash() uint64 {
	h := xxhash.New()
	if s.deleted {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
	for d := range s.catalog.Tracked() {
		slot, _ := d.Slot()
		value.WriteHash(h, s.slots[slot])
	}
	return h.Sum64()
}

func normalize(v value.Value) value.Value {
	if v == nil {
		return value.Null{}
	}
	return v
}
