package catalog

import (
	"fmt"

	"github.com/roach88/fieldset/internal/value"
)

// Source is what a field accessor reads from. Entities implement it.
type Source interface {
	// Slot returns the current value of a versioned slot.
	Slot(index int) value.Value
	// Local returns the value of a local (unversioned) field.
	Local(id FieldID) value.Value
}

// Accessor derives a field's value from its source.
type Accessor func(src Source) value.Value

// Descriptor is the immutable metadata for one declared field.
type Descriptor struct {
	id        FieldID
	owner     TypeID
	typ       SemanticType
	maxLength int // -1 when the type carries no length
	equality  bool
	storage   StorageKind
	secured   bool
	slot      int // -1 when storage has no slot
	accessor  Accessor
}

// FieldOption configures a field declaration.
type FieldOption func(*fieldConfig)

type fieldConfig struct {
	maxLength *int
	equality  bool
	storage   StorageKind
	secured   bool
	accessor  Accessor
}

func defaultFieldConfig() fieldConfig {
	return fieldConfig{
		equality: true,
		storage:  Versioned,
	}
}

// WithLength sets the max length. Required for string, chars and bytes fields.
func WithLength(n int) FieldOption {
	return func(c *fieldConfig) {
		c.maxLength = &n
	}
}

// NotEquality excludes the field from value-set equality, hashing and diffs.
func NotEquality() FieldOption {
	return func(c *fieldConfig) {
		c.equality = false
	}
}

// Equality sets whether the field participates in equality. Default true.
func Equality(on bool) FieldOption {
	return func(c *fieldConfig) {
		c.equality = on
	}
}

// Storage sets the storage kind. Default Versioned.
func Storage(kind StorageKind) FieldOption {
	return func(c *fieldConfig) {
		c.storage = kind
	}
}

// WithAccessor overrides how the field is read. Calculated fields need one.
func WithAccessor(fn Accessor) FieldOption {
	return func(c *fieldConfig) {
		c.accessor = fn
	}
}

// Secured marks the field as holding value.Encrypted values.
func Secured() FieldOption {
	return func(c *fieldConfig) {
		c.secured = true
	}
}

func (d *Descriptor) ID() FieldID          { return d.id }
func (d *Descriptor) Owner() TypeID        { return d.owner }
func (d *Descriptor) Type() SemanticType   { return d.typ }
func (d *Descriptor) IsEquality() bool     { return d.equality }
func (d *Descriptor) Storage() StorageKind { return d.storage }
func (d *Descriptor) IsSecured() bool      { return d.secured }

// MaxLength returns the declared max length, if the type has one.
func (d *Descriptor) MaxLength() (int, bool) {
	if d.maxLength < 0 {
		return 0, false
	}
	return d.maxLength, true
}

// IsVersioned reports whether the field owns a value-set slot.
func (d *Descriptor) IsVersioned() bool {
	return d.slot >= 0
}

// Slot returns the field's slot index, if it has one.
func (d *Descriptor) Slot() (int, bool) {
	if d.slot < 0 {
		return 0, false
	}
	return d.slot, true
}

// Tracked reports whether the field takes part in change detection:
// it must own a slot and be equality-bearing.
func (d *Descriptor) Tracked() bool {
	return d.equality && d.slot >= 0
}

// Read returns the field's value from src using the accessor, or the slot or
// local value when no accessor was declared.
func (d *Descriptor) Read(src Source) value.Value {
	if d.accessor != nil {
		return d.accessor(src)
	}
	switch {
	case d.slot >= 0:
		return src.Slot(d.slot)
	case d.storage == Local:
		return src.Local(d.id)
	default:
		return value.Null{}
	}
}

// Check applies the assignment rule: null and strings are always accepted,
// integers are accepted for links, secured fields take Encrypted values whose
// plain value passes, and anything else must be an instance of the type's
// declared representation.
func (d *Descriptor) Check(v value.Value) error {
	if v == nil {
		return nil
	}
	if enc, ok := v.(value.Encrypted); ok {
		if !d.secured && d.typ != TypeObject {
			return d.mismatch(v, "encrypted value on unsecured field")
		}
		v = enc.Plain()
	}

	switch val := v.(type) {
	case value.Null, value.String:
		return nil
	case value.Int:
		if d.typ.IsLink() {
			return nil
		}
		if !d.typ.Represents(val) {
			return d.mismatch(v, "")
		}
		return nil
	default:
		if !d.typ.Represents(v) {
			return d.mismatch(v, "")
		}
		return nil
	}
}

func (d *Descriptor) mismatch(v value.Value, detail string) error {
	msg := fmt.Sprintf("%s value not assignable to %s field", v.Kind(), d.typ)
	if detail != "" {
		msg += ": " + detail
	}
	return NewError(ErrCodeTypeMismatch, d.owner, d.id, "%s", msg)
}

// ExceedsLength reports whether v is longer than the field's max length.
// Fields without a length never exceed it.
func (d *Descriptor) ExceedsLength(v value.Value) bool {
	if d.maxLength < 0 {
		return false
	}
	switch val := value.PlainOf(v).(type) {
	case value.String:
		return len([]rune(string(val))) > d.maxLength
	case value.Bytes:
		return len(val) > d.maxLength
	}
	return false
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s.%s", d.owner, d.id)
}
