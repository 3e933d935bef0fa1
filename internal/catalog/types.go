package catalog

import (
	"fmt"
	"math"

	"github.com/roach88/fieldset/internal/value"
)

// TypeID names an entity type, e.g. "Account".
type TypeID string

// FieldID names a field within a catalog chain, e.g. "Name".
type FieldID string

// SemanticType is the declared business type of a field.
type SemanticType int

const (
	TypeDate SemanticType = iota
	TypeString
	TypeCharArray
	TypeShort
	TypeInteger
	TypeLong
	TypeMoney
	TypePrice
	TypeUnits
	TypeRate
	TypeRatio
	TypeBoolean
	TypeByteArray
	TypeLink
	TypeEnum
	TypeObject
)

var semanticNames = [...]string{
	TypeDate:      "date",
	TypeString:    "string",
	TypeCharArray: "chars",
	TypeShort:     "short",
	TypeInteger:   "integer",
	TypeLong:      "long",
	TypeMoney:     "money",
	TypePrice:     "price",
	TypeUnits:     "units",
	TypeRate:      "rate",
	TypeRatio:     "ratio",
	TypeBoolean:   "boolean",
	TypeByteArray: "bytes",
	TypeLink:      "link",
	TypeEnum:      "enum",
	TypeObject:    "object",
}

func (t SemanticType) String() string {
	if t >= 0 && int(t) < len(semanticNames) {
		return semanticNames[t]
	}
	return fmt.Sprintf("semantic(%d)", int(t))
}

// ParseSemanticType maps a schema type name to its SemanticType.
func ParseSemanticType(name string) (SemanticType, bool) {
	for i, n := range semanticNames {
		if n == name {
			return SemanticType(i), true
		}
	}
	return 0, false
}

// HasLength reports whether the type carries a max length. Length is
// required for these types and forbidden for all others.
func (t SemanticType) HasLength() bool {
	switch t {
	case TypeString, TypeCharArray, TypeByteArray:
		return true
	}
	return false
}

// IsLink reports whether the type references another entity.
func (t SemanticType) IsLink() bool {
	return t == TypeLink
}

// IsDecimal reports whether the type is represented by value.Decimal.
func (t SemanticType) IsDecimal() bool {
	switch t {
	case TypeMoney, TypePrice, TypeUnits, TypeRate, TypeRatio:
		return true
	}
	return false
}

// Represents reports whether v is an instance of the type's declared
// representation. It does not apply the null/string/link allowances that
// Descriptor.Check layers on top.
func (t SemanticType) Represents(v value.Value) bool {
	switch val := v.(type) {
	case value.Date:
		return t == TypeDate
	case value.String:
		return t == TypeString || t == TypeCharArray || t == TypeEnum || t == TypeObject
	case value.Int:
		switch t {
		case TypeShort:
			return val >= math.MinInt16 && val <= math.MaxInt16
		case TypeInteger:
			return val >= math.MinInt32 && val <= math.MaxInt32
		case TypeLong, TypeEnum, TypeObject:
			return true
		}
		return false
	case value.Decimal:
		return t.IsDecimal() || t == TypeObject
	case value.Bool:
		return t == TypeBoolean || t == TypeObject
	case value.Bytes:
		return t == TypeByteArray || t == TypeObject
	case value.Ref:
		return t == TypeLink || t == TypeObject
	default:
		return t == TypeObject
	}
}

// StorageKind says where a field's value lives.
type StorageKind int

const (
	// Local fields are held on the entity outside history.
	Local StorageKind = iota
	// Versioned fields own a slot in every value set.
	Versioned
	// Paired fields own a slot and mirror a companion field.
	Paired
	// Calculated fields have no storage; the accessor derives them.
	Calculated
)

var storageNames = [...]string{
	Local:      "local",
	Versioned:  "versioned",
	Paired:     "paired",
	Calculated: "calculated",
}

func (k StorageKind) String() string {
	if k >= 0 && int(k) < len(storageNames) {
		return storageNames[k]
	}
	return fmt.Sprintf("storage(%d)", int(k))
}

// ParseStorageKind maps a schema storage name to its StorageKind.
func ParseStorageKind(name string) (StorageKind, bool) {
	for i, n := range storageNames {
		if n == name {
			return StorageKind(i), true
		}
	}
	return 0, false
}

// HasSlot reports whether fields of this kind are stored in value sets.
func (k StorageKind) HasSlot() bool {
	return k == Versioned || k == Paired
}
