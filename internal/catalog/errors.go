package catalog

import (
	"errors"
	"fmt"
)

// ContractError reports a programmer-contract violation against a catalog or
// the value sets built from it.
//
// Contract errors are never retried or recovered internally. They propagate
// to the immediate caller, which either fixes its declarations or panics via
// a Must* helper. Business-rule failures are not ContractErrors; those are
// accumulated on an entity's validation ledger.
type ContractError struct {
	// Code identifies the violation.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Type is the catalog owner involved, if any.
	Type TypeID

	// Field is the field involved, if any.
	Field FieldID
}

// ErrorCode categorizes contract violations.
type ErrorCode string

const (
	// ErrCodeDuplicateField indicates a field id already exists in the catalog chain.
	ErrCodeDuplicateField ErrorCode = "DUPLICATE_FIELD"

	// ErrCodeCatalogLocked indicates a declaration on a catalog that has been
	// used as a parent or sealed in a registry.
	ErrCodeCatalogLocked ErrorCode = "CATALOG_LOCKED"

	// ErrCodeInvalidLength indicates a max length supplied or omitted
	// inconsistently with the field's semantic type.
	ErrCodeInvalidLength ErrorCode = "INVALID_LENGTH"

	// ErrCodeUnknownField indicates a field id not present in the catalog chain.
	ErrCodeUnknownField ErrorCode = "UNKNOWN_FIELD"

	// ErrCodeNotVersioned indicates a slot access on a field that has no slot.
	ErrCodeNotVersioned ErrorCode = "NOT_VERSIONED"

	// ErrCodeTypeMismatch indicates a value incompatible with the field's type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeMissingAccessor indicates a calculated field declared without an
	// accessor to derive it.
	ErrCodeMissingAccessor ErrorCode = "MISSING_ACCESSOR"

	// ErrCodeNonMonotonicVersion indicates a history push whose version does
	// not exceed the current version.
	ErrCodeNonMonotonicVersion ErrorCode = "NON_MONOTONIC_VERSION"

	// ErrCodeCatalogMismatch indicates value sets built from different catalogs.
	ErrCodeCatalogMismatch ErrorCode = "CATALOG_MISMATCH"

	// ErrCodeDuplicateType indicates a second catalog registered for one type.
	ErrCodeDuplicateType ErrorCode = "DUPLICATE_TYPE"

	// ErrCodeRegistrySealed indicates a registration after Seal.
	ErrCodeRegistrySealed ErrorCode = "REGISTRY_SEALED"
)

// Error implements the error interface.
func (e *ContractError) Error() string {
	switch {
	case e.Type != "" && e.Field != "":
		return fmt.Sprintf("%s: %s (type=%s, field=%s)", e.Code, e.Message, e.Type, e.Field)
	case e.Field != "":
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	case e.Type != "":
		return fmt.Sprintf("%s: %s (type=%s)", e.Code, e.Message, e.Type)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// NewError creates a ContractError with a formatted message.
func NewError(code ErrorCode, typ TypeID, field FieldID, format string, args ...any) *ContractError {
	return &ContractError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Type:    typ,
		Field:   field,
	}
}

// IsCode reports whether err wraps a ContractError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsDuplicateField returns true if err is a duplicate field declaration.
func IsDuplicateField(err error) bool { return IsCode(err, ErrCodeDuplicateField) }

// IsCatalogLocked returns true if err is a declaration on a locked catalog.
func IsCatalogLocked(err error) bool { return IsCode(err, ErrCodeCatalogLocked) }

// IsInvalidLength returns true if err is a length/type rule violation.
func IsInvalidLength(err error) bool { return IsCode(err, ErrCodeInvalidLength) }

// IsUnknownField returns true if err is an unresolved field id.
func IsUnknownField(err error) bool { return IsCode(err, ErrCodeUnknownField) }

// IsNotVersioned returns true if err is a slot access on a non-versioned field.
func IsNotVersioned(err error) bool { return IsCode(err, ErrCodeNotVersioned) }

// IsTypeMismatch returns true if err is a value rejected by a field's type.
func IsTypeMismatch(err error) bool { return IsCode(err, ErrCodeTypeMismatch) }
