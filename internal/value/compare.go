package value

import "bytes"

// Difference is the three-way result of comparing values.
// The ordering Identical < SecurityOnly < Different is relied on by Combine.
type Difference int

const (
	// Identical means the values are equal, ciphertext included.
	Identical Difference = iota
	// SecurityOnly means the plain values match but the ciphertext differs.
	SecurityOnly
	// Different means the plain values differ.
	Different
)

func (d Difference) String() string {
	switch d {
	case Identical:
		return "IDENTICAL"
	case SecurityOnly:
		return "SECURITY_ONLY"
	case Different:
		return "DIFFERENT"
	default:
		return "UNKNOWN"
	}
}

// IsDifferent reports whether d is anything other than Identical.
func (d Difference) IsDifferent() bool {
	return d != Identical
}

// Combine folds two results, keeping the stronger difference.
func (d Difference) Combine(o Difference) Difference {
	if o > d {
		return o
	}
	return d
}

// Equal reports strict equality. Encrypted values must match on both plain
// value and ciphertext. Values of different kinds are never equal.
func Equal(a, b Value) bool {
	return Diff(a, b) == Identical
}

// Diff compares two values.
//
// Two Encrypted values with equal plain values but different ciphertext are
// SecurityOnly. An Encrypted value against a bare value is compared on kind,
// so it is always Different.
func Diff(a, b Value) Difference {
	a, b = orNull(a), orNull(b)

	if ea, ok := a.(Encrypted); ok {
		eb, ok := b.(Encrypted)
		if !ok {
			return Different
		}
		if !plainEqual(ea.Plain(), eb.Plain()) {
			return Different
		}
		if !bytes.Equal(ea.cipher, eb.cipher) {
			return SecurityOnly
		}
		return Identical
	}

	if plainEqual(a, b) {
		return Identical
	}
	return Different
}

// plainEqual compares two non-encrypted values.
func plainEqual(a, b Value) bool {
	a, b = orNull(a), orNull(b)
	if a.Kind() != b.Kind() {
		return false
	}

	switch av := a.(type) {
	case Null:
		return true
	case String:
		return av == b.(String)
	case Int:
		return av == b.(Int)
	case Bool:
		return av == b.(Bool)
	case Bytes:
		return bytes.Equal(av, b.(Bytes))
	case Date:
		return av == b.(Date)
	case Ref:
		return av == b.(Ref)
	case Decimal:
		return av.Cmp(b.(Decimal)) == 0
	case Encrypted:
		return Diff(av, b) == Identical
	default:
		return false
	}
}
