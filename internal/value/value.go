package value

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindDecimal
	KindDate
	KindBool
	KindBytes
	KindRef
	KindEncrypted
)

var kindNames = map[Kind]string{
	KindNull:      "null",
	KindString:    "string",
	KindInt:       "int",
	KindDecimal:   "decimal",
	KindDate:      "date",
	KindBool:      "bool",
	KindBytes:     "bytes",
	KindRef:       "ref",
	KindEncrypted: "encrypted",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindNull, false
}

// Value is a sealed interface over the supported field value variants.
type Value interface {
	Kind() Kind
	value() // Sealed - only this package implements it
}

// Null is the absent value.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) value()     {}
func (Null) String() string {
	return "null"
}

// String is a text value.
type String string

func (String) Kind() Kind { return KindString }
func (String) value()     {}

// Int is a signed integer value. Also used as an unresolved link id.
type Int int64

func (Int) Kind() Kind { return KindInt }
func (Int) value()     {}
func (i Int) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// Bool is a boolean value.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) value()     {}

// Bytes is an opaque byte array. Construct with NewBytes so the backing
// array is not shared with the caller.
type Bytes []byte

func (Bytes) Kind() Kind { return KindBytes }
func (Bytes) value()     {}

// NewBytes copies b into a Bytes value.
func NewBytes(b []byte) Bytes {
	if b == nil {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return Bytes(cp)
}

// Date is a calendar date with no time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (Date) Kind() Kind { return KindDate }
func (Date) value()     {}

// NewDate normalises the components through time.Date, so 31 April becomes 1 May.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses an ISO-8601 calendar date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// valid reports whether the components name a real calendar day, i.e. they
// survive normalisation unchanged.
func (d Date) valid() bool {
	return NewDate(d.Year, d.Month, d.Day) == d
}

// Ref is a resolved reference to another entity.
type Ref struct {
	Type string
	ID   int64
}

func (Ref) Kind() Kind { return KindRef }
func (Ref) value()     {}

func (r Ref) String() string {
	return fmt.Sprintf("%s#%d", r.Type, r.ID)
}

// Decimal is an exact decimal quantity (money, price, rate, units, ratio).
// The wrapped apd.Decimal is never mutated after construction.
type Decimal struct {
	d *apd.Decimal
}

func (Decimal) Kind() Kind { return KindDecimal }
func (Decimal) value()     {}

// NewDecimal parses a decimal literal such as "12.50" or "-0.001".
func NewDecimal(s string) (Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return Decimal{}, fmt.Errorf("parse decimal %q: not a finite number", s)
	}
	return Decimal{d: d}, nil
}

// MustDecimal is like NewDecimal but panics on error.
// Use only in tests or for literals known to be valid.
func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DecimalFromParts builds coeff * 10^exp, e.g. (1250, -2) is 12.50.
func DecimalFromParts(coeff int64, exp int32) Decimal {
	return Decimal{d: apd.New(coeff, exp)}
}

// Cmp compares two decimals numerically: -1, 0 or +1.
func (d Decimal) Cmp(o Decimal) int {
	return d.dec().Cmp(o.dec())
}

// String renders the decimal as written, keeping trailing zeros.
func (d Decimal) String() string {
	return d.dec().Text('f')
}

// canonical renders the decimal with trailing zeros removed so that numerically
// equal decimals share one representation.
func (d Decimal) canonical() string {
	var reduced apd.Decimal
	reduced.Reduce(d.dec())
	if reduced.IsZero() {
		return "0"
	}
	return reduced.Text('f')
}

func (d Decimal) dec() *apd.Decimal {
	if d.d == nil {
		return apd.New(0, 0)
	}
	return d.d
}

// orNull maps a nil interface to Null so callers never branch on nil.
func orNull(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	_, ok := orNull(v).(Null)
	return ok
}

// Format renders a value for display and audit output.
func Format(v Value) string {
	switch val := orNull(v).(type) {
	case Null:
		return "null"
	case String:
		return string(val)
	case Int:
		return val.String()
	case Bool:
		return strconv.FormatBool(bool(val))
	case Bytes:
		return fmt.Sprintf("bytes[%d]", len(val))
	case Date:
		return val.String()
	case Ref:
		return val.String()
	case Decimal:
		return val.String()
	case Encrypted:
		return "secured(" + Format(val.plain) + ")"
	default:
		return fmt.Sprintf("%v", v)
	}
}
