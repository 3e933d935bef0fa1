package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/fieldset/internal/value"
)

// Parse converts the text form of a value into the representation of d's
// semantic type. Links accept either "Type#id" (a resolved reference) or a
// bare id. Enums accept an ordinal or a name.
func (d *Descriptor) Parse(text string) (value.Value, error) {
	v, err := d.typ.parse(text)
	if err != nil {
		return nil, d.mismatch(value.String(text), err.Error())
	}
	return v, nil
}

func (t SemanticType) parse(text string) (value.Value, error) {
	switch t {
	case TypeDate:
		return value.ParseDate(text)
	case TypeString, TypeCharArray, TypeObject:
		return value.String(text), nil
	case TypeShort, TypeInteger, TypeLong:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", t, text, err)
		}
		return value.Int(n), nil
	case TypeMoney, TypePrice, TypeUnits, TypeRate, TypeRatio:
		return value.NewDecimal(text)
	case TypeBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", t, text, err)
		}
		return value.Bool(b), nil
	case TypeByteArray:
		return value.NewBytes([]byte(text)), nil
	case TypeLink:
		if typ, id, ok := strings.Cut(text, "#"); ok {
			n, err := strconv.ParseInt(id, 10, 64)
			if err != nil || typ == "" {
				return nil, fmt.Errorf("parse link %q: want Type#id", text)
			}
			return value.Ref{Type: typ, ID: n}, nil
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse link %q: want Type#id or an id", text)
		}
		return value.Int(n), nil
	case TypeEnum:
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return value.Int(n), nil
		}
		return value.String(text), nil
	default:
		return nil, fmt.Errorf("unsupported semantic type %s", t)
	}
}
