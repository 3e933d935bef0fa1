package value

import (
	"encoding/json"
	"fmt"
	"time"
)

// envelope is the tagged wire shape used by Encode/Decode.
type envelope struct {
	Kind   string          `json:"kind"`
	Value  json.RawMessage `json:"value,omitempty"`
	Cipher []byte          `json:"cipher,omitempty"`
}

type dateWire struct {
	Year  int `json:"y"`
	Month int `json:"m"`
	Day   int `json:"d"`
}

type refWire struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

// Encode serialises a value to tagged JSON. The output is the plaintext fed
// to field encryption, so it must round-trip through Decode exactly: strings
// travel as raw bytes so invalid UTF-8 is kept, and dates as numeric
// components so years outside 0000-9999 are kept.
func Encode(v Value) ([]byte, error) {
	v = orNull(v)
	env := envelope{Kind: v.Kind().String()}

	var (
		raw any
		err error
	)
	switch val := v.(type) {
	case Null:
		return json.Marshal(env)
	case String:
		raw = []byte(val)
	case Int:
		raw = int64(val)
	case Bool:
		raw = bool(val)
	case Bytes:
		raw = []byte(val)
	case Date:
		if !val.valid() {
			return nil, fmt.Errorf("encode date: %d-%d-%d is not a calendar day", val.Year, int(val.Month), val.Day)
		}
		raw = dateWire{Year: val.Year, Month: int(val.Month), Day: val.Day}
	case Ref:
		raw = refWire{Type: val.Type, ID: val.ID}
	case Decimal:
		raw = val.String()
	case Encrypted:
		inner, innerErr := Encode(val.plain)
		if innerErr != nil {
			return nil, fmt.Errorf("encrypted plain: %w", innerErr)
		}
		env.Value = inner
		env.Cipher = val.cipher
		return json.Marshal(env)
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}

	env.Value, err = json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.Kind, err)
	}
	return json.Marshal(env)
}

// Decode is the inverse of Encode.
func Decode(data []byte) (Value, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}

	kind, ok := ParseKind(env.Kind)
	if !ok {
		return nil, fmt.Errorf("decode value: unknown kind %q", env.Kind)
	}

	switch kind {
	case KindNull:
		return Null{}, nil
	case KindString:
		var b []byte
		if err := json.Unmarshal(env.Value, &b); err != nil {
			return nil, fmt.Errorf("decode string: %w", err)
		}
		return String(b), nil
	case KindInt:
		var n int64
		if err := json.Unmarshal(env.Value, &n); err != nil {
			return nil, fmt.Errorf("decode int: %w", err)
		}
		return Int(n), nil
	case KindBool:
		var b bool
		if err := json.Unmarshal(env.Value, &b); err != nil {
			return nil, fmt.Errorf("decode bool: %w", err)
		}
		return Bool(b), nil
	case KindBytes:
		var b []byte
		if err := json.Unmarshal(env.Value, &b); err != nil {
			return nil, fmt.Errorf("decode bytes: %w", err)
		}
		return Bytes(b), nil
	case KindDate:
		var w dateWire
		if err := json.Unmarshal(env.Value, &w); err != nil {
			return nil, fmt.Errorf("decode date: %w", err)
		}
		d := Date{Year: w.Year, Month: time.Month(w.Month), Day: w.Day}
		if !d.valid() {
			return nil, fmt.Errorf("decode date: %d-%d-%d is not a calendar day", w.Year, w.Month, w.Day)
		}
		return d, nil
	case KindRef:
		var r refWire
		if err := json.Unmarshal(env.Value, &r); err != nil {
			return nil, fmt.Errorf("decode ref: %w", err)
		}
		return Ref{Type: r.Type, ID: r.ID}, nil
	case KindDecimal:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("decode decimal: %w", err)
		}
		return NewDecimal(s)
	case KindEncrypted:
		plain, err := Decode(env.Value)
		if err != nil {
			return nil, fmt.Errorf("decode encrypted plain: %w", err)
		}
		return NewEncrypted(plain, env.Cipher), nil
	default:
		return nil, fmt.Errorf("decode value: unsupported kind %s", kind)
	}
}
