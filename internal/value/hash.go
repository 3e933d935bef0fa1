package value

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Hash returns a 64-bit hash consistent with Equal: equal values hash equally.
//
// Encrypted values hash on their plain value only, so values that differ
// SecurityOnly collide. That is allowed; the reverse is not.
func Hash(v Value) uint64 {
	d := xxhash.New()
	WriteHash(d, v)
	return d.Sum64()
}

// WriteHash feeds v into an existing digest. Used by value sets to hash a
// run of slots without allocating per slot.
func WriteHash(d *xxhash.Digest, v Value) {
	v = PlainOf(v)
	_, _ = d.Write([]byte{byte(v.Kind())})

	var buf [8]byte
	switch val := v.(type) {
	case Null:
	case String:
		_, _ = d.WriteString(string(val))
	case Int:
		binary.BigEndian.PutUint64(buf[:], uint64(val))
		_, _ = d.Write(buf[:])
	case Bool:
		if val {
			_, _ = d.Write([]byte{1})
		} else {
			_, _ = d.Write([]byte{0})
		}
	case Bytes:
		_, _ = d.Write(val)
	case Date:
		_, _ = d.WriteString(val.String())
	case Ref:
		_, _ = d.WriteString(val.Type)
		binary.BigEndian.PutUint64(buf[:], uint64(val.ID))
		_, _ = d.Write(buf[:])
	case Decimal:
		_, _ = d.WriteString(val.canonical())
	}
	// 0xff separates consecutive values so ("ab","c") and ("a","bc") differ.
	_, _ = d.Write([]byte{0xff})
}
