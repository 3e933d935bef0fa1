package value

// Encrypted pairs a decrypted value with the ciphertext it was read from or
// written to. Slots of secured fields hold Encrypted values.
//
// Equality requires both the plain value and the ciphertext to match. Diff
// separates the two so callers can tell a content change from a re-encryption.
type Encrypted struct {
	plain  Value
	cipher []byte
}

func (Encrypted) Kind() Kind { return KindEncrypted }
func (Encrypted) value()     {}

// NewEncrypted wraps plain with its ciphertext. Nested Encrypted values are
// unwrapped to their plain value; the cipher bytes are copied.
func NewEncrypted(plain Value, cipher []byte) Encrypted {
	plain = orNull(plain)
	if inner, ok := plain.(Encrypted); ok {
		plain = inner.plain
	}
	cp := make([]byte, len(cipher))
	copy(cp, cipher)
	return Encrypted{plain: plain, cipher: cp}
}

// Plain returns the decrypted value.
func (e Encrypted) Plain() Value {
	return orNull(e.plain)
}

// Cipher returns a copy of the ciphertext.
func (e Encrypted) Cipher() []byte {
	cp := make([]byte, len(e.cipher))
	copy(cp, e.cipher)
	return cp
}

// PlainOf returns the plain value of v, unwrapping Encrypted.
func PlainOf(v Value) Value {
	if e, ok := orNull(v).(Encrypted); ok {
		return e.Plain()
	}
	return orNull(v)
}
