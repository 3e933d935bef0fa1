package secure

import (
	"fmt"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length of a field key in bytes.
const KeySize = chacha20poly1305.KeySize

// Keyring holds the field key sealed in an enclave.
type Keyring struct {
	enclave *memguard.Enclave
}

// NewKeyring seals key into an enclave. The caller's slice is wiped.
func NewKeyring(key []byte) (*Keyring, error) {
	if len(key) != KeySize {
		memguard.WipeBytes(key)
		return nil, fmt.Errorf("field key must be %d bytes, got %d", KeySize, len(key))
	}
	return &Keyring{enclave: memguard.NewEnclave(key)}, nil
}

// GenerateKeyring creates a keyring holding a fresh random key.
func GenerateKeyring() *Keyring {
	return &Keyring{enclave: memguard.NewEnclaveRandom(KeySize)}
}

// withKey opens the enclave, passes the key to fn and destroys the plaintext
// buffer when fn returns.
func (k *Keyring) withKey(fn func(key []byte) error) error {
	buf, err := k.enclave.Open()
	if err != nil {
		return fmt.Errorf("open key enclave: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}
