package secure

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/roach88/fieldset/internal/catalog"
	"github.com/roach88/fieldset/internal/value"
)

// ErrNotSecured is returned when encrypting for a field not declared Secured.
var ErrNotSecured = errors.New("field is not secured")

// Cipher seals and opens secured field values.
type Cipher struct {
	keys *Keyring
	rand io.Reader
}

// Option configures a Cipher.
type Option func(*Cipher)

// WithRandom sets the nonce source. Default: crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(c *Cipher) {
		c.rand = r
	}
}

// NewCipher creates a cipher over the keyring.
func NewCipher(keys *Keyring, opts ...Option) *Cipher {
	c := &Cipher{keys: keys, rand: rand.Reader}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encrypt seals v for field d. Encrypted inputs are sealed afresh from their
// plain value.
func (c *Cipher) Encrypt(d *catalog.Descriptor, v value.Value) (value.Encrypted, error) {
	if !d.IsSecured() {
		return value.Encrypted{}, fmt.Errorf("encrypt %s: %w", d, ErrNotSecured)
	}
	plain := value.PlainOf(v)
	if err := d.Check(plain); err != nil {
		return value.Encrypted{}, err
	}

	pt, err := value.Encode(plain)
	if err != nil {
		return value.Encrypted{}, fmt.Errorf("encrypt %s: %w", d, err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return value.Encrypted{}, fmt.Errorf("encrypt %s: read nonce: %w", d, err)
	}

	var sealed []byte
	err = c.keys.withKey(func(key []byte) error {
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return err
		}
		sealed = aead.Seal(nonce, nonce, pt, associatedData(d))
		return nil
	})
	if err != nil {
		return value.Encrypted{}, fmt.Errorf("encrypt %s: %w", d, err)
	}
	return value.NewEncrypted(plain, sealed), nil
}

// Decrypt opens ciphertext sealed for field d.
func (c *Cipher) Decrypt(d *catalog.Descriptor, ciphertext []byte) (value.Encrypted, error) {
	if !d.IsSecured() {
		return value.Encrypted{}, fmt.Errorf("decrypt %s: %w", d, ErrNotSecured)
	}
	if len(ciphertext) < chacha20poly1305.NonceSizeX {
		return value.Encrypted{}, fmt.Errorf("decrypt %s: ciphertext too short", d)
	}

	var pt []byte
	err := c.keys.withKey(func(key []byte) error {
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return err
		}
		pt, err = open(aead, ciphertext, associatedData(d))
		return err
	})
	if err != nil {
		return value.Encrypted{}, fmt.Errorf("decrypt %s: %w", d, err)
	}

	plain, err := value.Decode(pt)
	if err != nil {
		return value.Encrypted{}, fmt.Errorf("decrypt %s: %w", d, err)
	}
	return value.NewEncrypted(plain, ciphertext), nil
}

// Reencrypt seals the same plain value under a fresh nonce. The result
// differs from e only in ciphertext.
func (c *Cipher) Reencrypt(d *catalog.Descriptor, e value.Encrypted) (value.Encrypted, error) {
	return c.Encrypt(d, e.Plain())
}

func open(aead cipher.AEAD, ciphertext, ad []byte) ([]byte, error) {
	nonce, body := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	return aead.Open(nil, nonce, body, ad)
}

func associatedData(d *catalog.Descriptor) []byte {
	return []byte(d.String())
}
