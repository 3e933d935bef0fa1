// Package secure encrypts the values of secured fields.
//
// The field key lives in a memguard enclave and is only decrypted into
// locked memory for the duration of one seal or open. Values are sealed with
// XChaCha20-Poly1305 using the field's qualified name as associated data, so
// ciphertext copied between fields fails to open.
package secure
