package crypto

import (
	"crypto/subtle"
	"errors"
)

const (
	SaltSize  = 32 // Salt size in bytes
	KeySize   = 32 // AES-256 key size
	NonceSize = 12 // GCM nonce size
	TagSize   = 16 // GCM authentication tag size
)

var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// Suite is a key derivation function paired with a cipher.
type Suite struct {
	KDF  KDF
	AEAD AEAD
}

// DefaultSuite is SHA-256 key derivation with AES-256-GCM.
var DefaultSuite = Suite{KDF: KDFSHA256, AEAD: AESGCM}

func (s Suite) String() string {
	return s.KDF.String() + "+" + s.AEAD.String()
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
