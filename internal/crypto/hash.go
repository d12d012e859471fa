package crypto

import (
	"crypto/sha256"
	"encoding/base64"
)

// HashPassword returns the standard base64 encoding of SHA-256 over the
// UTF-8 bytes of password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyPassword reports whether hash is the encoded hash of password.
// The full encoded strings are compared in constant time; a malformed
// hash is just a mismatch.
func VerifyPassword(password, hash string) bool {
	computed := HashPassword(password)
	return ConstantTimeCompare([]byte(computed), []byte(hash))
}
