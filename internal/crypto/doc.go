// Package crypto provides the cryptographic primitives behind credseal.
//
// Encryption defaults to AES-256-GCM with:
//   - 32-byte key derived from the password and a 32-byte random salt
//   - 12-byte random nonce, shared by both fields of one envelope
//   - empty associated data, 16-byte authentication tag
//
// The default key derivation is a single SHA-256 over password||salt so that
// envelopes stay readable by existing decryptors. It has no work factor;
// stores that do not need that compatibility can select PBKDF2, argon2id or
// scrypt instead. ChaCha20-Poly1305 is available as an alternative cipher.
//
// Password hashes are the base64 of SHA-256 over the password and are
// compared in constant time.
//
// All randomness comes from Default, a shared Source over crypto/rand. A
// failing random source panics.
//
// Failures are *Error values of a fixed set of kinds; match them with
// errors.Is against ErrKey, ErrDecode, ErrAuthentication, ErrEncrypt and
// ErrSerialization.
package crypto
