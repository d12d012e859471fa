// Package envelope defines the encrypted credential envelope and its text
// encodings.
//
// An envelope is a flat record of four standard-base64 strings:
//   - encrypted_username: ciphertext||tag of the username
//   - encrypted_password: ciphertext||tag of the password
//   - salt: 32 raw bytes used for key derivation
//   - iv: 12 raw bytes used as the nonce for both ciphertexts
//
// Envelopes serialize as JSON (the interchange form) or YAML. JSON input is
// checked against an embedded JSON Schema before it is decoded.
package envelope
