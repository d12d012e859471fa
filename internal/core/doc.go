// Package core provides the credseal operations.
//
// Service is the credential-protection routine itself:
//   - EncryptCredentials: seal a username/password pair into an envelope
//   - DecryptCredentials: recover the pair with the password
//   - HashPassword/VerifyPassword: one-way verification hash
//   - GenerateRandomString: alphanumeric random strings
//   - EncryptBatch: seal many pairs on a bounded worker group
//
// Store keeps named envelopes in a local bbolt file:
//   - Init: create a store bound to one key derivation and cipher suite
//   - Seal/Open/Verify: write, decrypt and check entries
//   - Remove/List/Status/Diff: manage entries without passwords
//   - Export/Import: move envelopes in and out as JSON or YAML files
//   - SealBatch: seal a CSV of credentials in one go
package core
