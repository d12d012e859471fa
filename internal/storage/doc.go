// Package storage provides the BBolt database interface for credseal.
//
// Database structure uses four buckets:
//   - config: suite names (kdf, aead), timestamps, store id (unencrypted)
//   - index: entry names, creation times, sizes (unencrypted, for ls/status)
//   - envelopes: envelope JSON per entry, stored exactly as exported
//   - hashes: password verification hash per entry
//
// Nothing in the database is plaintext credential material. The index lets
// ls and status work without a password.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
