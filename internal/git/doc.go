// Package git provides git integration status checks for credseal.
//
// The store holds envelopes that anyone with a copy can attack offline, and
// with the default SHA-256 key derivation that attack is cheap. Status
// therefore reports whether the store file is tracked or ignored by git.
package git
