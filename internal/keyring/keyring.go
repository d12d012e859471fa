// Package keyring caches per-entry passwords in the OS keyring.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "credseal"

// ErrNotFound is returned when no password is cached for an entry.
var ErrNotFound = keyring.ErrNotFound

func account(storeID, name string) string {
	return storeID + "/" + name
}

// SavePassword stores the password of an entry
func SavePassword(storeID, name, password string) error {
	return keyring.Set(serviceName, account(storeID, name), password)
}

// GetPassword retrieves the password of an entry
func GetPassword(storeID, name string) (string, error) {
	return keyring.Get(serviceName, account(storeID, name))
}

// DeletePassword removes the password of an entry. A missing entry is not
// an error.
func DeletePassword(storeID, name string) error {
	err := keyring.Delete(serviceName, account(storeID, name))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// HasPassword checks if a password is cached for an entry
func HasPassword(storeID, name string) bool {
	_, err := keyring.Get(serviceName, account(storeID, name))
	return err == nil
}
