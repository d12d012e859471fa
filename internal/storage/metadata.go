package storage

import (
	"time"
)

// Entry is the unencrypted index record of a stored envelope. It never
// holds plaintext credentials.
type Entry struct {
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	KDF     string    `json:"kdf"`
	AEAD    string    `json:"aead"`
	HasHash bool      `json:"hasHash"`
	Size    int       `json:"size"`
}

// NewEntry creates an index record for an envelope of the given JSON size
func NewEntry(name, kdf, aead string, size int) Entry {
	if size < 0 {
		size = 0
	}
	return Entry{
		Name:    name,
		Created: time.Now(),
		KDF:     kdf,
		AEAD:    aead,
		Size:    size,
	}
}

// Names returns the entry names in order
func Names(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// TotalSize sums the envelope sizes
func TotalSize(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		total += int64(e.Size)
	}
	return total
}
