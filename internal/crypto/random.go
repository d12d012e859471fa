package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxUnbiased is the largest multiple of len(alphanumeric) that fits in a
// byte; random bytes at or above it are rejected.
const maxUnbiased = 256 - 256%len(alphanumeric)

// Source draws random bytes from an underlying reader. A read failure
// means the process cannot produce randomness and is fatal.
type Source struct {
	r io.Reader
}

// Default is the process-wide source backed by crypto/rand, safe for
// concurrent use.
var Default = NewSource(rand.Reader)

// NewSource creates a source over r. Passing nil selects crypto/rand.
func NewSource(r io.Reader) *Source {
	if r == nil {
		r = rand.Reader
	}
	return &Source{r: r}
}

// Read fills b with random bytes
func (s *Source) Read(b []byte) {
	if _, err := io.ReadFull(s.r, b); err != nil {
		panic(fmt.Sprintf("crypto: random source failed: %v", err))
	}
}

// Bytes returns n random bytes
func (s *Source) Bytes(n int) []byte {
	b := make([]byte, n)
	s.Read(b)
	return b
}

// GenerateSalt returns SaltSize fresh random bytes
func (s *Source) GenerateSalt() []byte {
	return s.Bytes(SaltSize)
}

// GenerateIV returns NonceSize fresh random bytes
func (s *Source) GenerateIV() []byte {
	return s.Bytes(NonceSize)
}

// GenerateRandomString returns length characters drawn uniformly from
// [a-zA-Z0-9]. Non-positive lengths yield an empty string.
func (s *Source) GenerateRandomString(length int) string {
	if length <= 0 {
		return ""
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)
	for len(out) < length {
		s.Read(buf)
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, alphanumeric[int(b)%len(alphanumeric)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out)
}

// GenerateSalt draws a salt from Default
func GenerateSalt() []byte {
	return Default.GenerateSalt()
}

// GenerateIV draws a nonce from Default
func GenerateIV() []byte {
	return Default.GenerateIV()
}

// GenerateRandomString draws an alphanumeric string from Default
func GenerateRandomString(length int) string {
	return Default.GenerateRandomString(length)
}
