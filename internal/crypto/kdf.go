package crypto

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// KDF identifies a key derivation function.
type KDF uint8

const (
	// KDFSHA256 is a single SHA-256 over password||salt. It has no work
	// factor and is kept as the default for compatibility with existing
	// envelopes.
	KDFSHA256 KDF = iota
	// KDFPBKDF2 is PBKDF2-HMAC-SHA256.
	KDFPBKDF2
	// KDFArgon2ID is argon2id.
	KDFArgon2ID
	// KDFScrypt is scrypt.
	KDFScrypt
)

const (
	DefaultIters = 210000 // PBKDF2 iterations (OWASP minimum)

	argon2Iterations = 4
	argon2Memory     = 64 * 1024
	argon2Threads    = 4

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var kdfNames = map[KDF]string{
	KDFSHA256:   "sha256",
	KDFPBKDF2:   "pbkdf2-sha256",
	KDFArgon2ID: "argon2id",
	KDFScrypt:   "scrypt",
}

// kdfRegistry maps each KDF to its implementation. Every entry returns
// KeySize bytes.
var kdfRegistry = map[KDF]func(password, salt []byte) ([]byte, error){
	KDFSHA256: func(password, salt []byte) ([]byte, error) {
		h := sha256.New()
		h.Write(password)
		h.Write(salt)
		return h.Sum(nil), nil
	},
	KDFPBKDF2: func(password, salt []byte) ([]byte, error) {
		return pbkdf2.Key(password, salt, DefaultIters, KeySize, sha256.New), nil
	},
	KDFArgon2ID: func(password, salt []byte) ([]byte, error) {
		return argon2.IDKey(password, salt, argon2Iterations, argon2Memory, argon2Threads, KeySize), nil
	},
	KDFScrypt: func(password, salt []byte) ([]byte, error) {
		return scrypt.Key(password, salt, scryptN, scryptR, scryptP, KeySize)
	},
}

func (k KDF) String() string {
	if name, ok := kdfNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kdf(%d)", uint8(k))
}

// ParseKDF resolves a KDF by name. The empty name selects KDFSHA256.
func ParseKDF(name string) (KDF, error) {
	if name == "" {
		return KDFSHA256, nil
	}
	for k, n := range kdfNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown key derivation function %q", name)
}

// Derive maps (password, salt) to a KeySize-byte key.
func (k KDF) Derive(password string, salt []byte) ([]byte, error) {
	fn, ok := kdfRegistry[k]
	if !ok {
		return nil, &Error{Kind: KindKey, Op: "derive", Err: fmt.Errorf("key derivation %s not registered", k)}
	}
	key, err := fn([]byte(password), salt)
	if err != nil {
		return nil, &Error{Kind: KindKey, Op: "derive", Err: err}
	}
	return key, nil
}

// DeriveKey derives the default SHA-256 key over the UTF-8 password bytes
// followed by the raw salt bytes.
func DeriveKey(password string, salt []byte) []byte {
	key, _ := KDFSHA256.Derive(password, salt)
	return key
}
