package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// AEAD identifies an authenticated encryption scheme.
type AEAD uint8

const (
	// AESGCM is AES-256-GCM, the default.
	AESGCM AEAD = iota
	// ChaCha20Poly1305 is the IETF ChaCha20-Poly1305 construction.
	ChaCha20Poly1305
)

var aeadNames = map[AEAD]string{
	AESGCM:           "aes-256-gcm",
	ChaCha20Poly1305: "chacha20-poly1305",
}

// aeadRegistry builds a cipher.AEAD with a NonceSize nonce and TagSize tag.
var aeadRegistry = map[AEAD]func(key []byte) (cipher.AEAD, error){
	AESGCM: func(key []byte) (cipher.AEAD, error) {
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	},
	ChaCha20Poly1305: func(key []byte) (cipher.AEAD, error) {
		return chacha20poly1305.New(key)
	},
}

func (a AEAD) String() string {
	if name, ok := aeadNames[a]; ok {
		return name
	}
	return fmt.Sprintf("aead(%d)", uint8(a))
}

// ParseAEAD resolves an AEAD by name. The empty name selects AESGCM.
func ParseAEAD(name string) (AEAD, error) {
	if name == "" {
		return AESGCM, nil
	}
	for a, n := range aeadNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown cipher %q", name)
}

func (a AEAD) build(op string, key, nonce []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, &Error{Kind: KindKey, Op: op, Err: fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))}
	}
	if len(nonce) != NonceSize {
		return nil, &Error{Kind: KindKey, Op: op, Field: "iv", Err: fmt.Errorf("nonce must be %d bytes, got %d", NonceSize, len(nonce))}
	}
	builder, ok := aeadRegistry[a]
	if !ok {
		return nil, &Error{Kind: KindKey, Op: op, Err: fmt.Errorf("cipher %s not registered", a)}
	}
	aead, err := builder(key)
	if err != nil {
		return nil, &Error{Kind: KindKey, Op: op, Err: err}
	}
	return aead, nil
}

// Encrypt seals plaintext with empty associated data and returns
// ciphertext||tag.
func (a AEAD) Encrypt(plaintext, key, nonce []byte) ([]byte, error) {
	aead, err := a.build("encrypt", key, nonce)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, nil), nil
}

// Decrypt opens ciphertext||tag. Tampered input, a wrong key or a
// truncated ciphertext all fail with ErrAuthentication.
func (a AEAD) Decrypt(ciphertext, key, nonce []byte) ([]byte, error) {
	aead, err := a.build("decrypt", key, nonce)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < TagSize {
		return nil, &Error{Kind: KindAuthentication, Op: "decrypt", Err: ErrInvalidCiphertext}
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, &Error{Kind: KindAuthentication, Op: "decrypt"}
	}
	return plaintext, nil
}

// Encrypt seals plaintext with AES-256-GCM
func Encrypt(plaintext, key, nonce []byte) ([]byte, error) {
	return AESGCM.Encrypt(plaintext, key, nonce)
}

// Decrypt opens an AES-256-GCM ciphertext
func Decrypt(ciphertext, key, nonce []byte) ([]byte, error) {
	return AESGCM.Decrypt(ciphertext, key, nonce)
}
