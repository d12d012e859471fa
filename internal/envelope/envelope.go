package envelope

import (
	"encoding/base64"
	"fmt"

	"github.com/illarion/credseal/internal/crypto"
)

// Field names as they appear on the wire
const (
	FieldEncryptedUsername = "encrypted_username"
	FieldEncryptedPassword = "encrypted_password"
	FieldSalt              = "salt"
	FieldIV                = "iv"
)

// Envelope is the encrypted credential package in its text form.
type Envelope struct {
	EncryptedUsername string `json:"encrypted_username" yaml:"encrypted_username"`
	EncryptedPassword string `json:"encrypted_password" yaml:"encrypted_password"`
	Salt              string `json:"salt" yaml:"salt"`
	IV                string `json:"iv" yaml:"iv"`
}

// Raw is the decoded form of an Envelope
type Raw struct {
	EncryptedUsername []byte
	EncryptedPassword []byte
	Salt              []byte
	IV                []byte
}

// Encode base64-encodes each field of raw independently.
func Encode(raw Raw) Envelope {
	enc := base64.StdEncoding
	return Envelope{
		EncryptedUsername: enc.EncodeToString(raw.EncryptedUsername),
		EncryptedPassword: enc.EncodeToString(raw.EncryptedPassword),
		Salt:              enc.EncodeToString(raw.Salt),
		IV:                enc.EncodeToString(raw.IV),
	}
}

// Decode reverses Encode. It fails with crypto.ErrDecode on malformed
// base64 or when salt or iv do not have their fixed sizes.
func (e Envelope) Decode() (Raw, error) {
	var (
		raw Raw
		err error
	)

	if raw.EncryptedUsername, err = decodeField(FieldEncryptedUsername, e.EncryptedUsername, -1); err != nil {
		return Raw{}, err
	}
	if raw.EncryptedPassword, err = decodeField(FieldEncryptedPassword, e.EncryptedPassword, -1); err != nil {
		return Raw{}, err
	}
	if raw.Salt, err = decodeField(FieldSalt, e.Salt, crypto.SaltSize); err != nil {
		return Raw{}, err
	}
	if raw.IV, err = decodeField(FieldIV, e.IV, crypto.NonceSize); err != nil {
		return Raw{}, err
	}

	return raw, nil
}

// decodeField decodes one field; size < 0 accepts any length.
func decodeField(field, value string, size int) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, &crypto.Error{Kind: crypto.KindDecode, Op: "decode", Field: field, Err: err}
	}
	if size >= 0 && len(b) != size {
		return nil, &crypto.Error{
			Kind:  crypto.KindDecode,
			Op:    "decode",
			Field: field,
			Err:   fmt.Errorf("expected %d bytes, got %d", size, len(b)),
		}
	}
	return b, nil
}
