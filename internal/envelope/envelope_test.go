package envelope

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/illarion/credseal/internal/crypto"
)

func sampleRaw() Raw {
	return Raw{
		EncryptedUsername: []byte("username-ciphertext-with-tag-16b"),
		EncryptedPassword: []byte("password-ciphertext-with-tag-16b"),
		Salt:              bytes.Repeat([]byte{0xab}, crypto.SaltSize),
		IV:                bytes.Repeat([]byte{0xcd}, crypto.NonceSize),
	}
}

func TestEncodeDecode(t *testing.T) {
	raw := sampleRaw()
	env := Encode(raw)

	if len(env.Salt) != 44 {
		t.Errorf("encoded salt length: got %d, want 44", len(env.Salt))
	}
	if len(env.IV) != 16 {
		t.Errorf("encoded iv length: got %d, want 16", len(env.IV))
	}

	decoded, err := env.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(decoded.EncryptedUsername, raw.EncryptedUsername) ||
		!bytes.Equal(decoded.EncryptedPassword, raw.EncryptedPassword) ||
		!bytes.Equal(decoded.Salt, raw.Salt) ||
		!bytes.Equal(decoded.IV, raw.IV) {
		t.Error("decoded envelope does not match original")
	}
}

func TestDecodeErrors(t *testing.T) {
	good := Encode(sampleRaw())

	tests := []struct {
		name   string
		mutate func(*Envelope)
		field  string
	}{
		{"bad username base64", func(e *Envelope) { e.EncryptedUsername = "!!!" }, FieldEncryptedUsername},
		{"bad password base64", func(e *Envelope) { e.EncryptedPassword = "abc" }, FieldEncryptedPassword},
		{"url-safe salt", func(e *Envelope) { e.Salt = strings.Repeat("_", 43) + "=" }, FieldSalt},
		{"short salt", func(e *Envelope) { e.Salt = Encode(Raw{Salt: make([]byte, 16)}).Salt }, FieldSalt},
		{"long iv", func(e *Envelope) { e.IV = Encode(Raw{IV: make([]byte, 16)}).IV }, FieldIV},
		{"empty iv", func(e *Envelope) { e.IV = "" }, FieldIV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := good
			tt.mutate(&env)

			_, err := env.Decode()
			if !errors.Is(err, crypto.ErrDecode) {
				t.Fatalf("expected ErrDecode, got %v", err)
			}
			var cerr *crypto.Error
			if !errors.As(err, &cerr) || cerr.Field != tt.field {
				t.Errorf("expected field %q, got %+v", tt.field, cerr)
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	env := Encode(sampleRaw())

	data, err := Marshal(env, FormatJSON)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, field := range []string{FieldEncryptedUsername, FieldEncryptedPassword, FieldSalt, FieldIV} {
		if !bytes.Contains(data, []byte(`"`+field+`"`)) {
			t.Errorf("JSON output missing field %s:\n%s", field, data)
		}
	}

	parsed, err := Unmarshal(data, FormatJSON)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if parsed != env {
		t.Errorf("got %+v, want %+v", parsed, env)
	}
}

func TestMarshalYAML(t *testing.T) {
	env := Encode(sampleRaw())

	data, err := Marshal(env, FormatYAML)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Contains(data, []byte("encrypted_username:")) {
		t.Errorf("YAML output missing field:\n%s", data)
	}

	parsed, err := Unmarshal(data, FormatYAML)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if parsed != env {
		t.Errorf("got %+v, want %+v", parsed, env)
	}

	if _, err := Unmarshal([]byte("salt: abc\nextra: 1\n"), FormatYAML); !errors.Is(err, crypto.ErrSerialization) {
		t.Errorf("unknown YAML key: expected ErrSerialization, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	env := Encode(sampleRaw())
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"array", `[]`},
		{"missing iv", `{"encrypted_username":"","encrypted_password":"","salt":"` + env.Salt + `"}`},
		{"extra field", `{"encrypted_username":"","encrypted_password":"","salt":"` + env.Salt + `","iv":"` + env.IV + `","kdf":"sha256"}`},
		{"number field", `{"encrypted_username":1,"encrypted_password":"","salt":"` + env.Salt + `","iv":"` + env.IV + `"}`},
		{"short salt", `{"encrypted_username":"","encrypted_password":"","salt":"AAAA","iv":"` + env.IV + `"}`},
		{"non base64 ciphertext", `{"encrypted_username":"a-b","encrypted_password":"","salt":"` + env.Salt + `","iv":"` + env.IV + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tt.doc), FormatJSON); !errors.Is(err, crypto.ErrSerialization) {
				t.Errorf("expected ErrSerialization, got %v", err)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"toml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
