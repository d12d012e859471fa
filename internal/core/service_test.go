package core

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/illarion/credseal/internal/crypto"
	"github.com/illarion/credseal/internal/envelope"
)

func TestEncryptCredentials(t *testing.T) {
	svc := NewService()

	env, err := svc.EncryptCredentials("testuser", "testpass")
	if err != nil {
		t.Fatalf("EncryptCredentials failed: %v", err)
	}

	for field, value := range map[string]string{
		envelope.FieldEncryptedUsername: env.EncryptedUsername,
		envelope.FieldEncryptedPassword: env.EncryptedPassword,
		envelope.FieldSalt:              env.Salt,
		envelope.FieldIV:                env.IV,
	} {
		if _, err := base64.StdEncoding.DecodeString(value); err != nil {
			t.Errorf("%s is not valid base64: %v", field, err)
		}
	}

	raw, err := env.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(raw.Salt) != 32 {
		t.Errorf("salt: got %d bytes, want 32", len(raw.Salt))
	}
	if len(raw.IV) != 12 {
		t.Errorf("iv: got %d bytes, want 12", len(raw.IV))
	}
}

func TestEncryptCredentialsRoundTrip(t *testing.T) {
	svc := NewService()

	tests := []struct {
		username string
		password string
	}{
		{"testuser", "testpass"},
		{"", ""},
		{"alice@example.com", "correct horse battery staple"},
		{"用户", "пароль✓"},
		{"user\nwith\nnewlines", "pass\x00word"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.username), func(t *testing.T) {
			env, err := svc.EncryptCredentials(tt.username, tt.password)
			if err != nil {
				t.Fatalf("EncryptCredentials failed: %v", err)
			}

			// Decrypt by hand with the derived key
			raw, err := env.Decode()
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			key := crypto.DeriveKey(tt.password, raw.Salt)
			username, err := crypto.Decrypt(raw.EncryptedUsername, key, raw.IV)
			if err != nil {
				t.Fatalf("Decrypt username failed: %v", err)
			}
			password, err := crypto.Decrypt(raw.EncryptedPassword, key, raw.IV)
			if err != nil {
				t.Fatalf("Decrypt password failed: %v", err)
			}
			if string(username) != tt.username || string(password) != tt.password {
				t.Errorf("got %q/%q, want %q/%q", username, password, tt.username, tt.password)
			}

			creds, err := svc.DecryptCredentials(env, tt.password)
			if err != nil {
				t.Fatalf("DecryptCredentials failed: %v", err)
			}
			if creds.Username != tt.username || creds.Password != tt.password {
				t.Errorf("DecryptCredentials: got %+v", creds)
			}
		})
	}
}

func TestEncryptCredentialsKnownVector(t *testing.T) {
	seed := make([]byte, crypto.SaltSize+crypto.NonceSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	svc := NewService(WithSource(crypto.NewSource(bytes.NewReader(seed))))

	env, err := svc.EncryptCredentials("testuser", "testpass")
	if err != nil {
		t.Fatalf("EncryptCredentials failed: %v", err)
	}

	salt, iv := seed[:crypto.SaltSize], seed[crypto.SaltSize:]
	key := sha256.Sum256(append([]byte("testpass"), salt...))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		t.Fatal(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		t.Fatal(err)
	}

	want := envelope.Envelope{
		EncryptedUsername: base64.StdEncoding.EncodeToString(gcm.Seal(nil, iv, []byte("testuser"), nil)),
		EncryptedPassword: base64.StdEncoding.EncodeToString(gcm.Seal(nil, iv, []byte("testpass"), nil)),
		Salt:              base64.StdEncoding.EncodeToString(salt),
		IV:                base64.StdEncoding.EncodeToString(iv),
	}
	if env != want {
		t.Errorf("envelope mismatch:\n got %+v\nwant %+v", env, want)
	}
}

func TestEncryptCredentialsFreshness(t *testing.T) {
	svc := NewService()

	a, err := svc.EncryptCredentials("testuser", "testpass")
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.EncryptCredentials("testuser", "testpass")
	if err != nil {
		t.Fatal(err)
	}

	if a.Salt == b.Salt {
		t.Error("salts should differ")
	}
	if a.IV == b.IV {
		t.Error("ivs should differ")
	}
	if a.EncryptedUsername == b.EncryptedUsername || a.EncryptedPassword == b.EncryptedPassword {
		t.Error("ciphertexts should differ")
	}
}

func TestDecryptCredentialsTampered(t *testing.T) {
	svc := NewService()
	env, err := svc.EncryptCredentials("testuser", "testpass")
	if err != nil {
		t.Fatal(err)
	}
	raw, err := env.Decode()
	if err != nil {
		t.Fatal(err)
	}

	flip := func(b []byte, bit int) []byte {
		out := append([]byte(nil), b...)
		out[bit/8] ^= 1 << (bit % 8)
		return out
	}

	for bit := 0; bit < len(raw.EncryptedUsername)*8; bit++ {
		tampered := raw
		tampered.EncryptedUsername = flip(raw.EncryptedUsername, bit)
		_, err := svc.DecryptCredentials(envelope.Encode(tampered), "testpass")
		if !errors.Is(err, crypto.ErrAuthentication) {
			t.Fatalf("username bit %d: expected ErrAuthentication, got %v", bit, err)
		}
	}

	for bit := 0; bit < len(raw.EncryptedPassword)*8; bit++ {
		tampered := raw
		tampered.EncryptedPassword = flip(raw.EncryptedPassword, bit)
		_, err := svc.DecryptCredentials(envelope.Encode(tampered), "testpass")
		if !errors.Is(err, crypto.ErrAuthentication) {
			t.Fatalf("password bit %d: expected ErrAuthentication, got %v", bit, err)
		}
		var cerr *crypto.Error
		if !errors.As(err, &cerr) || cerr.Field != envelope.FieldEncryptedPassword {
			t.Fatalf("password bit %d: expected field %s, got %v", bit, envelope.FieldEncryptedPassword, err)
		}
	}
}

func TestDecryptCredentialsErrors(t *testing.T) {
	svc := NewService()
	env, err := svc.EncryptCredentials("testuser", "testpass")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.DecryptCredentials(env, "wrongpass"); !errors.Is(err, crypto.ErrAuthentication) {
		t.Errorf("wrong password: expected ErrAuthentication, got %v", err)
	}

	bad := env
	bad.IV = "AAAA"
	if _, err := svc.DecryptCredentials(bad, "testpass"); !errors.Is(err, crypto.ErrDecode) {
		t.Errorf("short iv: expected ErrDecode, got %v", err)
	}

	bad = env
	bad.Salt = "%%%"
	if _, err := svc.DecryptCredentials(bad, "testpass"); !errors.Is(err, crypto.ErrDecode) {
		t.Errorf("bad salt: expected ErrDecode, got %v", err)
	}

	// Decrypting with a different suite than the one used to seal fails authentication
	other := NewService(WithAEAD(crypto.ChaCha20Poly1305))
	if _, err := other.DecryptCredentials(env, "testpass"); !errors.Is(err, crypto.ErrAuthentication) {
		t.Errorf("suite mismatch: expected ErrAuthentication, got %v", err)
	}
}

func TestEncryptCredentialsError(t *testing.T) {
	svc := NewService(WithKDF(crypto.KDF(99)))

	_, err := svc.EncryptCredentials("testuser", "testpass")
	if !errors.Is(err, crypto.ErrEncrypt) {
		t.Fatalf("expected ErrEncrypt, got %v", err)
	}
	if !errors.Is(err, crypto.ErrKey) {
		t.Errorf("expected wrapped ErrKey, got %v", err)
	}
	if crypto.KindOf(err) != crypto.KindEncrypt {
		t.Errorf("KindOf: got %v", crypto.KindOf(err))
	}
}

func TestSuitesRoundTrip(t *testing.T) {
	for _, kdf := range []crypto.KDF{crypto.KDFSHA256, crypto.KDFPBKDF2, crypto.KDFArgon2ID, crypto.KDFScrypt} {
		for _, aead := range []crypto.AEAD{crypto.AESGCM, crypto.ChaCha20Poly1305} {
			suite := crypto.Suite{KDF: kdf, AEAD: aead}
			t.Run(suite.String(), func(t *testing.T) {
				svc := NewService(WithSuite(suite))
				env, err := svc.EncryptCredentials("testuser", "testpass")
				if err != nil {
					t.Fatalf("EncryptCredentials failed: %v", err)
				}
				creds, err := svc.DecryptCredentials(env, "testpass")
				if err != nil {
					t.Fatalf("DecryptCredentials failed: %v", err)
				}
				if creds.Username != "testuser" || creds.Password != "testpass" {
					t.Errorf("got %+v", creds)
				}
			})
		}
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	svc := NewService()

	hash := svc.HashPassword("testpass")
	sum := sha256.Sum256([]byte("testpass"))
	if hash != base64.StdEncoding.EncodeToString(sum[:]) {
		t.Errorf("unexpected hash %s", hash)
	}
	if len(hash) != 44 {
		t.Errorf("hash length: got %d, want 44", len(hash))
	}
	if hash != svc.HashPassword("testpass") {
		t.Error("hash should be deterministic")
	}

	if !svc.VerifyPassword("testpass", hash) {
		t.Error("testpass should verify")
	}
	if svc.VerifyPassword("wrongpass", hash) {
		t.Error("wrongpass should not verify")
	}
	if svc.VerifyPassword("testpass", "garbage") {
		t.Error("malformed hash should not verify")
	}
}

func TestServiceGenerateRandomString(t *testing.T) {
	svc := NewService()
	if s := svc.GenerateRandomString(0); s != "" {
		t.Errorf("got %q, want empty", s)
	}
	if s := svc.GenerateRandomString(24); len(s) != 24 {
		t.Errorf("got length %d, want 24", len(s))
	}
}

func TestEncryptBatch(t *testing.T) {
	svc := NewService()

	creds := make([]Credentials, 50)
	for i := range creds {
		creds[i] = Credentials{Username: fmt.Sprintf("user%d", i), Password: fmt.Sprintf("pass%d", i)}
	}

	envs, err := svc.EncryptBatch(context.Background(), creds, 4)
	if err != nil {
		t.Fatalf("EncryptBatch failed: %v", err)
	}
	if len(envs) != len(creds) {
		t.Fatalf("got %d envelopes, want %d", len(envs), len(creds))
	}

	for i, env := range envs {
		got, err := svc.DecryptCredentials(env, creds[i].Password)
		if err != nil {
			t.Fatalf("entry %d: %v", i, err)
		}
		if got != creds[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, got, creds[i])
		}
	}
}

func TestEncryptBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService().EncryptBatch(ctx, []Credentials{{"a", "b"}, {"c", "d"}}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEncryptBatchError(t *testing.T) {
	svc := NewService(WithKDF(crypto.KDF(99)))
	_, err := svc.EncryptBatch(context.Background(), []Credentials{{"a", "b"}}, 0)
	if !errors.Is(err, crypto.ErrEncrypt) {
		t.Errorf("expected ErrEncrypt, got %v", err)
	}
}

func TestServiceConcurrentUse(t *testing.T) {
	svc := NewService()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, pass := fmt.Sprintf("u%d", i), fmt.Sprintf("p%d", i)
			env, err := svc.EncryptCredentials(user, pass)
			if err != nil {
				errs <- err
				return
			}
			creds, err := svc.DecryptCredentials(env, pass)
			if err != nil {
				errs <- err
				return
			}
			if creds.Username != user {
				errs <- fmt.Errorf("got %s, want %s", creds.Username, user)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func BenchmarkEncryptCredentials(b *testing.B) {
	svc := NewService()
	for i := 0; i < b.N; i++ {
		if _, err := svc.EncryptCredentials("testuser", "testpass"); err != nil {
			b.Fatal(err)
		}
	}
}
