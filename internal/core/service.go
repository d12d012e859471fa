package core

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/illarion/credseal/internal/crypto"
	"github.com/illarion/credseal/internal/envelope"
)

// Credentials is a plaintext username/password pair. It is never
// persisted.
type Credentials struct {
	Username string
	Password string
}

// Service turns credentials into envelopes and password hashes. It holds
// no mutable state and is safe for concurrent use.
type Service struct {
	source *crypto.Source
	suite  crypto.Suite
}

// Option configures a Service
type Option func(*Service)

// WithSource replaces the random source, mainly for tests.
func WithSource(src *crypto.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithKDF selects the key derivation function.
func WithKDF(kdf crypto.KDF) Option {
	return func(s *Service) { s.suite.KDF = kdf }
}

// WithAEAD selects the cipher.
func WithAEAD(aead crypto.AEAD) Option {
	return func(s *Service) { s.suite.AEAD = aead }
}

// WithSuite selects both the key derivation function and the cipher.
func WithSuite(suite crypto.Suite) Option {
	return func(s *Service) { s.suite = suite }
}

// NewService creates a Service. Without options it uses the shared random
// source, SHA-256 key derivation and AES-256-GCM.
func NewService(opts ...Option) *Service {
	s := &Service{
		source: crypto.Default,
		suite:  crypto.DefaultSuite,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suite returns the configured suite
func (s *Service) Suite() crypto.Suite {
	return s.suite
}

// EncryptCredentials encrypts username and password under a key derived
// from password and a fresh salt. Both fields share one fresh iv.
func (s *Service) EncryptCredentials(username, password string) (envelope.Envelope, error) {
	const op = "encrypt_credentials"

	salt := s.source.GenerateSalt()
	iv := s.source.GenerateIV()

	key, err := s.suite.KDF.Derive(password, salt)
	if err != nil {
		return envelope.Envelope{}, &crypto.Error{Kind: crypto.KindEncrypt, Op: op, Err: err}
	}
	defer crypto.ClearBytes(key)

	encUsername, err := s.suite.AEAD.Encrypt([]byte(username), key, iv)
	if err != nil {
		return envelope.Envelope{}, &crypto.Error{Kind: crypto.KindEncrypt, Op: op, Field: envelope.FieldEncryptedUsername, Err: err}
	}

	// Same key and iv as the username: one nonce per envelope.
	encPassword, err := s.suite.AEAD.Encrypt([]byte(password), key, iv)
	if err != nil {
		return envelope.Envelope{}, &crypto.Error{Kind: crypto.KindEncrypt, Op: op, Field: envelope.FieldEncryptedPassword, Err: err}
	}

	return envelope.Encode(envelope.Raw{
		EncryptedUsername: encUsername,
		EncryptedPassword: encPassword,
		Salt:              salt,
		IV:                iv,
	}), nil
}

// DecryptCredentials recovers the credentials sealed in env using the
// password they were sealed with. A wrong password fails with
// crypto.ErrAuthentication; malformed fields with crypto.ErrDecode.
func (s *Service) DecryptCredentials(env envelope.Envelope, password string) (Credentials, error) {
	raw, err := env.Decode()
	if err != nil {
		return Credentials{}, err
	}

	key, err := s.suite.KDF.Derive(password, raw.Salt)
	if err != nil {
		return Credentials{}, err
	}
	defer crypto.ClearBytes(key)

	username, err := s.suite.AEAD.Decrypt(raw.EncryptedUsername, key, raw.IV)
	if err != nil {
		return Credentials{}, withField(err, envelope.FieldEncryptedUsername)
	}
	pass, err := s.suite.AEAD.Decrypt(raw.EncryptedPassword, key, raw.IV)
	if err != nil {
		return Credentials{}, withField(err, envelope.FieldEncryptedPassword)
	}

	return Credentials{Username: string(username), Password: string(pass)}, nil
}

// withField tags a cipher error with the envelope field it came from.
func withField(err error, field string) error {
	if cerr, ok := err.(*crypto.Error); ok && cerr.Field == "" {
		tagged := *cerr
		tagged.Field = field
		return &tagged
	}
	return err
}

// HashPassword returns the verification hash of password
func (s *Service) HashPassword(password string) string {
	return crypto.HashPassword(password)
}

// VerifyPassword reports whether hash was produced from password
func (s *Service) VerifyPassword(password, hash string) bool {
	return crypto.VerifyPassword(password, hash)
}

// GenerateRandomString returns length alphanumeric characters
func (s *Service) GenerateRandomString(length int) string {
	return s.source.GenerateRandomString(length)
}

// EncryptBatch encrypts each pair concurrently, at most parallel at a
// time. Results keep the input order. The first failure cancels the rest.
func (s *Service) EncryptBatch(ctx context.Context, creds []Credentials, parallel int) ([]envelope.Envelope, error) {
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	out := make([]envelope.Envelope, len(creds))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(parallel)

	for i, c := range creds {
		if err := gctx.Err(); err != nil {
			break
		}
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			env, err := s.EncryptCredentials(c.Username, c.Password)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			out[i] = env
			klog.V(4).InfoS("encrypted batch entry", "index", i)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
