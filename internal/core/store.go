package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/illarion/credseal/internal/crypto"
	"github.com/illarion/credseal/internal/envelope"
	"github.com/illarion/credseal/internal/git"
	"github.com/illarion/credseal/internal/security"
	"github.com/illarion/credseal/internal/storage"
)

const FilePermSecure = 0600 // File: owner rw only

var (
	ErrNotInitialized = errors.New("credseal store not initialized")
	ErrAlreadyExists  = errors.New("credseal store already exists")
	ErrWrongPassword  = errors.New("wrong password")
	ErrNoHash         = errors.New("no verification hash stored")
	ErrNoEntries      = errors.New("no matching entries")
	ErrEntryExists    = storage.ErrEntryExists
	ErrEntryNotFound  = storage.ErrEntryNotFound
)

// Store keeps named envelopes in a bbolt file. Each entry is sealed with
// its own password; the store itself has none.
type Store struct {
	path    string
	workDir string
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithWorkDir sets the directory that export and import paths are
// confined to. It defaults to the current directory.
func WithWorkDir(dir string) StoreOption {
	return func(s *Store) { s.workDir = dir }
}

// NewStore creates a Store backed by the file at path
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{path: path, workDir: "."}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the store file path
func (s *Store) Path() string {
	return s.path
}

// Init creates a new store file using suite for every entry.
func (s *Store) Init(suite crypto.Suite) error {
	if _, err := os.Stat(s.path); err == nil {
		return ErrAlreadyExists
	}

	db, err := storage.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	if err := db.Initialize(suite.KDF.String(), suite.AEAD.String()); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if _, err := db.GetOrCreateStoreID(); err != nil {
		return fmt.Errorf("failed to create store id: %w", err)
	}

	klog.V(2).InfoS("initialized store", "path", s.path, "suite", suite.String())
	return nil
}

// open opens the database and builds a Service for its suite. The caller
// closes the database.
func (s *Store) open() (*storage.Storage, *Service, error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, nil, ErrNotInitialized
	}

	db, err := storage.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	initialized, err := db.IsInitialized()
	if err != nil || !initialized {
		db.Close()
		return nil, nil, ErrNotInitialized
	}

	suite, err := readSuite(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, NewService(WithSuite(suite)), nil
}

func readSuite(db *storage.Storage) (crypto.Suite, error) {
	kdfName, aeadName, err := db.GetSuite()
	if err != nil {
		return crypto.Suite{}, fmt.Errorf("failed to read suite: %w", err)
	}
	kdf, err := crypto.ParseKDF(kdfName)
	if err != nil {
		return crypto.Suite{}, err
	}
	aead, err := crypto.ParseAEAD(aeadName)
	if err != nil {
		return crypto.Suite{}, err
	}
	return crypto.Suite{KDF: kdf, AEAD: aead}, nil
}

// Suite returns the suite recorded in the store
func (s *Store) Suite() (crypto.Suite, error) {
	db, _, err := s.open()
	if err != nil {
		return crypto.Suite{}, err
	}
	defer db.Close()
	return readSuite(db)
}

// StoreID returns the store's keyring scope
func (s *Store) StoreID() (string, error) {
	db, _, err := s.open()
	if err != nil {
		return "", err
	}
	defer db.Close()
	return db.GetOrCreateStoreID()
}

// Seal encrypts creds and stores the envelope and password hash under
// name. An existing entry is replaced only when overwrite is set. The
// returned name is the cleaned form the entry is stored under.
func (s *Store) Seal(ctx context.Context, name string, creds Credentials, overwrite bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name, err := security.ValidateName(name)
	if err != nil {
		return "", err
	}

	db, svc, err := s.open()
	if err != nil {
		return "", err
	}
	defer db.Close()

	env, err := svc.EncryptCredentials(creds.Username, creds.Password)
	if err != nil {
		return "", err
	}

	record, err := newRecord(svc, name, env, svc.HashPassword(creds.Password))
	if err != nil {
		return "", err
	}
	if err := db.PutEntry(record.Entry, record.Envelope, record.Hash, overwrite); err != nil {
		return "", err
	}

	klog.V(2).InfoS("sealed entry", "name", name, "size", record.Entry.Size)
	return name, nil
}

func newRecord(svc *Service, name string, env envelope.Envelope, hash string) (storage.Record, error) {
	data, err := envelope.Marshal(env, envelope.FormatJSON)
	if err != nil {
		return storage.Record{}, err
	}

	suite := svc.Suite()
	return storage.Record{
		Entry:    storage.NewEntry(name, suite.KDF.String(), suite.AEAD.String(), len(data)),
		Envelope: data,
		Hash:     hash,
	}, nil
}

// Envelope returns the stored envelope of an entry
func (s *Store) Envelope(name string) (envelope.Envelope, error) {
	name, err := security.ValidateName(name)
	if err != nil {
		return envelope.Envelope{}, err
	}

	db, _, err := s.open()
	if err != nil {
		return envelope.Envelope{}, err
	}
	defer db.Close()
	return readEnvelope(db, name)
}

func readEnvelope(db *storage.Storage, name string) (envelope.Envelope, error) {
	data, err := db.GetEnvelope(name)
	if err != nil {
		return envelope.Envelope{}, err
	}
	return envelope.Unmarshal(data, envelope.FormatJSON)
}

// Open decrypts the entry name with password.
func (s *Store) Open(ctx context.Context, name, password string) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	name, err := security.ValidateName(name)
	if err != nil {
		return Credentials{}, err
	}

	db, svc, err := s.open()
	if err != nil {
		return Credentials{}, err
	}
	defer db.Close()

	env, err := readEnvelope(db, name)
	if err != nil {
		return Credentials{}, err
	}

	creds, err := svc.DecryptCredentials(env, password)
	if errors.Is(err, crypto.ErrAuthentication) {
		return Credentials{}, fmt.Errorf("%w: %w", ErrWrongPassword, err)
	}
	return creds, err
}

// Verify checks password against the stored hash of an entry without
// decrypting it.
func (s *Store) Verify(name, password string) (bool, error) {
	name, err := security.ValidateName(name)
	if err != nil {
		return false, err
	}

	db, svc, err := s.open()
	if err != nil {
		return false, err
	}
	defer db.Close()

	if _, err := db.GetEntry(name); err != nil {
		return false, err
	}
	hash, err := db.GetHash(name)
	if errors.Is(err, storage.ErrEntryNotFound) {
		return false, ErrNoHash
	}
	if err != nil {
		return false, err
	}
	return svc.VerifyPassword(password, hash), nil
}

// Remove deletes every entry matching one of patterns (path.Match
// syntax) and returns the removed names.
func (s *Store) Remove(ctx context.Context, patterns []string) ([]string, error) {
	db, _, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	entries, err := db.ListEntries()
	if err != nil {
		return nil, err
	}

	names := filterNames(storage.Names(entries), patterns)
	if len(names) == 0 {
		return nil, ErrNoEntries
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := db.RemoveEntry(name); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		klog.V(2).InfoS("removed entry", "name", name)
	}
	return names, nil
}

func filterNames(names, patterns []string) []string {
	cleaned := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if clean, err := security.ValidateName(pattern); err == nil {
			pattern = clean
		}
		cleaned = append(cleaned, pattern)
	}

	var matched []string
	for _, name := range names {
		for _, pattern := range cleaned {
			if ok, _ := path.Match(pattern, name); ok || pattern == name {
				matched = append(matched, name)
				break
			}
		}
	}
	return matched
}

// List returns the index entries (no password required)
func (s *Store) List(ctx context.Context) ([]storage.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, _, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.ListEntries()
}

// StatusInfo contains status information
type StatusInfo struct {
	Entries     []storage.Entry
	EntryCount  int
	HashedCount int
	TotalSize   int64
	Suite       crypto.Suite
	Created     time.Time
	Modified    time.Time
	GitStatus   *git.GitStatus
}

// Status returns the current status (no password required)
func (s *Store) Status(ctx context.Context) (*StatusInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, svc, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	entries, err := db.ListEntries()
	if err != nil {
		return nil, err
	}

	info := &StatusInfo{
		Entries:    entries,
		EntryCount: len(entries),
		TotalSize:  storage.TotalSize(entries),
		Suite:      svc.Suite(),
	}
	for _, e := range entries {
		if e.HasHash {
			info.HashedCount++
		}
	}

	if info.Created, err = db.GetCreated(); err != nil {
		return nil, err
	}
	if info.Modified, err = db.GetModified(); err != nil {
		return nil, err
	}

	dir, file := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}
	info.GitStatus = git.CheckGitIntegration(dir, file, info.Suite.KDF == crypto.KDFSHA256)

	return info, nil
}

// Diff returns a unified diff between the envelope JSON of two entries,
// or an empty string if they are identical. No password is needed.
func (s *Store) Diff(ctx context.Context, a, b string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var err error
	if a, err = security.ValidateName(a); err != nil {
		return "", err
	}
	if b, err = security.ValidateName(b); err != nil {
		return "", err
	}

	db, _, err := s.open()
	if err != nil {
		return "", err
	}
	defer db.Close()

	dataA, err := db.GetEnvelope(a)
	if err != nil {
		return "", err
	}
	dataB, err := db.GetEnvelope(b)
	if err != nil {
		return "", err
	}

	return GenerateUnifiedDiff(a, b, dataA, dataB)
}

// Export writes the envelope of name to file, relative to the work
// directory, in the given format.
func (s *Store) Export(name, file string, format envelope.Format) error {
	env, err := s.Envelope(name)
	if err != nil {
		return err
	}

	data, err := envelope.Marshal(env, format)
	if err != nil {
		return err
	}

	pv, err := security.New(s.workDir)
	if err != nil {
		return err
	}
	defer pv.Close()

	if err := pv.WriteFile(file, data, FilePermSecure); err != nil {
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	return nil
}

// Import reads an envelope from file and stores it under name. Imported
// entries carry no verification hash.
func (s *Store) Import(ctx context.Context, file, name string, format envelope.Format, overwrite bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := security.ValidateName(name)
	if err != nil {
		return err
	}

	pv, err := security.New(s.workDir)
	if err != nil {
		return err
	}
	defer pv.Close()

	data, err := pv.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	env, err := envelope.Unmarshal(data, format)
	if err != nil {
		return err
	}
	if _, err := env.Decode(); err != nil {
		return err
	}

	db, svc, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	record, err := newRecord(svc, name, env, "")
	if err != nil {
		return err
	}
	if err := db.PutEntry(record.Entry, record.Envelope, record.Hash, overwrite); err != nil {
		return err
	}

	klog.V(2).InfoS("imported entry", "name", name, "file", file)
	return nil
}

// SealBatch seals every record of a CSV stream of name,username,password
// rows. A leading header row is skipped. Encryption runs on up to
// parallel workers and all entries are written in one transaction, so a
// failure on any row stores none of them.
func (s *Store) SealBatch(ctx context.Context, r io.Reader, parallel int, overwrite bool) ([]string, error) {
	names, creds, err := readBatch(r)
	if err != nil {
		return nil, err
	}

	db, svc, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	envs, err := svc.EncryptBatch(ctx, creds, parallel)
	if err != nil {
		return nil, err
	}

	records := make([]storage.Record, len(names))
	for i, name := range names {
		if records[i], err = newRecord(svc, name, envs[i], svc.HashPassword(creds[i].Password)); err != nil {
			return nil, err
		}
	}
	if err := db.PutEntries(records, overwrite); err != nil {
		return nil, err
	}

	klog.V(2).InfoS("sealed batch", "entries", len(records))
	return names, nil
}

func readBatch(r io.Reader) ([]string, []Credentials, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read batch: %w", err)
	}
	if len(records) > 0 && strings.EqualFold(strings.Join(records[0], ","), "name,username,password") {
		records = records[1:]
	}

	seen := make(map[string]bool, len(records))
	names := make([]string, 0, len(records))
	creds := make([]Credentials, 0, len(records))
	for i, rec := range records {
		name, err := security.ValidateName(rec[0])
		if err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("record %d: duplicate name %s", i+1, name)
		}
		seen[name] = true
		names = append(names, name)
		creds = append(creds, Credentials{Username: rec[1], Password: rec[2]})
	}
	if len(names) == 0 {
		return nil, nil, ErrNoEntries
	}
	return names, creds, nil
}

// Compact compacts the database to reclaim unused space.
// This is useful after removing entries from the store.
func (s *Store) Compact() error {
	db, _, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Compact()
}
