package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket    = []byte("config")    // Suite, timestamps, store id - unencrypted
	IndexBucket     = []byte("index")     // Public entry list for ls/status - unencrypted
	EnvelopesBucket = []byte("envelopes") // Envelope JSON per entry
	HashesBucket    = []byte("hashes")    // Password verification hash per entry
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
	ConfigKDF      = []byte("kdf")
	ConfigAEAD     = []byte("aead")
	ConfigStoreID  = []byte("store_id")
)

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrEntryExists   = errors.New("entry already exists")
)

// Storage provides BBolt-based storage for credseal
type Storage struct {
	db *bolt.DB
}

// Open opens or creates a credseal database
func Open(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// Initialize creates the bucket structure and records the suite names.
func (s *Storage) Initialize(kdf, aead string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, IndexBucket, EnvelopesBucket, HashesBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}
		if err := config.Put(ConfigKDF, []byte(kdf)); err != nil {
			return err
		}
		if err := config.Put(ConfigAEAD, []byte(aead)); err != nil {
			return err
		}

		created, _ := time.Now().MarshalBinary()
		if err := config.Put(ConfigCreated, created); err != nil {
			return err
		}
		return config.Put(ConfigModified, created)
	})
}

// IsInitialized checks if the database has been initialized
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config != nil && config.Get(ConfigVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// GetSuite returns the recorded kdf and aead names
func (s *Storage) GetSuite() (kdf, aead string, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("config bucket not found")
		}
		kdf = string(config.Get(ConfigKDF))
		aead = string(config.Get(ConfigAEAD))
		return nil
	})
	return kdf, aead, err
}

func (s *Storage) getTime(key []byte) (time.Time, error) {
	var t time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("config bucket not found")
		}
		data := config.Get(key)
		if data == nil {
			return fmt.Errorf("%s time not found", key)
		}
		return t.UnmarshalBinary(data)
	})
	return t, err
}

// GetCreated retrieves the creation timestamp
func (s *Storage) GetCreated() (time.Time, error) {
	return s.getTime(ConfigCreated)
}

// GetModified retrieves the last modified timestamp
func (s *Storage) GetModified() (time.Time, error) {
	return s.getTime(ConfigModified)
}

func touch(tx *bolt.Tx) error {
	modified, _ := time.Now().MarshalBinary()
	return tx.Bucket(ConfigBucket).Put(ConfigModified, modified)
}

// GetStoreID retrieves the store ID from config bucket
func (s *Storage) GetStoreID() (string, error) {
	var id string
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("config bucket not found")
		}
		data := config.Get(ConfigStoreID)
		if data == nil {
			return fmt.Errorf("store_id not found")
		}
		id = string(data)
		return nil
	})
	return id, err
}

// GetOrCreateStoreID retrieves the existing store ID or generates a new one
func (s *Storage) GetOrCreateStoreID() (string, error) {
	if id, err := s.GetStoreID(); err == nil {
		return id, nil
	}

	id := uuid.NewString()
	err := s.db.Update(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("config bucket not found")
		}
		return config.Put(ConfigStoreID, []byte(id))
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Record is an entry together with its envelope JSON and optional hash
type Record struct {
	Entry    Entry
	Envelope []byte
	Hash     string
}

// PutEntry stores an entry with its envelope JSON and optional hash in one
// transaction. Existing entries are only replaced when overwrite is set.
func (s *Storage) PutEntry(entry Entry, envelopeJSON []byte, hash string, overwrite bool) error {
	return s.PutEntries([]Record{{Entry: entry, Envelope: envelopeJSON, Hash: hash}}, overwrite)
}

// PutEntries stores every record in a single transaction; either all are
// written or none.
func (s *Storage) PutEntries(records []Record, overwrite bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, r := range records {
			if err := putEntry(tx, r, overwrite); err != nil {
				return err
			}
		}
		return touch(tx)
	})
}

func putEntry(tx *bolt.Tx, r Record, overwrite bool) error {
	index := tx.Bucket(IndexBucket)
	key := []byte(r.Entry.Name)
	if !overwrite && index.Get(key) != nil {
		return fmt.Errorf("%w: %s", ErrEntryExists, r.Entry.Name)
	}

	entry := r.Entry
	entry.HasHash = r.Hash != ""
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := index.Put(key, data); err != nil {
		return err
	}
	if err := tx.Bucket(EnvelopesBucket).Put(key, r.Envelope); err != nil {
		return err
	}

	hashes := tx.Bucket(HashesBucket)
	if r.Hash == "" {
		return hashes.Delete(key)
	}
	return hashes.Put(key, []byte(r.Hash))
}

// GetEntry returns a single index entry
func (s *Storage) GetEntry(name string) (*Entry, error) {
	var entry *Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		index := tx.Bucket(IndexBucket)
		if index == nil {
			return fmt.Errorf("index bucket not found")
		}
		data := index.Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, name)
		}
		entry = &Entry{}
		return json.Unmarshal(data, entry)
	})
	return entry, err
}

// ListEntries returns all index entries in name order
func (s *Storage) ListEntries() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		index := tx.Bucket(IndexBucket)
		if index == nil {
			return fmt.Errorf("index bucket not found")
		}
		return index.ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	})
	return entries, err
}

// GetEnvelope retrieves the stored envelope JSON
func (s *Storage) GetEnvelope(name string) ([]byte, error) {
	return s.get(EnvelopesBucket, name)
}

// GetHash retrieves the stored password hash
func (s *Storage) GetHash(name string) (string, error) {
	data, err := s.get(HashesBucket, name)
	return string(data), err
}

func (s *Storage) get(bucket []byte, name string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("%s bucket not found", bucket)
		}
		data = b.Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, name)
		}
		// Make a copy since the slice is only valid during the transaction
		data = append([]byte(nil), data...)
		return nil
	})
	return data, err
}

// RemoveEntry deletes an entry from every bucket
func (s *Storage) RemoveEntry(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		key := []byte(name)
		if tx.Bucket(IndexBucket).Get(key) == nil {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, name)
		}
		for _, bucket := range [][]byte{IndexBucket, EnvelopesBucket, HashesBucket} {
			if err := tx.Bucket(bucket).Delete(key); err != nil {
				return err
			}
		}
		return touch(tx)
	})
}

// Compact creates a compacted copy of the database, removing unused space.
// This is useful after deleting entries to reclaim disk space.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	// bolt.Compact copies every bucket in transactions of at most 64 KiB.
	if err := bolt.Compact(dst, s.db, 64*1024); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		os.Remove(tmpPath)
		return errors.Join(fmt.Errorf("failed to backup original: %w", err), s.reopen(srcPath))
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return errors.Join(fmt.Errorf("failed to replace database: %w", err), s.reopen(srcPath))
	}
	os.Remove(backupPath)

	return s.reopen(srcPath)
}

// reopen replaces the closed handle with a fresh one on path
func (s *Storage) reopen(path string) error {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}
	s.db = db
	return nil
}
