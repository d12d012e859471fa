package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *Storage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.credseal")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize("sha256", "aes-256-gcm"); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	return db
}

func TestOpenAndInitialize(t *testing.T) {
	db := openTestDB(t)

	initialized, err := db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if !initialized {
		t.Error("Database should be initialized")
	}

	kdf, aead, err := db.GetSuite()
	if err != nil {
		t.Fatalf("Failed to get suite: %v", err)
	}
	if kdf != "sha256" || aead != "aes-256-gcm" {
		t.Errorf("Suite mismatch: got %s/%s", kdf, aead)
	}

	created, err := db.GetCreated()
	if err != nil {
		t.Fatalf("Failed to get created: %v", err)
	}
	if time.Since(created) > time.Minute {
		t.Errorf("Created time looks wrong: %v", created)
	}
}

func TestUninitialized(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "empty.credseal"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	initialized, err := db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if initialized {
		t.Error("Fresh database should not be initialized")
	}
}

func TestStoreID(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetStoreID(); err == nil {
		t.Error("Store ID should not exist yet")
	}

	id, err := db.GetOrCreateStoreID()
	if err != nil {
		t.Fatalf("Failed to create store ID: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("Expected UUID string, got %q", id)
	}

	again, err := db.GetOrCreateStoreID()
	if err != nil {
		t.Fatalf("Failed to get store ID: %v", err)
	}
	if again != id {
		t.Errorf("Store ID changed: %s -> %s", id, again)
	}
}

func TestEntryOperations(t *testing.T) {
	db := openTestDB(t)

	envJSON := []byte(`{"encrypted_username":"a","encrypted_password":"b","salt":"c","iv":"d"}`)
	entry := NewEntry("github/work", "sha256", "aes-256-gcm", len(envJSON))
	if err := db.PutEntry(entry, envJSON, "hash==", false); err != nil {
		t.Fatalf("Failed to put entry: %v", err)
	}

	// Duplicate without overwrite
	if err := db.PutEntry(entry, envJSON, "", false); !errors.Is(err, ErrEntryExists) {
		t.Errorf("Expected ErrEntryExists, got %v", err)
	}

	got, err := db.GetEntry("github/work")
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if got.Name != "github/work" || !got.HasHash || got.Size != len(envJSON) {
		t.Errorf("Entry mismatch: %+v", got)
	}

	data, err := db.GetEnvelope("github/work")
	if err != nil {
		t.Fatalf("Failed to get envelope: %v", err)
	}
	if string(data) != string(envJSON) {
		t.Errorf("Envelope mismatch: got %s", data)
	}

	hash, err := db.GetHash("github/work")
	if err != nil {
		t.Fatalf("Failed to get hash: %v", err)
	}
	if hash != "hash==" {
		t.Errorf("Hash mismatch: got %s", hash)
	}

	// Overwrite without a hash drops the old hash
	if err := db.PutEntry(entry, envJSON, "", true); err != nil {
		t.Fatalf("Failed to overwrite entry: %v", err)
	}
	if _, err := db.GetHash("github/work"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Expected hash to be removed, got %v", err)
	}

	entries, err := db.ListEntries()
	if err != nil {
		t.Fatalf("Failed to list entries: %v", err)
	}
	if len(entries) != 1 || entries[0].HasHash {
		t.Errorf("Unexpected entries: %+v", entries)
	}

	if err := db.RemoveEntry("github/work"); err != nil {
		t.Fatalf("Failed to remove entry: %v", err)
	}
	if _, err := db.GetEnvelope("github/work"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Expected ErrEntryNotFound, got %v", err)
	}
	if err := db.RemoveEntry("github/work"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Expected ErrEntryNotFound on second remove, got %v", err)
	}
}

func TestListEntriesSorted(t *testing.T) {
	db := openTestDB(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := db.PutEntry(NewEntry(name, "sha256", "aes-256-gcm", 10), []byte("{}"), "", false); err != nil {
			t.Fatalf("Failed to put %s: %v", name, err)
		}
	}

	entries, err := db.ListEntries()
	if err != nil {
		t.Fatalf("Failed to list entries: %v", err)
	}
	names := Names(entries)
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Order mismatch: got %v, want %v", names, want)
		}
	}
	if TotalSize(entries) != 30 {
		t.Errorf("Total size: got %d, want 30", TotalSize(entries))
	}
}

func TestModifiedUpdates(t *testing.T) {
	db := openTestDB(t)

	before, err := db.GetModified()
	if err != nil {
		t.Fatalf("Failed to get modified: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if err := db.PutEntry(NewEntry("a", "sha256", "aes-256-gcm", 2), []byte("{}"), "", false); err != nil {
		t.Fatalf("Failed to put entry: %v", err)
	}

	after, err := db.GetModified()
	if err != nil {
		t.Fatalf("Failed to get modified: %v", err)
	}
	if !after.After(before) {
		t.Errorf("Modified time should advance: %v -> %v", before, after)
	}
}

func TestCompact(t *testing.T) {
	db := openTestDB(t)

	for _, name := range []string{"a", "b", "c"} {
		if err := db.PutEntry(NewEntry(name, "sha256", "aes-256-gcm", 2), []byte("{}"), "h", false); err != nil {
			t.Fatalf("Failed to put %s: %v", name, err)
		}
	}
	if err := db.RemoveEntry("b"); err != nil {
		t.Fatalf("Failed to remove: %v", err)
	}

	if err := db.Compact(); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	entries, err := db.ListEntries()
	if err != nil {
		t.Fatalf("Failed to list after compact: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries after compact, got %d", len(entries))
	}
	if hash, err := db.GetHash("c"); err != nil || hash != "h" {
		t.Errorf("Hash lost in compaction: %q, %v", hash, err)
	}
}

func TestCompactBackupFailureKeepsDatabaseOpen(t *testing.T) {
	db := openTestDB(t)

	if err := db.PutEntry(NewEntry("a", "sha256", "aes-256-gcm", 2), []byte("{}"), "", false); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}

	// A non-empty directory at the backup path makes the rename fail
	backup := db.Path() + ".backup"
	if err := os.MkdirAll(filepath.Join(backup, "blocker"), 0700); err != nil {
		t.Fatal(err)
	}

	if err := db.Compact(); err == nil {
		t.Fatal("Expected compaction to fail")
	}

	entries, err := db.ListEntries()
	if err != nil {
		t.Fatalf("Database should still be usable: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(entries))
	}
	if _, err := os.Stat(db.Path() + ".compact"); !os.IsNotExist(err) {
		t.Errorf("Temporary compact file should be removed, stat err = %v", err)
	}
}

func TestPutEntriesIsAtomic(t *testing.T) {
	db := openTestDB(t)

	if err := db.PutEntry(NewEntry("b", "sha256", "aes-256-gcm", 2), []byte("{}"), "", false); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}

	records := []Record{
		{Entry: NewEntry("a", "sha256", "aes-256-gcm", 2), Envelope: []byte("{}"), Hash: "h"},
		{Entry: NewEntry("b", "sha256", "aes-256-gcm", 2), Envelope: []byte("{}")},
		{Entry: NewEntry("c", "sha256", "aes-256-gcm", 2), Envelope: []byte("{}")},
	}
	if err := db.PutEntries(records, false); !errors.Is(err, ErrEntryExists) {
		t.Fatalf("Expected ErrEntryExists, got %v", err)
	}

	entries, err := db.ListEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name != "b" {
		t.Errorf("A failed batch must not write any entry, got %+v", entries)
	}

	if err := db.PutEntries(records, true); err != nil {
		t.Fatalf("Overwrite batch failed: %v", err)
	}
	entries, err = db.ListEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 entries, got %d", len(entries))
	}
}
