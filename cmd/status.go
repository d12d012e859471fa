package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/illarion/credseal/internal/config"
	"github.com/illarion/credseal/internal/git"
	"github.com/illarion/credseal/internal/keyring"
)

// Status shows the store suite, entries and git integration (no password
// required)
func Status(ctx context.Context, cfg *config.Config) {
	store := newStore(cfg)

	// Check if the store exists
	if _, err := os.Stat(store.Path()); err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No store found at %s\n", store.Path())
			fmt.Println("Run 'credseal init' to create one")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		return
	}

	status, err := store.Status(ctx)
	if err != nil {
		HandleError(err)
	}

	storeID, _ := store.StoreID()

	fmt.Printf("Store: %s\n", store.Path())
	fmt.Printf("Suite: %s\n", status.Suite)
	fmt.Printf("Created: %s\n", status.Created.Format(time.RFC3339))
	fmt.Printf("Modified: %s\n", status.Modified.Format(time.RFC3339))
	fmt.Printf("Entries: %d (%d with verification hash), %s\n",
		status.EntryCount, status.HashedCount, formatSize(status.TotalSize))

	if status.EntryCount > 0 {
		fmt.Println()
		for _, entry := range status.Entries {
			marks := ""
			if entry.HasHash {
				marks += " hash"
			}
			if storeID != "" && keyring.HasPassword(storeID, entry.Name) {
				marks += " keyring"
			}
			fmt.Printf("  %s (%s, %s)%s\n", entry.Name, entry.Created.Format(time.DateOnly), formatSize(int64(entry.Size)), marks)
		}
	}

	fmt.Print(git.FormatGitStatus(filepath.Base(store.Path()), status.GitStatus))
}

// Ls lists entry names, or the full index as JSON
func Ls(ctx context.Context, cfg *config.Config, asJSON bool) {
	store := newStore(cfg)

	entries, err := store.List(ctx)
	if err != nil {
		HandleError(err)
	}

	if asJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			HandleError(err)
		}
		fmt.Println(string(data))
		return
	}

	for _, entry := range entries {
		fmt.Println(entry.Name)
	}
}
