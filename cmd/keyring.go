package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/credseal/internal/config"
	"github.com/illarion/credseal/internal/keyring"
)

// KeyringSave saves the password of an entry to the OS keyring
func KeyringSave(ctx context.Context, cfg *config.Config, name string) {
	store := newStore(cfg)
	name = entryName(name)

	password := GetPasswordOrExit(cfg, fmt.Sprintf("Enter password for %s: ", name))

	// Verify password is correct
	if _, err := store.Open(ctx, name, password); err != nil {
		HandleError(err)
	}

	storeID, err := store.StoreID()
	if err != nil {
		HandleError(err)
	}

	if err := keyring.SavePassword(storeID, name, password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save to keyring: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("Password for %s saved to keyring\n", name)
}

// KeyringDelete removes the password of an entry from the OS keyring
func KeyringDelete(cfg *config.Config, name string) {
	store := newStore(cfg)
	name = entryName(name)

	storeID, err := store.StoreID()
	if err != nil {
		HandleError(err)
	}

	if !keyring.HasPassword(storeID, name) {
		fmt.Printf("No password stored in keyring for %s\n", name)
		return
	}

	if err := keyring.DeletePassword(storeID, name); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to remove from keyring: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("Password for %s removed from keyring\n", name)
}

// KeyringStatus reports which entries have a password in the keyring.
// With an empty name every entry is listed.
func KeyringStatus(ctx context.Context, cfg *config.Config, name string) {
	store := newStore(cfg)

	storeID, err := store.StoreID()
	if err != nil {
		HandleError(err)
	}

	var names []string
	if name != "" {
		names = append(names, entryName(name))
	} else {
		entries, err := store.List(ctx)
		if err != nil {
			HandleError(err)
		}
		for _, entry := range entries {
			names = append(names, entry.Name)
		}
	}

	for _, n := range names {
		if keyring.HasPassword(storeID, n) {
			fmt.Printf("%s: stored in keyring\n", n)
		} else {
			fmt.Printf("%s: not stored\n", n)
		}
	}
}
