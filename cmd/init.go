package cmd

import (
	"fmt"

	"github.com/illarion/credseal/internal/config"
	"github.com/illarion/credseal/internal/crypto"
)

// Init creates a new store bound to suite
func Init(cfg *config.Config, suite crypto.Suite) {
	store := newStore(cfg)

	if err := store.Init(suite); err != nil {
		HandleError(err)
	}

	fmt.Printf("✓ Initialized %s (%s)\n", store.Path(), suite)
	if suite.KDF == crypto.KDFSHA256 {
		fmt.Println("  note: sha256 key derivation is fast; use --kdf argon2id for stores that leave this machine")
	}
}
