package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/credseal/internal/config"
)

// Remove deletes entries matching patterns from the store
func Remove(ctx context.Context, cfg *config.Config, patterns []string) {
	if len(patterns) == 0 {
		fmt.Fprintf(os.Stderr, "Error: rm requires at least one entry argument\n")
		fmt.Fprintf(os.Stderr, "Usage: credseal rm <name> [name...]\n")
		os.Exit(1)
	}

	store := newStore(cfg)

	removed, err := store.Remove(ctx, patterns)
	if err != nil {
		HandleError(err)
	}

	for _, name := range removed {
		forgetPassword(store, name)
		fmt.Printf("✓ Removed %s\n", name)
	}

	// Compact database to reclaim space
	if err := store.Compact(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: compaction failed: %s\n", err)
	}
}
