package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/credseal/internal/config"
	"github.com/illarion/credseal/internal/core"
)

// Compact compacts the store database to reclaim unused space
func Compact(cfg *config.Config) {
	store := newStore(cfg)

	// Get file size before
	info, err := os.Stat(store.Path())
	if os.IsNotExist(err) {
		HandleError(core.ErrNotInitialized)
	} else if err != nil {
		HandleError(err)
	}
	sizeBefore := info.Size()

	if err := store.Compact(); err != nil {
		HandleError(err)
	}

	// Get file size after
	info, err = os.Stat(store.Path())
	if err != nil {
		HandleError(err)
	}
	sizeAfter := info.Size()

	fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
}
