package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/illarion/credseal/internal/config"
)

// Batch seals every name,username,password row of a CSV file ("-" for
// stdin) using up to parallel workers.
func Batch(ctx context.Context, cfg *config.Config, file string, parallel int, overwrite bool) {
	store := newStore(cfg)

	var r io.Reader = os.Stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			HandleError(err)
		}
		defer f.Close()
		r = f
	}

	names, err := store.SealBatch(ctx, r, parallel, overwrite)
	for _, name := range names {
		fmt.Printf("✓ Sealed %s\n", name)
	}
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("%d entries sealed\n", len(names))
}
