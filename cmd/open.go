package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/illarion/credseal/internal/config"
	"github.com/illarion/credseal/internal/core"
)

// Open decrypts the entry name and prints its credentials. A stale
// keyring password is removed and the user is prompted instead.
func Open(ctx context.Context, cfg *config.Config, name, field string) {
	store := newStore(cfg)

	password, cached := entryPassword(cfg, store, name)
	creds, err := store.Open(ctx, name, password)
	if cached && errors.Is(err, core.ErrWrongPassword) {
		fmt.Fprintln(os.Stderr, "warning: keyring password no longer matches, removing it")
		forgetPassword(store, name)

		password = GetPasswordOrExit(cfg, fmt.Sprintf("Enter password for %s: ", name))
		creds, err = store.Open(ctx, name, password)
	}
	if err != nil {
		HandleError(err)
	}

	printCredentials(creds, field)
}
