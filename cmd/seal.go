package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/credseal/internal/config"
	"github.com/illarion/credseal/internal/core"
	"github.com/illarion/credseal/internal/keyring"
)

// Seal encrypts a username/password pair into the store under name. With
// save, the password is also cached in the OS keyring.
func Seal(ctx context.Context, cfg *config.Config, name, username string, overwrite, save bool) {
	store := newStore(cfg)

	username = GetUsername(username)
	password := GetNewPassword(cfg)

	name, err := store.Seal(ctx, name, core.Credentials{Username: username, Password: password}, overwrite)
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("✓ Sealed %s\n", name)

	if save {
		storeID, err := store.StoreID()
		if err != nil {
			HandleError(err)
		}
		if err := keyring.SavePassword(storeID, name, password); err != nil {
			HandleError(fmt.Errorf("failed to save to keyring: %w", err))
		}
		fmt.Println("  password saved to keyring")
	} else if overwrite {
		// A cached password for the old envelope would no longer open it
		forgetPassword(store, name)
	}
}
