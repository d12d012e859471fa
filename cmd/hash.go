package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/credseal/internal/config"
	"github.com/illarion/credseal/internal/crypto"
)

// Hash prints the verification hash of a password
func Hash(cfg *config.Config) {
	password := GetNewPassword(cfg)
	fmt.Println(crypto.HashPassword(password))
}

// Verify checks a password against hash, or against the stored hash of
// the entry name when hash is empty. For entries the password comes from
// the keyring when one is cached; a cached password that no longer
// matches is removed and the user is prompted.
func Verify(ctx context.Context, cfg *config.Config, name, hash string) {
	if err := ctx.Err(); err != nil {
		HandleError(err)
	}

	var ok bool
	if hash != "" {
		password := GetPasswordOrExit(cfg, "Enter password: ")
		ok = crypto.VerifyPassword(password, hash)
	} else {
		store := newStore(cfg)
		password, cached := entryPassword(cfg, store, name)

		var err error
		ok, err = store.Verify(name, password)
		if err != nil {
			HandleError(err)
		}
		if !ok && cached {
			fmt.Fprintln(os.Stderr, "warning: keyring password no longer matches, removing it")
			forgetPassword(store, name)

			password = GetPasswordOrExit(cfg, fmt.Sprintf("Enter password for %s: ", name))
			if ok, err = store.Verify(name, password); err != nil {
				HandleError(err)
			}
		}
	}

	if !ok {
		fmt.Fprintln(os.Stderr, "Password does not match")
		os.Exit(1)
	}
	fmt.Println("Password matches")
}
