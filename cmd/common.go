package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"

	"github.com/illarion/credseal/internal/config"
	"github.com/illarion/credseal/internal/core"
	"github.com/illarion/credseal/internal/crypto"
	"github.com/illarion/credseal/internal/envelope"
	"github.com/illarion/credseal/internal/keyring"
	"github.com/illarion/credseal/internal/security"
)

// GetPassword returns the configured password or prompts the user
func GetPassword(cfg *config.Config, prompt string) (string, error) {
	if cfg.Password != "" {
		return cfg.Password, nil
	}

	password, err := core.ReadPassword(prompt)
	if err != nil {
		return "", err
	}
	return password, nil
}

// GetPasswordOrExit is like GetPassword but exits on error
func GetPasswordOrExit(cfg *config.Config, prompt string) string {
	password, err := GetPassword(cfg, prompt)
	if err != nil {
		HandleError(err)
	}
	return password
}

// GetNewPassword returns the configured password or prompts twice with
// confirmation. Used whenever a password is being set.
func GetNewPassword(cfg *config.Config) string {
	if cfg.Password != "" {
		return cfg.Password
	}

	password, err := core.ReadPasswordConfirm()
	if err != nil {
		HandleError(err)
	}
	return password
}

// GetUsername returns username or prompts for it when empty
func GetUsername(username string) string {
	if username != "" {
		return username
	}

	username, err := core.ReadLine("Username: ")
	if err != nil {
		HandleError(err)
	}
	return username
}

// ParseSuite resolves --kdf and --aead flag values
func ParseSuite(kdfName, aeadName string) crypto.Suite {
	kdf, err := crypto.ParseKDF(kdfName)
	if err != nil {
		HandleError(err)
	}
	aead, err := crypto.ParseAEAD(aeadName)
	if err != nil {
		HandleError(err)
	}
	return crypto.Suite{KDF: kdf, AEAD: aead}
}

// ParseFormat resolves a --format flag value. When it is empty the format
// follows the file extension.
func ParseFormat(name, file string) envelope.Format {
	if name == "" {
		switch strings.ToLower(filepath.Ext(file)) {
		case ".yaml", ".yml":
			return envelope.FormatYAML
		}
	}

	format, err := envelope.ParseFormat(name)
	if err != nil {
		HandleError(err)
	}
	return format
}

func newStore(cfg *config.Config) *core.Store {
	return core.NewStore(cfg.StorePath)
}

// entryName returns the cleaned form an entry is stored and cached under
func entryName(name string) string {
	clean, err := security.ValidateName(name)
	if err != nil {
		HandleError(err)
	}
	return clean
}

// entryPassword returns the password for an entry, preferring the
// configured password, then the keyring, then a prompt. cached reports
// whether the keyring supplied it.
func entryPassword(cfg *config.Config, store *core.Store, name string) (password string, cached bool) {
	name = entryName(name)
	if cfg.Password != "" {
		return cfg.Password, false
	}

	if storeID, err := store.StoreID(); err == nil {
		if password, err := keyring.GetPassword(storeID, name); err == nil {
			klog.V(3).InfoS("using keyring password", "name", name)
			return password, true
		}
	}

	return GetPasswordOrExit(cfg, fmt.Sprintf("Enter password for %s: ", name)), false
}

// forgetPassword drops a cached keyring password; failures are only logged
func forgetPassword(store *core.Store, name string) {
	name = entryName(name)
	storeID, err := store.StoreID()
	if err != nil {
		return
	}
	if err := keyring.DeletePassword(storeID, name); err != nil {
		klog.V(2).InfoS("failed to remove keyring password", "name", name, "err", err)
	}
}

// HandleError handles common errors consistently
func HandleError(err error) {
	switch {
	case errors.Is(err, core.ErrNotInitialized):
		fmt.Fprintf(os.Stderr, "Error: credseal store not initialized\n")
		fmt.Fprintf(os.Stderr, "Run 'credseal init' first\n")
	case errors.Is(err, core.ErrAlreadyExists):
		fmt.Fprintf(os.Stderr, "Error: store already exists\n")
		fmt.Fprintf(os.Stderr, "Use 'credseal status' to see current state\n")
	case errors.Is(err, core.ErrWrongPassword):
		fmt.Fprintf(os.Stderr, "Error: wrong password\n")
	case errors.Is(err, core.ErrEntryExists):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use --force to overwrite\n")
	case errors.Is(err, core.ErrEntryNotFound):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use 'credseal ls' to see stored entries\n")
	case errors.Is(err, core.ErrNoHash):
		fmt.Fprintf(os.Stderr, "Error: entry has no verification hash (imported entries have none)\n")
	case errors.Is(err, crypto.ErrAuthentication):
		fmt.Fprintf(os.Stderr, "Error: authentication failed: wrong password or tampered envelope\n")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}

	klog.V(4).InfoS("command failed", "kind", crypto.KindOf(err).String(), "err", err)
	klog.Flush()
	os.Exit(1)
}

// formatSize formats a size in human-readable format
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
