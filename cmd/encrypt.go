package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/illarion/credseal/internal/config"
	"github.com/illarion/credseal/internal/core"
	"github.com/illarion/credseal/internal/crypto"
	"github.com/illarion/credseal/internal/envelope"
	"github.com/illarion/credseal/internal/security"
)

// Encrypt seals a username/password pair without a store and prints the
// envelope, or writes it to output when set.
func Encrypt(cfg *config.Config, suite crypto.Suite, username, output string, format envelope.Format) {
	username = GetUsername(username)
	password := GetNewPassword(cfg)

	env, err := core.NewService(core.WithSuite(suite)).EncryptCredentials(username, password)
	if err != nil {
		HandleError(err)
	}

	data, err := envelope.Marshal(env, format)
	if err != nil {
		HandleError(err)
	}

	if output == "" || output == "-" {
		fmt.Println(string(data))
		return
	}

	pv, err := security.New(".")
	if err != nil {
		HandleError(err)
	}
	defer pv.Close()

	if err := pv.WriteFile(output, data, core.FilePermSecure); err != nil {
		HandleError(err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s (%s)\n", output, suite)
}

// Decrypt opens an envelope file ("-" for stdin) and prints the
// credentials. field selects "username", "password" or both when empty.
func Decrypt(cfg *config.Config, suite crypto.Suite, file, field string, format envelope.Format) {
	data, err := readInput(file)
	if err != nil {
		HandleError(err)
	}

	env, err := envelope.Unmarshal(data, format)
	if err != nil {
		HandleError(err)
	}

	password := GetPasswordOrExit(cfg, "Enter password: ")
	creds, err := core.NewService(core.WithSuite(suite)).DecryptCredentials(env, password)
	if err != nil {
		HandleError(err)
	}

	printCredentials(creds, field)
}

func readInput(file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(file)
}

func printCredentials(creds core.Credentials, field string) {
	switch field {
	case "username":
		fmt.Println(creds.Username)
	case "password":
		fmt.Println(creds.Password)
	case "":
		fmt.Printf("username: %s\n", creds.Username)
		fmt.Printf("password: %s\n", creds.Password)
	default:
		HandleError(fmt.Errorf("unknown field %q (use username or password)", field))
	}
}
