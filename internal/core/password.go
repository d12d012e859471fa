package core

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/illarion/credseal/internal/crypto"
)

// ReadPassword reads a password from the terminal without echoing
func ReadPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	defer crypto.ClearBytes(password)

	return string(password), nil
}

// ReadPasswordConfirm reads a password twice and ensures they match
func ReadPasswordConfirm() (string, error) {
	password1, err := ReadPassword("Enter password: ")
	if err != nil {
		return "", err
	}

	password2, err := ReadPassword("Confirm password: ")
	if err != nil {
		return "", err
	}

	if !crypto.ConstantTimeCompare([]byte(password1), []byte(password2)) {
		return "", fmt.Errorf("passwords do not match")
	}

	return password1, nil
}

var stdin = bufio.NewReader(os.Stdin)

// ReadLine reads one line of visible input, such as a username
func ReadLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
