package cmd

import (
	"fmt"

	"github.com/illarion/credseal/internal/crypto"
)

// Random prints count alphanumeric strings of the given length
func Random(length, count int) {
	if length < 0 || count < 1 {
		HandleError(fmt.Errorf("length must be >= 0 and count >= 1"))
	}

	for range count {
		fmt.Println(crypto.GenerateRandomString(length))
	}
}
