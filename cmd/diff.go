package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/illarion/credseal/internal/config"
	"github.com/illarion/credseal/internal/core"
	"github.com/illarion/credseal/internal/envelope"
)

// Diff compares the stored envelopes of two entries (no password
// required). With fieldsOnly, just the changed field names are printed.
func Diff(ctx context.Context, cfg *config.Config, a, b string, fieldsOnly bool) {
	store := newStore(cfg)

	if fieldsOnly {
		envA, err := store.Envelope(a)
		if err != nil {
			HandleError(err)
		}
		envB, err := store.Envelope(b)
		if err != nil {
			HandleError(err)
		}
		dataA, err := envelope.Marshal(envA, envelope.FormatJSON)
		if err != nil {
			HandleError(err)
		}
		dataB, err := envelope.Marshal(envB, envelope.FormatJSON)
		if err != nil {
			HandleError(err)
		}

		fields := core.ChangedFields(dataA, dataB)
		if len(fields) == 0 {
			fmt.Println("No differences")
			return
		}
		fmt.Println(strings.Join(fields, "\n"))
		return
	}

	diff, err := store.Diff(ctx, a, b)
	if err != nil {
		HandleError(err)
	}
	if diff == "" {
		fmt.Println("No differences")
		return
	}
	fmt.Print(diff)
}
