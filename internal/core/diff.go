package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// GenerateUnifiedDiff returns a line diff between two envelope documents,
// or an empty string if they are identical.
func GenerateUnifiedDiff(nameA, nameB string, a, b []byte) (string, error) {
	if bytes.Equal(a, b) {
		return "", nil
	}

	dmp := diffmatchpatch.New()

	textA, textB := string(a), string(b)
	charsA, charsB, lines := dmp.DiffLinesToChars(textA, textB)
	diffs := dmp.DiffMain(charsA, charsB, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	patches := dmp.PatchMake(textA, diffs)
	if len(patches) == 0 {
		return "", nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("--- %s\n", nameA))
	result.WriteString(fmt.Sprintf("+++ %s\n", nameB))
	result.WriteString(dmp.PatchToText(patches))

	return result.String(), nil
}

// ChangedFields lists the envelope fields whose lines differ between a and
// b, in document order.
func ChangedFields(a, b []byte) []string {
	dmp := diffmatchpatch.New()
	charsA, charsB, lines := dmp.DiffLinesToChars(string(a), string(b))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(charsA, charsB, false), lines)

	var fields []string
	seen := make(map[string]bool)
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffDelete {
			continue
		}
		for _, line := range strings.Split(d.Text, "\n") {
			field, _, ok := strings.Cut(strings.TrimSpace(line), ":")
			if !ok {
				continue
			}
			field = strings.Trim(field, `"`)
			if !seen[field] {
				seen[field] = true
				fields = append(fields, field)
			}
		}
	}
	return fields
}
