package git

import (
	"strings"
	"testing"
)

func TestCheckGitIntegrationOutsideRepo(t *testing.T) {
	status := CheckGitIntegration(t.TempDir(), ".credseal", true)
	if status.IsRepo {
		t.Skip("temp dir is inside a git work tree")
	}
	if out := FormatGitStatus(".credseal", status); out != "" {
		t.Errorf("Expected no output outside a repo, got %q", out)
	}
}

func TestFormatGitStatus(t *testing.T) {
	tests := []struct {
		name   string
		status GitStatus
		want   string
	}{
		{"tracked fast kdf", GitStatus{IsRepo: true, StoreTracked: true, FastKDF: true}, "error: .credseal is tracked"},
		{"tracked", GitStatus{IsRepo: true, StoreTracked: true}, "warning: .credseal is tracked"},
		{"ignored", GitStatus{IsRepo: true, StoreIgnored: true}, "ok: .credseal is in .gitignore"},
		{"neither", GitStatus{IsRepo: true}, "not in .gitignore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := FormatGitStatus(".credseal", &tt.status)
			if !strings.Contains(out, tt.want) {
				t.Errorf("Expected %q in:\n%s", tt.want, out)
			}
		})
	}
}
