package git

import (
	"os/exec"
	"strings"
)

// GitStatus describes how the store file relates to the enclosing git
// repository.
type GitStatus struct {
	IsRepo       bool
	StoreTracked bool
	StoreIgnored bool
	FastKDF      bool // store uses a key derivation without work factor
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	return cmd.Run() == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	// git check-ignore returns exit code 0 if file is ignored
	return cmd.Run() == nil
}

// CheckGitIntegration inspects the store file within workDir.
func CheckGitIntegration(workDir, storeFile string, fastKDF bool) *GitStatus {
	status := &GitStatus{FastKDF: fastKDF}
	if !IsGitRepo(workDir) {
		return status
	}
	status.IsRepo = true
	status.StoreTracked = IsTracked(workDir, storeFile)
	status.StoreIgnored = IsIgnored(workDir, storeFile)
	return status
}

// FormatGitStatus formats git status for display
func FormatGitStatus(storeFile string, status *GitStatus) string {
	if status == nil || !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit Integration:\n")

	switch {
	case status.StoreTracked && status.FastKDF:
		result.WriteString("   error: " + storeFile + " is tracked by git and uses a fast key derivation\n")
		result.WriteString("      envelopes can be brute-forced offline; run: git rm --cached " + storeFile + "\n")
	case status.StoreTracked:
		result.WriteString("   warning: " + storeFile + " is tracked by git\n")
	case status.StoreIgnored:
		result.WriteString("   ok: " + storeFile + " is in .gitignore\n")
	default:
		result.WriteString("   warning: " + storeFile + " not in .gitignore (add to .gitignore)\n")
	}

	return result.String()
}
