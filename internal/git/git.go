package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Status describes how git sees one vault file
type Status struct {
	IsRepo      bool
	RepoRoot    string
	Tracked     bool // vault committed or staged (bad)
	Ignored     bool // vault covered by .gitignore (good)
	LockIgnored bool
}

// IsGitRepo checks if dir is inside a git work tree
func IsGitRepo(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	return cmd.Run() == nil
}

func repoRoot(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(dir, name string) bool {
	cmd := exec.Command("git", "ls-files", "--", name)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(dir, name string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", name)
	cmd.Dir = dir
	// git check-ignore returns exit code 0 if file is ignored
	return cmd.Run() == nil
}

// Check inspects the vault at vaultPath. A missing git binary or a vault
// outside any repository yields a Status with IsRepo unset.
func Check(vaultPath string) (*Status, error) {
	abs, err := filepath.Abs(vaultPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	dir, name := filepath.Split(abs)

	status := &Status{}
	if _, err := exec.LookPath("git"); err != nil {
		return status, nil
	}
	if !IsGitRepo(dir) {
		return status, nil
	}
	status.IsRepo = true
	if root, err := repoRoot(dir); err == nil {
		status.RepoRoot = root
	}

	status.Tracked = IsTracked(dir, name)
	status.Ignored = IsIgnored(dir, name)
	status.LockIgnored = IsIgnored(dir, name+".lock")
	return status, nil
}

// Format renders status for display, or "" outside a repository
func Format(vaultName string, status *Status) string {
	if !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit Integration:\n")
	if status.RepoRoot != "" {
		result.WriteString(fmt.Sprintf("   repository: %s\n", status.RepoRoot))
	}

	if status.Tracked {
		result.WriteString(fmt.Sprintf("   error: %s is tracked by git (run: git rm --cached %s)\n", vaultName, vaultName))
	} else {
		result.WriteString(fmt.Sprintf("   ok: %s is not tracked by git\n", vaultName))
	}

	switch {
	case !status.Ignored:
		result.WriteString(fmt.Sprintf("   warning: %s not in .gitignore (add to .gitignore)\n", vaultName))
	case !status.LockIgnored:
		result.WriteString(fmt.Sprintf("   warning: %s.lock not in .gitignore\n", vaultName))
	default:
		result.WriteString("   ok: vault and lock file are in .gitignore\n")
	}

	return result.String()
}
