// Package git reports whether a vault file is exposed through a git
// repository.
//
// Checks performed:
//   - Whether the vault file is tracked by git
//   - Whether the vault and its lock file are covered by .gitignore
//
// The vault format uses an unsalted key and block-wise encryption, so a
// committed vault leaks structure to anyone with repository access.
package git
