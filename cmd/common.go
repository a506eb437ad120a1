package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/illarion/kakadu/internal/core"
	"github.com/illarion/kakadu/internal/vault"
)

var (
	ErrVaultBusy   = errors.New("vault is in use by another kakadu process")
	ErrVaultExists = errors.New("vault already exists")
)

// promptPassword reads a password from the terminal.
// The caller is responsible for calling crypto.ClearBytes on the returned password
func promptPassword(prompt string) ([]byte, error) {
	password, err := core.ReadPassword(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) == 0 {
		return nil, errors.New("empty password")
	}
	return password, nil
}

// GetPasswordForNew returns the passphrase for a vault being created.
// Checks environment variables first, then prompts with confirmation
func GetPasswordForNew() ([]byte, error) {
	if password := core.GetNewPasswordFromEnv(); password != nil {
		return password, nil
	}
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, nil
	}
	return core.ReadPasswordConfirm()
}

// GetNewPassword returns a replacement passphrase from KAKADU_NEW_PASSWORD
// or a confirmed prompt.
func GetNewPassword() ([]byte, error) {
	if password := core.GetNewPasswordFromEnv(); password != nil {
		return password, nil
	}
	return core.ReadPasswordConfirm()
}

// parseID parses a group or record id argument
func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: must be a number", s)
	}
	return uint32(id), nil
}

// describeError maps known errors to a message and an optional hint.
func describeError(err error) (msg, hint string) {
	switch {
	case errors.Is(err, core.ErrFormat):
		return "wrong passphrase or corrupted vault file", ""
	case errors.Is(err, core.ErrNotFound):
		return err.Error(), "Use 'kakadu groups' to see ids"
	case errors.Is(err, core.ErrNoData):
		return "no vault loaded", "Run 'kakadu new' to create one"
	case errors.Is(err, core.ErrPoisoned):
		return "vault store became unusable, no changes were saved", ""
	case errors.Is(err, core.ErrKeyInit):
		return "could not initialize the cipher", ""
	case errors.Is(err, core.ErrIDExhausted):
		return "no free ids left in this vault", ""
	case errors.Is(err, vault.ErrInvalidSymbol):
		return err.Error(), "Valid symbols: TAB, ENTER, SPACE, NONE"
	case errors.Is(err, ErrVaultBusy):
		return err.Error(), "Wait for the other process to finish"
	case errors.Is(err, ErrVaultExists):
		return err.Error(), "Choose another path with --vault"
	case errors.Is(err, core.ErrIO):
		if errors.Is(err, os.ErrNotExist) {
			return err.Error(), "Run 'kakadu new' to create the vault"
		}
		return err.Error(), ""
	default:
		return err.Error(), ""
	}
}

func printError(w io.Writer, err error) {
	msg, hint := describeError(err)
	fmt.Fprintf(w, "Error: %s\n", msg)
	if hint != "" {
		fmt.Fprintln(w, hint)
	}
}

// HandleError handles common errors consistently
func HandleError(err error) {
	printError(os.Stderr, err)
	os.Exit(1)
}
