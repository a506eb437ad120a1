package core

import (
	"fmt"
	"os"
	"syscall"

	"github.com/illarion/kakadu/internal/crypto"
	"golang.org/x/term"
)

const (
	PasswordEnv    = "KAKADU_PASSWORD"
	NewPasswordEnv = "KAKADU_NEW_PASSWORD"
)

// ReadPassword reads a password from the terminal without echoing
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	return password, nil
}

// ReadPasswordConfirm reads a password twice and ensures they match
func ReadPasswordConfirm() ([]byte, error) {
	password1, err := ReadPassword("Enter new password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password1)

	password2, err := ReadPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password2)

	if !crypto.ConstantTimeCompare(password1, password2) {
		return nil, fmt.Errorf("passwords do not match")
	}

	result := make([]byte, len(password1))
	copy(result, password1)
	return result, nil
}

// GetPasswordFromEnv reads the password from KAKADU_PASSWORD, or nil if unset.
func GetPasswordFromEnv() []byte {
	return passwordFromEnv(PasswordEnv)
}

// GetNewPasswordFromEnv reads a replacement password from KAKADU_NEW_PASSWORD.
func GetNewPasswordFromEnv() []byte {
	return passwordFromEnv(NewPasswordEnv)
}

func passwordFromEnv(name string) []byte {
	password := os.Getenv(name)
	if password == "" {
		return nil
	}
	result := make([]byte, len(password))
	copy(result, []byte(password))
	return result
}
