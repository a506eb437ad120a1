// Package keyring caches vault passphrases in the OS keyring, keyed by the
// vault id issued by the state database.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const DefaultService = "kakadu"

// ErrNotFound is returned when no passphrase is stored for a vault
var ErrNotFound = keyring.ErrNotFound

// Keyring stores passphrases under one service name
type Keyring struct {
	service string
}

// New returns a keyring using service, or DefaultService when empty
func New(service string) *Keyring {
	if service == "" {
		service = DefaultService
	}
	return &Keyring{service: service}
}

// SavePassword stores a password in the OS keyring
func (k *Keyring) SavePassword(vaultID string, password string) error {
	if vaultID == "" {
		return errors.New("empty vault id")
	}
	return keyring.Set(k.service, vaultID, password)
}

// GetPassword retrieves a password from the OS keyring
func (k *Keyring) GetPassword(vaultID string) (string, error) {
	return keyring.Get(k.service, vaultID)
}

// DeletePassword removes a password from the OS keyring
func (k *Keyring) DeletePassword(vaultID string) error {
	return keyring.Delete(k.service, vaultID)
}

// HasPassword checks if a password is stored in the keyring
func (k *Keyring) HasPassword(vaultID string) bool {
	_, err := keyring.Get(k.service, vaultID)
	return err == nil
}
