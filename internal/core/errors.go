package core

import (
	"errors"

	"github.com/illarion/kakadu/internal/crypto"
	"github.com/illarion/kakadu/internal/vault"
)

var (
	ErrIO          = errors.New("read/write failed")
	ErrFormat      = errors.New("vault file could not be decoded (wrong password or corrupted file)")
	ErrNotFound    = errors.New("not found")
	ErrNoData      = errors.New("no vault data loaded")
	ErrPoisoned    = errors.New("vault store is unusable after a failed operation")
	ErrIDExhausted = vault.ErrIDExhausted
	ErrKeyInit     = crypto.ErrKeyInit
)
