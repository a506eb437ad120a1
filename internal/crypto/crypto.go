package crypto

import (
	"crypto/aes"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
)

const (
	KeySize   = 32 // AES-256 key size
	BlockSize = aes.BlockSize
)

var (
	ErrKeyInit           = errors.New("cipher key initialization failed")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// DeriveKey hashes the passphrase into a 256-bit key.
func DeriveKey(passphrase string) []byte {
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:]
}

// Encrypt pads plaintext and encrypts every block under the passphrase key.
func Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	key := DeriveKey(passphrase)
	defer ClearBytes(key)
	return EncryptWithKey(plaintext, key)
}

// EncryptWithKey is Encrypt with an already derived key.
func EncryptWithKey(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyInit, err)
	}

	padded := Pad(plaintext, BlockSize)
	defer ClearBytes(padded)

	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += BlockSize {
		block.Encrypt(out[i:i+BlockSize], padded[i:i+BlockSize])
	}
	return out, nil
}

// Decrypt decrypts every block and strips valid padding.
// Invalid padding is left in place rather than reported.
func Decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	key := DeriveKey(passphrase)
	defer ClearBytes(key)
	return DecryptWithKey(ciphertext, key)
}

// DecryptWithKey is Decrypt with an already derived key.
func DecryptWithKey(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyInit, err)
	}

	if len(ciphertext)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrInvalidCiphertext, len(ciphertext), BlockSize)
	}

	out := make([]byte, len(ciphertext))
	for i := 0; i < len(ciphertext); i += BlockSize {
		block.Decrypt(out[i:i+BlockSize], ciphertext[i:i+BlockSize])
	}
	return Unpad(out, BlockSize), nil
}

// Pad returns a copy of data with PKCS#7 padding appended.
// A block-aligned input gets a full block of padding.
func Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	for i := 0; i < n; i++ {
		out = append(out, byte(n))
	}
	return out
}

// Unpad strips PKCS#7 padding when the trailing bytes form a valid pad.
// Otherwise data is returned unchanged.
func Unpad(data []byte, blockSize int) []byte {
	if len(data) == 0 {
		return data
	}
	n := int(data[len(data)-1])
	if n < 1 || n > blockSize || n > len(data) {
		return data
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return data
		}
	}
	return data[:len(data)-n]
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
