// Package crypto provides the cipher engine for kakadu vault files.
//
// The file format is fixed by existing vaults:
//   - 32-byte key = SHA-256 of the UTF-8 passphrase (no salt, single pass)
//   - AES-256 applied to each 16-byte block independently (no IV, no chaining)
//   - PKCS#7 padding, always at least one pad byte
//
// There is no authentication tag. A wrong passphrase is not detected here;
// it shows up when the decrypted bytes fail to parse.
//
// Memory safety:
//   - Use ClearBytes() to zero derived keys and plaintext after use
package crypto
