// Package storage provides the local kakadu state database (BBolt).
//
// The state database never holds secrets. Buckets:
//   - config: schema version
//   - recent: vault files opened on this machine, keyed by absolute path
//   - ids: a stable uuid per vault path, used as the keyring account name
//
// BBolt provides ACID transactions and file locking, so several kakadu
// processes can share one state file.
package storage
