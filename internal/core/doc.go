// Package core provides the kakadu vault store.
//
// A Store owns one vault aggregate behind a single mutex:
//   - Open: read a vault file, decrypt it and replace the held vault
//   - Save: encode and encrypt the held vault, then write it atomically
//   - Reset: replace the held vault with a fresh one holding only the root group
//   - Group and record CRUD, all sharing one id space
//
// Every operation takes the same lock for its whole critical section, so
// no caller ever sees a half-applied mutation. Changes are pushed to a
// Notifier after the lock is released; notifier failures are logged and
// never undo the mutation.
package core
