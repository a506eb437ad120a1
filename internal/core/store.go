package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/illarion/kakadu/internal/crypto"
	"github.com/illarion/kakadu/internal/vault"
)

const FilePermSecure = 0600 // File: owner rw only

// RecordInput holds the editable fields of a record.
// An empty symbol is stored as vault.SymbolNone.
type RecordInput struct {
	Name           string
	Login          string
	Password       string
	URL            string
	LoginSymbol    vault.Symbol
	PasswordSymbol vault.Symbol
	URLSymbol      vault.Symbol
}

func (in RecordInput) record(id, pid uint32) (vault.Record, error) {
	r := vault.Record{
		ID:             id,
		PID:            pid,
		Name:           in.Name,
		Login:          in.Login,
		Password:       in.Password,
		URL:            in.URL,
		LoginSymbol:    in.LoginSymbol,
		PasswordSymbol: in.PasswordSymbol,
		URLSymbol:      in.URLSymbol,
	}
	for _, sym := range []*vault.Symbol{&r.LoginSymbol, &r.PasswordSymbol, &r.URLSymbol} {
		if *sym == "" {
			*sym = vault.SymbolNone
		}
		if !sym.Valid() {
			return vault.Record{}, fmt.Errorf("%w: %q", vault.ErrInvalidSymbol, string(*sym))
		}
	}
	return r, nil
}

// Option configures a Store
type Option func(*Store)

// WithNotifier sets where change notifications go.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithLogger sets the store logger.
func WithLogger(l Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store owns a single vault aggregate. The zero state holds no vault;
// Open or Reset loads one. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	data     *vault.Data
	poisoned bool

	notifier Notifier
	logger   Logger
}

// NewStore creates a store holding no vault
func NewStore(opts ...Option) *Store {
	s := &Store{
		notifier: NopNotifier{},
		logger:   NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFresh returns a vault holding only the root group.
func CreateFresh(rootName string) *vault.Data {
	return vault.NewData(rootName)
}

// critical runs fn under the store lock. A panic inside fn poisons the
// store; every later call then fails with ErrPoisoned.
func (s *Store) critical(needData bool, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return ErrPoisoned
	}
	if needData && s.data == nil {
		return ErrNoData
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			s.logger.Error("panic inside vault critical section, store poisoned", "panic", r)
			panic(r)
		}
	}()
	return fn()
}

// Loaded reports whether a vault is held
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data != nil
}

// Reset replaces the held vault with a fresh one.
func (s *Store) Reset(rootName string) error {
	var groups []vault.Group
	err := s.critical(false, func() error {
		s.data = CreateFresh(rootName)
		groups = s.groupsLocked()
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("created fresh vault")
	s.notifyGroups(groups)
	return nil
}

// Open reads, decrypts and decodes the vault at path and replaces the held
// vault with it. The held vault is untouched on any failure.
func (s *Store) Open(ctx context.Context, path, passphrase string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := ReadVaultFile(path, passphrase)
	if err != nil {
		s.logger.Warn("open vault failed", "path", path, "error", err)
		return err
	}

	// The transform is not interruptible; a cancelled caller abandons the result.
	if err := ctx.Err(); err != nil {
		return err
	}

	var groups []vault.Group
	err = s.critical(false, func() error {
		s.data = data
		groups = s.groupsLocked()
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("opened vault", "path", path, "groups", len(data.Groups), "records", len(data.Records))
	s.notifyGroups(groups)
	return nil
}

// Save encrypts the held vault and writes it to path.
func (s *Store) Save(ctx context.Context, path, passphrase string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var groups, records int
	err := s.critical(true, func() error {
		groups, records = len(s.data.Groups), len(s.data.Records)
		return WriteVaultFile(path, passphrase, s.data)
	})
	if err != nil {
		s.logger.Warn("save vault failed", "path", path, "error", err)
		return err
	}

	s.logger.Info("saved vault", "path", path, "groups", groups, "records", records)
	return nil
}

// Snapshot returns a deep copy of the held vault.
func (s *Store) Snapshot() (*vault.Data, error) {
	var out *vault.Data
	err := s.critical(true, func() error {
		out = s.data.Clone()
		return nil
	})
	return out, err
}

// ListGroups returns a copy of every group
func (s *Store) ListGroups() ([]vault.Group, error) {
	var out []vault.Group
	err := s.critical(true, func() error {
		out = s.groupsLocked()
		return nil
	})
	return out, err
}

// ListRecords returns copies of the records whose parent is parentID.
func (s *Store) ListRecords(parentID uint32) ([]vault.Record, error) {
	var out []vault.Record
	err := s.critical(true, func() error {
		out = s.data.RecordsIn(parentID)
		return nil
	})
	return out, err
}

// GetRecord returns a copy of one record.
func (s *Store) GetRecord(id uint32) (vault.Record, error) {
	var out vault.Record
	err := s.critical(true, func() error {
		r := s.data.FindRecord(id)
		if r == nil {
			return fmt.Errorf("record %d: %w", id, ErrNotFound)
		}
		out = *r
		return nil
	})
	return out, err
}

// AddGroup creates a group under parentID with the next free id.
func (s *Store) AddGroup(parentID uint32, name string) (vault.Group, error) {
	var (
		created vault.Group
		groups  []vault.Group
	)
	err := s.critical(true, func() error {
		g, err := s.data.AddGroup(parentID, name)
		if err != nil {
			return err
		}
		created, groups = g, s.groupsLocked()
		return nil
	})
	if err != nil {
		return vault.Group{}, err
	}

	s.logger.Debug("added group", "id", created.ID, "pid", created.PID)
	s.notifyGroups(groups)
	return created, nil
}

// RenameGroup changes the name of a group
func (s *Store) RenameGroup(id uint32, name string) (vault.Group, error) {
	var (
		updated vault.Group
		groups  []vault.Group
	)
	err := s.critical(true, func() error {
		g := s.data.FindGroup(id)
		if g == nil {
			return fmt.Errorf("group %d: %w", id, ErrNotFound)
		}
		g.Name = name
		updated, groups = *g, s.groupsLocked()
		return nil
	})
	if err != nil {
		return vault.Group{}, err
	}

	s.logger.Debug("renamed group", "id", id)
	s.notifyGroups(groups)
	return updated, nil
}

// RemoveGroup deletes a group. Child groups and records are kept as orphans.
func (s *Store) RemoveGroup(id uint32) (uint32, error) {
	var groups []vault.Group
	err := s.critical(true, func() error {
		if !s.data.RemoveGroup(id) {
			return fmt.Errorf("group %d: %w", id, ErrNotFound)
		}
		groups = s.groupsLocked()
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("removed group", "id", id)
	s.notifyGroups(groups)
	return id, nil
}

// AddRecord creates a record under parentID with the next free id.
func (s *Store) AddRecord(parentID uint32, in RecordInput) (vault.Record, error) {
	var (
		created vault.Record
		records []vault.Record
	)
	err := s.critical(true, func() error {
		r, err := in.record(0, parentID)
		if err != nil {
			return err
		}
		if created, err = s.data.AddRecord(r); err != nil {
			return err
		}
		records = s.data.RecordsIn(parentID)
		return nil
	})
	if err != nil {
		return vault.Record{}, err
	}

	s.logger.Debug("added record", "id", created.ID, "pid", created.PID)
	s.notifyRecords(parentID, records)
	return created, nil
}

// UpdateRecord replaces the editable fields of a record, keeping its id and parent.
func (s *Store) UpdateRecord(id uint32, in RecordInput) (vault.Record, error) {
	var (
		updated vault.Record
		records []vault.Record
	)
	err := s.critical(true, func() error {
		r := s.data.FindRecord(id)
		if r == nil {
			return fmt.Errorf("record %d: %w", id, ErrNotFound)
		}
		next, err := in.record(r.ID, r.PID)
		if err != nil {
			return err
		}
		*r = next
		updated, records = next, s.data.RecordsIn(next.PID)
		return nil
	})
	if err != nil {
		return vault.Record{}, err
	}

	s.logger.Debug("updated record", "id", id)
	s.notifyRecords(updated.PID, records)
	return updated, nil
}

// RenameRecord changes only the name of a record
func (s *Store) RenameRecord(id uint32, name string) (vault.Record, error) {
	var (
		updated vault.Record
		records []vault.Record
	)
	err := s.critical(true, func() error {
		r := s.data.FindRecord(id)
		if r == nil {
			return fmt.Errorf("record %d: %w", id, ErrNotFound)
		}
		r.Name = name
		updated, records = *r, s.data.RecordsIn(r.PID)
		return nil
	})
	if err != nil {
		return vault.Record{}, err
	}

	s.logger.Debug("renamed record", "id", id)
	s.notifyRecords(updated.PID, records)
	return updated, nil
}

// RemoveRecord deletes a record
func (s *Store) RemoveRecord(id uint32) (uint32, error) {
	var (
		parentID uint32
		records  []vault.Record
	)
	err := s.critical(true, func() error {
		r := s.data.FindRecord(id)
		if r == nil {
			return fmt.Errorf("record %d: %w", id, ErrNotFound)
		}
		parentID = r.PID
		s.data.RemoveRecord(id)
		records = s.data.RecordsIn(parentID)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("removed record", "id", id)
	s.notifyRecords(parentID, records)
	return id, nil
}

// groupsLocked copies the group list. Caller holds s.mu.
func (s *Store) groupsLocked() []vault.Group {
	out := make([]vault.Group, len(s.data.Groups))
	copy(out, s.data.Groups)
	return out
}

func (s *Store) notifyGroups(groups []vault.Group) {
	if err := s.notifier.GroupsChanged(groups); err != nil {
		s.logger.Warn("groups notification failed", "error", err)
	}
}

func (s *Store) notifyRecords(parentID uint32, records []vault.Record) {
	if err := s.notifier.RecordsChanged(parentID, records); err != nil {
		s.logger.Warn("records notification failed", "pid", parentID, "error", err)
	}
}

// ReadVaultFile reads and decrypts a vault file without touching any store.
func ReadVaultFile(path, passphrase string) (*vault.Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	plain, err := crypto.Decrypt(raw, passphrase)
	if err != nil {
		if errors.Is(err, crypto.ErrInvalidCiphertext) {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		return nil, err
	}
	defer crypto.ClearBytes(plain)

	data, err := vault.Decode(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return data, nil
}

// WriteVaultFile encodes, encrypts and atomically writes data to path.
func WriteVaultFile(path, passphrase string, data *vault.Data) error {
	plain, err := vault.Encode(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	defer crypto.ClearBytes(plain)

	encrypted, err := crypto.Encrypt(plain, passphrase)
	if err != nil {
		return err
	}

	if err := atomicWriteFile(path, encrypted, FilePermSecure); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// atomicWriteFile writes to a temp file in the target directory and renames
// it over path, so readers never see a partial vault.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
