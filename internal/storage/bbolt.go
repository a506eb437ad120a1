package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const schemaVersion = "1"

// Bucket names
var (
	ConfigBucket = []byte("config")
	RecentBucket = []byte("recent")
	IDsBucket    = []byte("ids")
)

// Config keys
var (
	ConfigVersion = []byte("version")
	ConfigCreated = []byte("created")
)

// RecentEntry describes a vault file that was opened or saved.
type RecentEntry struct {
	Path       string    `json:"path"`
	LastOpened time.Time `json:"lastOpened"`
	Groups     int       `json:"groups"`
	Records    int       `json:"records"`
}

// Storage provides BBolt-based state storage for kakadu
type Storage struct {
	db *bolt.DB
}

// Open opens or creates the state database and its buckets
func Open(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

func (s *Storage) initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, RecentBucket, IDsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte(schemaVersion)); err != nil {
			return err
		}
		created, _ := time.Now().MarshalBinary()
		return config.Put(ConfigCreated, created)
	})
}

// Version returns the stored schema version
func (s *Storage) Version() (string, error) {
	var version string
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(ConfigBucket).Get(ConfigVersion)
		if data == nil {
			return fmt.Errorf("version not found")
		}
		version = string(data)
		return nil
	})
	return version, err
}

// key normalizes a vault path so the same file always maps to one entry.
func key(vaultPath string) ([]byte, error) {
	abs, err := filepath.Abs(vaultPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", vaultPath, err)
	}
	return []byte(filepath.Clean(abs)), nil
}

// TouchRecent records that vaultPath was just opened or saved
func (s *Storage) TouchRecent(vaultPath string, groups, records int) error {
	k, err := key(vaultPath)
	if err != nil {
		return err
	}
	entry := RecentEntry{
		Path:       string(k),
		LastOpened: time.Now(),
		Groups:     groups,
		Records:    records,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(RecentBucket).Put(k, data)
	})
}

// Recent returns recent entries, most recently opened first
func (s *Storage) Recent() ([]RecentEntry, error) {
	var entries []RecentEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(RecentBucket).ForEach(func(k, v []byte) error {
			var entry RecentEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("corrupt recent entry %s: %w", k, err)
			}
			entries = append(entries, entry)
			return nil
		})
	})
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastOpened.After(entries[j].LastOpened)
	})
	return entries, err
}

// ForgetRecent removes a vault from the recent list
func (s *Storage) ForgetRecent(vaultPath string) error {
	k, err := key(vaultPath)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(RecentBucket).Delete(k)
	})
}

// ClearRecent empties the recent list
func (s *Storage) ClearRecent() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(RecentBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(RecentBucket)
		return err
	})
}

// GetVaultID retrieves the id assigned to vaultPath
func (s *Storage) GetVaultID(vaultPath string) (string, error) {
	k, err := key(vaultPath)
	if err != nil {
		return "", err
	}
	var vaultID string
	err = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(IDsBucket).Get(k)
		if data == nil {
			return fmt.Errorf("vault_id not found")
		}
		vaultID = string(data)
		return nil
	})
	return vaultID, err
}

// GetOrCreateVaultID retrieves the existing vault ID or assigns a new one
func (s *Storage) GetOrCreateVaultID(vaultPath string) (string, error) {
	k, err := key(vaultPath)
	if err != nil {
		return "", err
	}
	var vaultID string
	err = s.db.Update(func(tx *bolt.Tx) error {
		ids := tx.Bucket(IDsBucket)
		if data := ids.Get(k); data != nil {
			vaultID = string(data)
			return nil
		}
		vaultID = uuid.New().String()
		return ids.Put(k, []byte(vaultID))
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate vault ID: %w", err)
	}
	return vaultID, nil
}

// Compact creates a compacted copy of the database, removing unused space.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	// Copy all buckets
	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Remove(tmpPath)
		if db, reopenErr := bolt.Open(srcPath, 0600, nil); reopenErr == nil {
			s.db = db
		}
		return fmt.Errorf("failed to replace database: %w", err)
	}

	s.db, err = bolt.Open(srcPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}
