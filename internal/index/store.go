package index

import (
	"errors"
	"fmt"
	bolt "go.etcd.io/bbolt"
	"os"
	"path/filepath"
	"time"
)

const DefaultLockTimeout = time.Second

// Store is the bbolt-backed metadata index.
type Store struct {
	db   *bolt.DB
	path string
}

type OpenOptions struct {
	Path string // e.g. ".folio/index.db"
	// ReadOnly takes a shared lock, so readers can run alongside each other.
	// The file must already exist.
	ReadOnly bool
	// LockTimeout bounds the wait for the file lock. Zero means DefaultLockTimeout.
	LockTimeout time.Duration
}

func Open(opt OpenOptions) (*Store, error) {
	if opt.Path == "" {
		return nil, errors.New("index: missing path")
	}
	if opt.LockTimeout < 0 {
		return nil, errors.New("index: negative lock timeout")
	}
	timeout := opt.LockTimeout
	if timeout == 0 {
		timeout = DefaultLockTimeout
	}

	if opt.ReadOnly {
		if _, err := os.Stat(opt.Path); err != nil {
			return nil, fmt.Errorf("index: %w", err)
		}
	} else if err := os.MkdirAll(filepath.Dir(opt.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(opt.Path, 0o600, &bolt.Options{
		Timeout:  timeout,
		ReadOnly: opt.ReadOnly,
	})
	if errors.Is(err, bolt.ErrTimeout) {
		return nil, fmt.Errorf("index: %s is locked by another process", opt.Path)
	}
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: opt.Path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) ReadOnly() bool { return s.db != nil && s.db.IsReadOnly() }

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
