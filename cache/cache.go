// Package cache stores compiled scripts in a local SQLite database,
// keyed by the content hash of the program they were compiled from.
// It lets `tern run` skip recompilation when a source file's program
// has not changed in substance.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chazu/tern/bytecode"
)

// Store is a content-addressed cache of compiled scripts. Scripts are
// kept in their serialized container form, so a cache hit goes through
// the same deserialization validation as loading a .ternc file.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens the cache database at path, creating the file, its parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("cache: creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS scripts (
		hash BLOB PRIMARY KEY,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores a compiled script under key, replacing any previous entry.
func (s *Store) Put(key [32]byte, script *bytecode.Script) error {
	data, err := script.Serialize()
	if err != nil {
		return fmt.Errorf("cache: serializing script: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO scripts (hash, data, created_at) VALUES (?, ?, ?)",
		key[:], data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache: storing script: %w", err)
	}
	return nil
}

// Get returns the script stored under key, or nil on a miss. A stored
// entry that no longer deserializes is an error, not a miss: silently
// recompiling would hide cache corruption.
func (s *Store) Get(key [32]byte) (*bytecode.Script, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM scripts WHERE hash = ?", key[:]).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: querying script: %w", err)
	}

	script, err := bytecode.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("cache: corrupt entry %x: %w", key[:4], err)
	}
	return script, nil
}

// Has reports whether an entry exists under key.
func (s *Store) Has(key [32]byte) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM scripts WHERE hash = ?", key[:]).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: querying script: %w", err)
	}
	return true, nil
}

// Count returns the number of cached scripts.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM scripts").Scan(&n); err != nil {
		return 0, fmt.Errorf("cache: counting scripts: %w", err)
	}
	return n, nil
}
