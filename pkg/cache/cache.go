// Package cache stores compiled programs in SQLite, keyed by the content
// hash of the source AST. Recompiling an unchanged module becomes a single
// indexed read, which keeps the edit-render loop fast.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/brio-lang/brio/pkg/bytecode"
)

// ErrNotFound indicates no cached program exists for the key.
var ErrNotFound = errors.New("program not found")

// Cache is a SQLite-backed program store. Safe for concurrent use.
type Cache struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) a cache database at path. Use ":memory:"
// for an ephemeral cache.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		key     TEXT PRIMARY KEY,
		program BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Key derives the cache key for a module's AST JSON: the hex SHA-256 of the
// exact bytes. Formatting changes that alter the JSON alter the key, which
// is acceptable; the cache trades occasional misses for never serving a
// stale program.
func Key(astJSON []byte) string {
	sum := sha256.Sum256(astJSON)
	return hex.EncodeToString(sum[:])
}

// Put stores a compiled program under key, replacing any previous entry.
func (c *Cache) Put(key string, prog *bytecode.Program) error {
	data, err := bytecode.Marshal(prog)
	if err != nil {
		return fmt.Errorf("encoding program: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO programs (key, program) VALUES (?, ?)",
		key, data,
	)
	if err != nil {
		return fmt.Errorf("saving program: %w", err)
	}
	return nil
}

// Get loads the cached program for key, or ErrNotFound.
func (c *Cache) Get(key string) (*bytecode.Program, error) {
	var data []byte
	err := c.db.QueryRow("SELECT program FROM programs WHERE key = ?", key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying program: %w", err)
	}
	prog, err := bytecode.Unmarshal(data)
	if err != nil {
		// A decode failure means the entry was written by an older format
		// version; treat it as a miss so the caller recompiles.
		return nil, ErrNotFound
	}
	return prog, nil
}
