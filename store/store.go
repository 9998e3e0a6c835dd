// Package store persists per-session captures, settings and font artifacts.
//
// Storage is a single SQLite database in WAL mode. Every operation is scoped
// by an opaque session ID; writes to the same (session, glyph) key are
// serialized through an in-process lock table while unrelated keys proceed
// independently.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/emojiworks/facefont/emoji"
)

// Errors returned by the store.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConcurrentModification indicates another write to the same
	// (session, glyph) key is in flight. The caller should retry.
	ErrConcurrentModification = errors.New("store: concurrent modification")

	// ErrInvalidSessionID indicates a malformed session identifier.
	ErrInvalidSessionID = errors.New("store: invalid session id")
)

// currentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const currentSchemaVersion = 1

// Config holds store configuration.
type Config struct {
	// Path is the SQLite database file. Parent directories are created.
	Path string

	// Registry supplies the standard glyph ordering for List.
	// Defaults to emoji.Default().
	Registry *emoji.Registry

	// MaxOpenConns and MaxIdleConns tune the connection pool when non-zero.
	MaxOpenConns int
	MaxIdleConns int
}

// Store is a session-scoped capture store backed by SQLite.
type Store struct {
	db       *sql.DB
	registry *emoji.Registry
	locks    keyLocks
}

// Open opens (and if necessary creates) the store database at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("store: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, fmt.Errorf("store: create base directory: %w", err)
	}

	// Pragmas in the connection string apply to every pooled connection.
	dsn := cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	registry := cfg.Registry
	if registry == nil {
		registry = emoji.Default()
	}

	return &Store{db: db, registry: registry, locks: newKeyLocks()}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("store: read schema version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
	  id                TEXT PRIMARY KEY,
	  created_at        INTEGER NOT NULL,
	  last_activity     INTEGER NOT NULL,
	  last_capture_edit INTEGER,
	  last_generation   INTEGER
	);

	CREATE TABLE IF NOT EXISTS captures (
	  session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	  hex_key    TEXT NOT NULL,
	  glyph      TEXT NOT NULL,
	  name       TEXT NOT NULL,
	  is_custom  INTEGER NOT NULL,
	  position   INTEGER NOT NULL,
	  png        BLOB NOT NULL,
	  updated_at INTEGER NOT NULL,
	  PRIMARY KEY (session_id, hex_key)
	);

	CREATE INDEX IF NOT EXISTS idx_captures_session_position
	ON captures(session_id, position);

	CREATE TABLE IF NOT EXISTS settings (
	  session_id       TEXT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
	  padding          REAL NOT NULL,
	  keep_background  INTEGER NOT NULL,
	  keep_clothes     INTEGER NOT NULL,
	  keep_accessories INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS artifacts (
	  session_id   TEXT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
	  font_name    TEXT NOT NULL,
	  woff2        BLOB NOT NULL,
	  generated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("store: set schema version: %w", err)
	}
	return nil
}
