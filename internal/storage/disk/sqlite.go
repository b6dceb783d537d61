// Package disk implements the key-value store on SQLite so client state
// survives restarts.
package disk

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cynerra/scanwatch/internal/storage/interfaces"
	"github.com/cynerra/scanwatch/internal/werrors"
)

// SQLiteStore implements interfaces.KeyValueStore on a single kv table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the store at the default path, honoring
// SCANWATCH_DB_PATH for tests and alternate setups.
func NewSQLiteStore() (interfaces.KeyValueStore, error) {
	dbPath := os.Getenv("SCANWATCH_DB_PATH")
	if dbPath == "" {
		dataDir := filepath.Join(os.Getenv("HOME"), ".local", "share", "scanwatch")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, werrors.Wrap(err, werrors.CodeStorageOpen, "failed to create data directory")
		}
		dbPath = filepath.Join(dataDir, "state.db")
	}

	return NewSQLiteStoreWithPath(dbPath)
}

// NewSQLiteStoreWithPath opens (and if needed creates) the store at dbPath.
func NewSQLiteStoreWithPath(dbPath string) (interfaces.KeyValueStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, werrors.Wrap(err, werrors.CodeStorageOpen, "failed to create data directory")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, werrors.Wrap(err, werrors.CodeStorageOpen, "failed to open database")
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, werrors.Wrap(err, werrors.CodeStorageOpen, "failed to migrate database")
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Get returns the stored value for key.
func (s *SQLiteStore) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set writes the value for key, replacing any previous value.
func (s *SQLiteStore) Set(key string, value []byte) error {
	query := `
	INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = CURRENT_TIMESTAMP
	`
	_, err := s.db.Exec(query, key, value)
	return err
}

// Delete removes key if present.
func (s *SQLiteStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
