package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/teltube/internal/shared"
)

// KeyValueStore is a durable string key/value store.
//
// SetMany must write all pairs or none.
type KeyValueStore interface {
	Get(key string) (value string, ok bool, err error)
	SetMany(pairs map[string]string) error
	Delete(keys ...string) error
}

// SQLiteStore implements [KeyValueStore] on the kv_store table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore with the given database connection
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get returns the value stored under key. A missing key is not an error.
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to read %s: %v", shared.ErrStorageUnavailable, key, err)
	}
	return value, true, nil
}

// SetMany upserts every pair in a single transaction.
func (s *SQLiteStore) SetMany(pairs map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", shared.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	for key, value := range pairs {
		if _, err := tx.Exec(query, key, value); err != nil {
			return fmt.Errorf("%w: failed to write %s: %v", shared.ErrStorageUnavailable, key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit: %v", shared.ErrStorageUnavailable, err)
	}
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (s *SQLiteStore) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	if _, err := s.db.Exec("DELETE FROM kv_store WHERE key IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("%w: failed to delete keys: %v", shared.ErrStorageUnavailable, err)
	}
	return nil
}
