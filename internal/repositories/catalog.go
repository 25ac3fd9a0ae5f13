package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/shared"
)

// ScopeAll is the cache scope of the unfiltered catalog listing.
const ScopeAll = "all"

// ChannelScope returns the cache scope of one channel's listing.
func ChannelScope(userID int64) string {
	return "channel:" + strconv.FormatInt(userID, 10)
}

// CatalogRepository caches catalog listings by scope.
//
// The remote catalog stays the source of truth; cached rows are only replaced, never edited.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new CatalogRepository with the given database connection
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Replace swaps the cached listing for scope with entries, preserving their order.
func (r *CatalogRepository) Replace(scope string, entries []models.CatalogEntry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", shared.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM catalog_entries WHERE scope = ?", scope); err != nil {
		return fmt.Errorf("failed to clear catalog scope %s: %w", scope, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO catalog_entries (scope, position, id, owner_id, title, description, video_url, thumbnail_url,
			duration, views, channel_name, channel_avatar, created_at, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare catalog insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	if _, err := tx.Exec(`
		INSERT INTO catalog_scopes (scope, cached_at) VALUES (?, ?)
		ON CONFLICT(scope) DO UPDATE SET cached_at = excluded.cached_at
	`, scope, now); err != nil {
		return fmt.Errorf("failed to mark catalog scope %s: %w", scope, err)
	}

	for i, e := range entries {
		_, err := stmt.Exec(scope, i, e.ID, e.OwnerID, e.Title, e.Description, e.VideoURL, e.ThumbnailURL,
			e.Seconds(), e.Views, e.ChannelName, e.ChannelAvatar, e.CreatedAt, now)
		if err != nil {
			return fmt.Errorf("failed to cache catalog entry %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog cache: %w", err)
	}
	return nil
}

// List returns the cached listing for scope and when it was cached.
// A scope cached as empty returns no entries; an uncached scope returns [shared.ErrNotFound].
func (r *CatalogRepository) List(scope string) ([]models.CatalogEntry, time.Time, error) {
	var cachedAt time.Time
	err := r.db.QueryRow("SELECT cached_at FROM catalog_scopes WHERE scope = ?", scope).Scan(&cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, fmt.Errorf("%w: no cached catalog for %s", shared.ErrNotFound, scope)
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: failed to query catalog cache: %v", shared.ErrStorageUnavailable, err)
	}

	rows, err := r.db.Query(`
		SELECT id, COALESCE(owner_id, 0), title, COALESCE(description, ''), video_url, COALESCE(thumbnail_url, ''),
			COALESCE(duration, 0), COALESCE(views, 0), COALESCE(channel_name, ''), COALESCE(channel_avatar, ''),
			COALESCE(created_at, '')
		FROM catalog_entries
		WHERE scope = ?
		ORDER BY position
	`, scope)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: failed to query catalog cache: %v", shared.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	entries := []models.CatalogEntry{}
	for rows.Next() {
		var (
			e        models.CatalogEntry
			duration int64
		)
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.VideoURL, &e.ThumbnailURL,
			&duration, &e.Views, &e.ChannelName, &e.ChannelAvatar, &e.CreatedAt); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		e.Duration = jsonNumber(duration)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to iterate catalog cache: %w", err)
	}
	return entries, cachedAt, nil
}

// Invalidate drops every cached listing.
func (r *CatalogRepository) Invalidate() error {
	for _, table := range []string{"catalog_entries", "catalog_scopes"} {
		if _, err := r.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("%w: failed to invalidate catalog cache: %v", shared.ErrStorageUnavailable, err)
		}
	}
	return nil
}

func jsonNumber(n int64) json.Number {
	return json.Number(strconv.FormatInt(n, 10))
}
