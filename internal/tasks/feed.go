package tasks

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/repositories"
	"github.com/desertthunder/teltube/internal/shared"
)

// Lister fetches catalog listings. Implemented by [services.CatalogService].
type Lister interface {
	List(ctx context.Context, ownerID *int64) ([]models.CatalogEntry, error)
}

// CatalogCache keeps the last listing per scope. Implemented by [repositories.CatalogRepository].
type CatalogCache interface {
	Replace(scope string, entries []models.CatalogEntry) error
	List(scope string) ([]models.CatalogEntry, time.Time, error)
	Invalidate() error
}

// FeedResult is a catalog listing and where it came from.
type FeedResult struct {
	Entries  []models.CatalogEntry
	Stale    bool      // served from the cache because the catalog was unreachable
	CachedAt time.Time // set when Stale
}

// CatalogFeed lists the catalog, caching each listing and falling back to the cache when the
// catalog endpoint cannot be reached. The cache is read-only: nothing is queued for later.
type CatalogFeed struct {
	catalog Lister
	cache   CatalogCache
	logger  *log.Logger
}

// NewCatalogFeed creates a CatalogFeed. cache may be nil to disable caching.
func NewCatalogFeed(catalog Lister, cache CatalogCache, logger *log.Logger) *CatalogFeed {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &CatalogFeed{catalog: catalog, cache: cache, logger: logger}
}

// Refresh fetches the newest listing, or one channel's listing when ownerID is non-nil.
func (f *CatalogFeed) Refresh(ctx context.Context, ownerID *int64) (*FeedResult, error) {
	scope := repositories.ScopeAll
	if ownerID != nil {
		scope = repositories.ChannelScope(*ownerID)
	}

	entries, err := f.catalog.List(ctx, ownerID)
	if err == nil {
		if f.cache != nil {
			if cacheErr := f.cache.Replace(scope, entries); cacheErr != nil {
				f.logger.Warn("failed to cache catalog listing", "scope", scope, "error", cacheErr)
			}
		}
		return &FeedResult{Entries: entries}, nil
	}

	if f.cache == nil || !(errors.Is(err, shared.ErrTransport) || errors.Is(err, shared.ErrServiceUnavailable)) {
		return nil, err
	}

	cached, cachedAt, cacheErr := f.cache.List(scope)
	if cacheErr != nil {
		return nil, err
	}
	f.logger.Warn("catalog unreachable, showing cached listing", "scope", scope, "cached_at", cachedAt, "error", err)
	return &FeedResult{Entries: cached, Stale: true, CachedAt: cachedAt}, nil
}

// Invalidate drops every cached listing so the next Refresh cannot serve stale entries.
func (f *CatalogFeed) Invalidate() {
	if f.cache == nil {
		return
	}
	if err := f.cache.Invalidate(); err != nil {
		f.logger.Warn("failed to invalidate catalog cache", "error", err)
	}
}
