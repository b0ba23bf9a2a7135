package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/metrics"
)

// Cache kinds, one TTL each
const (
	kindSearch     = "search"
	kindCategory   = "category"
	kindCategories = "categories"
	kindProduct    = "product"
	kindPromotions = "promotions"
)

// CacheTTLs holds the expiry per cached operation kind
type CacheTTLs struct {
	Search     time.Duration
	Category   time.Duration
	Categories time.Duration
	Product    time.Duration
	Promotions time.Duration
}

// DefaultCacheTTLs returns the expiry used when a source does not configure one
func DefaultCacheTTLs() CacheTTLs {
	return CacheTTLs{
		Search:     5 * time.Minute,
		Category:   10 * time.Minute,
		Categories: time.Hour,
		Product:    15 * time.Minute,
		Promotions: 5 * time.Minute,
	}
}

func (t CacheTTLs) withDefaults() CacheTTLs {
	def := DefaultCacheTTLs()
	if t.Search <= 0 {
		t.Search = def.Search
	}
	if t.Category <= 0 {
		t.Category = def.Category
	}
	if t.Categories <= 0 {
		t.Categories = def.Categories
	}
	if t.Product <= 0 {
		t.Product = def.Product
	}
	if t.Promotions <= 0 {
		t.Promotions = def.Promotions
	}
	return t
}

func (t CacheTTLs) forKind(kind string) time.Duration {
	switch kind {
	case kindSearch:
		return t.Search
	case kindCategory:
		return t.Category
	case kindCategories:
		return t.Categories
	case kindProduct:
		return t.Product
	default:
		return t.Promotions
	}
}

// responseCache namespaces cached upstream answers under "<source>:".
// A nil store disables caching.
type responseCache struct {
	store  domain.CacheRepository
	source domain.SourceID
	ttl    CacheTTLs
	logger *zap.Logger
}

func newResponseCache(store domain.CacheRepository, source domain.SourceID, ttl CacheTTLs, logger *zap.Logger) *responseCache {
	return &responseCache{store: store, source: source, ttl: ttl.withDefaults(), logger: logger}
}

func (c *responseCache) key(kind, suffix string) string {
	return string(c.source) + ":" + kind + ":" + suffix
}

// fetchCached returns the cached value for (kind, suffix) or calls fetch and stores its result.
// Cache failures never fail the call.
func fetchCached[T any](ctx context.Context, c *responseCache, kind, suffix string, fetch func(context.Context) (T, error)) (T, error) {
	if c == nil || c.store == nil {
		return fetch(ctx)
	}

	key := c.key(kind, suffix)
	if data, err := c.store.Get(ctx, key); err == nil {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			metrics.RecordCacheLookup(string(c.source), kind, true)
			return cached, nil
		}
		c.logger.Warn("dropping undecodable cache entry", zap.String("key", key))
		_ = c.store.Delete(ctx, key)
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.RecordCacheLookup(string(c.source), kind, false)

	value, err := fetch(ctx)
	if err != nil {
		return value, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return value, nil
	}
	if err := c.store.Set(ctx, key, data, c.ttl.forKind(kind)); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

// Invalidate removes this source's entries whose key (after "<source>:") starts with prefix
func (c *responseCache) Invalidate(ctx context.Context, prefix string) (int, error) {
	if c == nil || c.store == nil {
		return 0, nil
	}
	return c.store.InvalidatePrefix(ctx, string(c.source)+":"+strings.TrimPrefix(prefix, string(c.source)+":"))
}

// Clear removes every entry of this source
func (c *responseCache) Clear(ctx context.Context) error {
	_, err := c.Invalidate(ctx, "")
	return err
}
