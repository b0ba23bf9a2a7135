package domain

import (
	"context"
	"time"
)

// CacheEntry is a stored value with its creation and expiry stamps
type CacheEntry struct {
	Data      []byte    `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the entry must no longer be returned at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// CacheRepository defines the interface for caching operations.
// Implementations must never return an entry past its expiry.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
	Clear(ctx context.Context) error
}

// SortBy orders search results
type SortBy string

const (
	SortRelevance    SortBy = "relevance"
	SortPriceAsc     SortBy = "price_asc"
	SortPriceDesc    SortBy = "price_desc"
	SortUnitPriceAsc SortBy = "unit_price_asc"
	SortName         SortBy = "name"
)

// SearchOptions are the parameters of a catalog search
type SearchOptions struct {
	Query          string `json:"query"`
	Limit          int    `json:"limit"`
	SortBy         SortBy `json:"sortBy"`
	InStockOnly    bool   `json:"inStockOnly"`
	OrganicOnly    bool   `json:"organicOnly"`
	PromotionsOnly bool   `json:"promotionsOnly"`
	MaxPriceCents  *int64 `json:"maxPriceCents,omitempty"`
}

// SearchResult is the answer of a catalog search
type SearchResult struct {
	Products     []Product `json:"products"`
	TotalCount   int       `json:"totalCount"`
	Query        string    `json:"query"`
	SearchTimeMs int64     `json:"searchTimeMs"`
}

// Health states reported by HealthCheck
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
	HealthBroken   = "broken"
)

// HealthStatus is the outcome of one lightweight probe against a source
type HealthStatus struct {
	Source         SourceID  `json:"source"`
	Healthy        bool      `json:"healthy"`
	Status         string    `json:"status"`
	StatusCode     int       `json:"statusCode,omitempty"`
	ResponseTimeMs int64     `json:"responseTimeMs"`
	Errors         []string  `json:"errors,omitempty"`
	CheckedAt      time.Time `json:"checkedAt"`
}

// CatalogClient is the capability contract of one upstream catalog source.
// Clients are injected into the matching engine, never constructed by it.
type CatalogClient interface {
	Source() SourceID
	SearchProducts(ctx context.Context, opts SearchOptions) (*SearchResult, error)
	// GetProduct returns (nil, nil) when the product does not exist.
	GetProduct(ctx context.Context, id ProductID) (*Product, error)
	GetProductsByCategory(ctx context.Context, categoryName string, limit int) ([]Product, error)
	GetCategories(ctx context.Context) ([]CategoryInfo, error)
	GetPromotions(ctx context.Context) ([]Product, error)
	HealthCheck(ctx context.Context) HealthStatus
}

// CacheInvalidator is implemented by clients that own a response cache
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context, prefix string) (int, error)
	ClearCache(ctx context.Context) error
}
