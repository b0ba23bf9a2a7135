package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/pantrylens/backend/internal/domain"
)

// APIClient reads a JSON REST catalog
type APIClient struct {
	source      domain.SourceID
	transport   *transport
	cache       *responseCache
	storeBrands []string
	now         func() time.Time
	logger      *zap.Logger
}

// wire types

type apiProduct struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Brand         string        `json:"brand"`
	Price         string        `json:"price"`
	OriginalPrice string        `json:"original_price"`
	UnitPrice     string        `json:"unit_price"`
	UnitPriceUnit string        `json:"unit_price_unit"`
	Category      string        `json:"category"`
	SizeValue     float64       `json:"size_value"`
	SizeUnit      string        `json:"size_unit"`
	SizeDisplay   string        `json:"size_display"`
	InStock       *bool         `json:"in_stock"`
	Organic       bool          `json:"organic"`
	Promotion     *apiPromotion `json:"promotion"`
	UpdatedAt     string        `json:"updated_at"`
}

type apiPromotion struct {
	Label  string `json:"label"`
	EndsAt string `json:"ends_at"`
}

type apiProductList struct {
	Products []apiProduct `json:"products"`
	Total    int          `json:"total"`
}

type apiCategory struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
}

type apiCategoryList struct {
	Categories []apiCategory `json:"categories"`
}

// NewAPIClient creates a client for a JSON catalog API.
// A nil store disables response caching.
func NewAPIClient(cfg ClientConfig, store domain.CacheRepository, opts ...Option) (*APIClient, error) {
	o := buildOptions(opts)
	t, err := newTransport(cfg, "application/json", o)
	if err != nil {
		return nil, err
	}
	return &APIClient{
		source:      cfg.Source,
		transport:   t,
		cache:       newResponseCache(store, cfg.Source, cfg.CacheTTL, t.logger),
		storeBrands: cfg.StoreBrands,
		now:         o.now,
		logger:      t.logger,
	}, nil
}

// Source returns the source id this client serves
func (c *APIClient) Source() domain.SourceID {
	return c.source
}

// SearchProducts searches the catalog
func (c *APIClient) SearchProducts(ctx context.Context, opts domain.SearchOptions) (*domain.SearchResult, error) {
	start := time.Now()
	opts.Limit = normalizeLimit(opts.Limit)

	query := url.Values{}
	query.Set("q", strings.TrimSpace(opts.Query))
	query.Set("limit", strconv.Itoa(opts.Limit))
	if opts.SortBy != "" {
		query.Set("sort", string(opts.SortBy))
	}
	if opts.InStockOnly {
		query.Set("in_stock", "true")
	}
	if opts.OrganicOnly {
		query.Set("organic", "true")
	}
	if opts.PromotionsOnly {
		query.Set("promotions", "true")
	}
	if opts.MaxPriceCents != nil {
		query.Set("max_price", formatCents(*opts.MaxPriceCents))
	}

	products, err := fetchCached(ctx, c.cache, kindSearch, foldText(query.Encode()), func(ctx context.Context) ([]domain.Product, error) {
		list, err := c.fetchList(ctx, "search", "/search", query)
		if err != nil {
			return nil, err
		}
		return c.mapProducts(list.Products), nil
	})
	if err != nil {
		return nil, err
	}

	kept, total := applySearchOptions(products, opts)
	return &domain.SearchResult{
		Products:     kept,
		TotalCount:   total,
		Query:        opts.Query,
		SearchTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// GetProduct returns nil, nil when the product does not exist
func (c *APIClient) GetProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	product, err := fetchCached(ctx, c.cache, kindProduct, id.String(), func(ctx context.Context) (*domain.Product, error) {
		body, err := c.transport.get(ctx, "product", "/products/"+url.PathEscape(id.String()), nil)
		if err != nil {
			return nil, err
		}
		var raw apiProduct
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("%w: product %s: %v", domain.ErrDecode, id, err)
		}
		p, err := c.toDomain(raw)
		if err != nil {
			return nil, err
		}
		return &p, nil
	})
	if errors.Is(err, domain.ErrProductNotFound) {
		return nil, nil
	}
	return product, err
}

// GetProductsByCategory lists products of a named category
func (c *APIClient) GetProductsByCategory(ctx context.Context, categoryName string, limit int) ([]domain.Product, error) {
	limit = normalizeLimit(limit)
	name := strings.TrimSpace(categoryName)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrInvalidRequest)
	}

	products, err := fetchCached(ctx, c.cache, kindCategory, foldText(name), func(ctx context.Context) ([]domain.Product, error) {
		query := url.Values{"limit": []string{strconv.Itoa(maxSearchLimit)}}
		list, err := c.fetchList(ctx, "category", "/categories/"+url.PathEscape(name)+"/products", query)
		if err != nil {
			return nil, err
		}
		return c.mapProducts(list.Products), nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return []domain.Product{}, nil
		}
		return nil, err
	}
	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

// GetCategories lists the catalog's categories
func (c *APIClient) GetCategories(ctx context.Context) ([]domain.CategoryInfo, error) {
	return fetchCached(ctx, c.cache, kindCategories, "all", func(ctx context.Context) ([]domain.CategoryInfo, error) {
		body, err := c.transport.get(ctx, "categories", "/categories", nil)
		if err != nil {
			return nil, err
		}
		var list apiCategoryList
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("%w: categories: %v", domain.ErrDecode, err)
		}

		categories := make([]domain.CategoryInfo, 0, len(list.Categories))
		for _, raw := range list.Categories {
			id := raw.ID
			if id == "" {
				id = slugify(raw.Name)
			}
			categories = append(categories, domain.CategoryInfo{
				ID:           id,
				Name:         raw.Name,
				Category:     mapCategory(raw.Name),
				ProductCount: raw.ProductCount,
			})
		}
		return categories, nil
	})
}

// GetPromotions lists products currently on offer
func (c *APIClient) GetPromotions(ctx context.Context) ([]domain.Product, error) {
	return fetchCached(ctx, c.cache, kindPromotions, "all", func(ctx context.Context) ([]domain.Product, error) {
		list, err := c.fetchList(ctx, "promotions", "/promotions", nil)
		if err != nil {
			return nil, err
		}
		return c.mapProducts(list.Products), nil
	})
}

// HealthCheck probes the API health endpoint
func (c *APIClient) HealthCheck(ctx context.Context) domain.HealthStatus {
	return c.transport.probe(ctx, "/health")
}

// InvalidateCache removes cached responses under prefix, e.g. "search:"
func (c *APIClient) InvalidateCache(ctx context.Context, prefix string) (int, error) {
	return c.cache.Invalidate(ctx, prefix)
}

// ClearCache removes every cached response of this source
func (c *APIClient) ClearCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

func (c *APIClient) fetchList(ctx context.Context, operation, path string, query url.Values) (*apiProductList, error) {
	body, err := c.transport.get(ctx, operation, path, query)
	if err != nil {
		return nil, err
	}
	var list apiProductList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDecode, operation, err)
	}
	return &list, nil
}

// mapProducts skips listings that cannot be mapped
func (c *APIClient) mapProducts(raw []apiProduct) []domain.Product {
	products := make([]domain.Product, 0, len(raw))
	for _, r := range raw {
		p, err := c.toDomain(r)
		if err != nil {
			c.logger.Warn("skipping unmappable product", zap.String("product_id", r.ID), zap.Error(err))
			continue
		}
		products = append(products, p)
	}
	return products
}

func (c *APIClient) toDomain(r apiProduct) (domain.Product, error) {
	id, err := domain.NewProductID(r.ID)
	if err != nil {
		return domain.Product{}, err
	}
	current, err := parseMoney(r.Price)
	if err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		ID:           id,
		Source:       c.source,
		Name:         strings.TrimSpace(r.Name),
		Brand:        strings.TrimSpace(r.Brand),
		Price:        domain.Price{CurrentCents: current},
		Category:     mapCategory(r.Category),
		PackageSize:  packageFromParts(r.SizeValue, r.SizeUnit, r.SizeDisplay),
		InStock:      r.InStock == nil || *r.InStock,
		IsOrganic:    r.Organic || looksOrganic(r.Name),
		IsStoreBrand: isStoreBrand(r.Brand, c.storeBrands),
		LastUpdated:  c.now(),
	}

	if r.OriginalPrice != "" {
		if original, err := parseMoney(r.OriginalPrice); err == nil {
			p.Price.OriginalCents = &original
		}
	}
	if r.UnitPrice != "" {
		if perUnit, err := parseMoney(r.UnitPrice); err == nil {
			unit, uerr := domain.ParseUnit(r.UnitPriceUnit)
			if uerr != nil {
				unit = p.PackageSize.Unit
			}
			p.Price.PerUnit = &domain.UnitPrice{Cents: perUnit, Unit: unit}
		}
	}
	if r.Promotion != nil && strings.TrimSpace(r.Promotion.Label) != "" {
		promo := &domain.Promotion{Label: strings.TrimSpace(r.Promotion.Label)}
		if endsAt, err := time.Parse(time.RFC3339, r.Promotion.EndsAt); err == nil {
			promo.EndsAt = &endsAt
		}
		p.Promotion = promo
	}
	if updated, err := time.Parse(time.RFC3339, r.UpdatedAt); err == nil {
		p.LastUpdated = updated
	}
	return p, nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// looksOrganic detects organic labelling in a product name
func looksOrganic(name string) bool {
	folded := " " + foldText(name) + " "
	for _, marker := range []string{" bio ", " eco ", " ecologico ", " ecologica ", " organic ", " organico "} {
		if strings.Contains(folded, marker) {
			return true
		}
	}
	return false
}
