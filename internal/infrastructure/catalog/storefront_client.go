package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/pantrylens/backend/internal/domain"
)

// Storefront markup. Every listing is an element carrying data-product-id.
const (
	selProductCard  = "[data-product-id]"
	selName         = ".product-name"
	selBrand        = ".product-brand"
	selPrice        = ".product-price"
	selOldPrice     = ".product-price-old"
	selUnitPrice    = ".product-unit-price"
	selSize         = ".product-size"
	selCategory     = ".product-category"
	selOrganicBadge = ".badge-organic"
	selPromoLabel   = ".promo-label"
	selOutOfStock   = ".out-of-stock"
	selCategoryLink = "a.category-link"
)

// StorefrontClient reads product listings from a retailer's HTML storefront.
// Search filters and sorting are applied locally.
type StorefrontClient struct {
	source      domain.SourceID
	transport   *transport
	cache       *responseCache
	storeBrands []string
	now         func() time.Time
	logger      *zap.Logger
}

// NewStorefrontClient creates a client for an HTML storefront.
// A nil store disables response caching.
func NewStorefrontClient(cfg ClientConfig, store domain.CacheRepository, opts ...Option) (*StorefrontClient, error) {
	o := buildOptions(opts)
	t, err := newTransport(cfg, "text/html", o)
	if err != nil {
		return nil, err
	}
	return &StorefrontClient{
		source:      cfg.Source,
		transport:   t,
		cache:       newResponseCache(store, cfg.Source, cfg.CacheTTL, t.logger),
		storeBrands: cfg.StoreBrands,
		now:         o.now,
		logger:      t.logger,
	}, nil
}

// Source identifies the storefront this client scrapes
func (c *StorefrontClient) Source() domain.SourceID {
	return c.source
}

// SearchProducts fetches the storefront search page for the query
func (c *StorefrontClient) SearchProducts(ctx context.Context, opts domain.SearchOptions) (*domain.SearchResult, error) {
	start := time.Now()
	q := strings.TrimSpace(opts.Query)

	products, err := fetchCached(ctx, c.cache, kindSearch, foldText(q), func(ctx context.Context) ([]domain.Product, error) {
		return c.fetchListing(ctx, "search", "/search", url.Values{"q": []string{q}})
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

// GetProduct returns nil, nil when the product page does not exist
func (c *StorefrontClient) GetProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	product, err := fetchCached(ctx, c.cache, kindProduct, id.String(), func(ctx context.Context) (*domain.Product, error) {
		products, err := c.fetchListing(ctx, "product", "/product/"+url.PathEscape(id.String()), nil)
		if err != nil {
			return nil, err
		}
		for i := range products {
			if products[i].ID == id {
				return &products[i], nil
			}
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	})
	if errors.Is(err, domain.ErrProductNotFound) {
		return nil, nil
	}
	return product, err
}

// GetProductsByCategory fetches the category page for a localized category name
func (c *StorefrontClient) GetProductsByCategory(ctx context.Context, categoryName string, limit int) ([]domain.Product, error) {
	slug := slugify(categoryName)
	if slug == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrInvalidRequest)
	}

	products, err := fetchCached(ctx, c.cache, kindCategory, slug, func(ctx context.Context) ([]domain.Product, error) {
		return c.fetchListing(ctx, "category", "/category/"+slug, nil)
	})
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return []domain.Product{}, nil
		}
		return nil, err
	}
	if limit = normalizeLimit(limit); len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

// GetCategories reads the category navigation of the storefront
func (c *StorefrontClient) GetCategories(ctx context.Context) ([]domain.CategoryInfo, error) {
	return fetchCached(ctx, c.cache, kindCategories, "all", func(ctx context.Context) ([]domain.CategoryInfo, error) {
		doc, err := c.fetchDocument(ctx, "categories", "/categories", nil)
		if err != nil {
			return nil, err
		}
		return parseCategoryLinks(doc), nil
	})
}

// GetPromotions reads the offers page
func (c *StorefrontClient) GetPromotions(ctx context.Context) ([]domain.Product, error) {
	return fetchCached(ctx, c.cache, kindPromotions, "all", func(ctx context.Context) ([]domain.Product, error) {
		return c.fetchListing(ctx, "promotions", "/offers", nil)
	})
}

// HealthCheck probes the storefront home page
func (c *StorefrontClient) HealthCheck(ctx context.Context) domain.HealthStatus {
	return c.transport.probe(ctx, "/")
}

func (c *StorefrontClient) InvalidateCache(ctx context.Context, prefix string) (int, error) {
	return c.cache.Invalidate(ctx, prefix)
}

func (c *StorefrontClient) ClearCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

func (c *StorefrontClient) fetchDocument(ctx context.Context, operation, path string, query url.Values) (*goquery.Document, error) {
	body, err := c.transport.get(ctx, operation, path, query)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDecode, operation, err)
	}
	return doc, nil
}

func (c *StorefrontClient) fetchListing(ctx context.Context, operation, path string, query url.Values) ([]domain.Product, error) {
	doc, err := c.fetchDocument(ctx, operation, path, query)
	if err != nil {
		return nil, err
	}
	return c.parseProductCards(doc), nil
}

// parseProductCards maps every product card, skipping those without a usable id or price
func (c *StorefrontClient) parseProductCards(doc *goquery.Document) []domain.Product {
	products := []domain.Product{}
	seen := map[domain.ProductID]bool{}

	doc.Find(selProductCard).Each(func(_ int, card *goquery.Selection) {
		rawID, _ := card.Attr("data-product-id")
		p, err := c.parseCard(card)
		if err != nil {
			c.logger.Warn("skipping unparsable product card", zap.String("product_id", rawID), zap.Error(err))
			return
		}
		if seen[p.ID] {
			return
		}
		seen[p.ID] = true
		products = append(products, p)
	})
	return products
}

func (c *StorefrontClient) parseCard(card *goquery.Selection) (domain.Product, error) {
	rawID, _ := card.Attr("data-product-id")
	id, err := domain.NewProductID(rawID)
	if err != nil {
		return domain.Product{}, err
	}

	name := cleanText(card.Find(selName).First().Text())
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: product %s has no name", domain.ErrDecode, rawID)
	}

	priceText := cleanText(card.Find(selPrice).First().Text())
	if attr, ok := card.Find(selPrice).First().Attr("data-price"); ok {
		priceText = attr
	}
	current, err := parseMoney(priceText)
	if err != nil {
		return domain.Product{}, err
	}

	brand := cleanText(card.Find(selBrand).First().Text())
	categoryLabel := cleanText(card.Find(selCategory).First().Text())
	if attr, ok := card.Attr("data-category"); ok {
		categoryLabel = attr
	}

	size := packageFromParts(0, "", cleanText(card.Find(selSize).First().Text()))

	p := domain.Product{
		ID:           id,
		Source:       c.source,
		Name:         name,
		Brand:        brand,
		Price:        domain.Price{CurrentCents: current},
		Category:     mapCategory(categoryLabel),
		PackageSize:  size,
		InStock:      card.Find(selOutOfStock).Length() == 0,
		IsOrganic:    card.Find(selOrganicBadge).Length() > 0 || looksOrganic(name),
		IsStoreBrand: isStoreBrand(brand, c.storeBrands),
		LastUpdated:  c.now(),
	}

	if old := cleanText(card.Find(selOldPrice).First().Text()); old != "" {
		if original, err := parseMoney(old); err == nil {
			p.Price.OriginalCents = &original
		}
	}

	unitSel := card.Find(selUnitPrice).First()
	if text := cleanText(unitSel.Text()); text != "" {
		if perUnit, err := parseMoney(unitPriceAmount(text)); err == nil {
			unitLabel, _ := unitSel.Attr("data-unit")
			unit, uerr := domain.ParseUnit(unitLabel)
			if uerr != nil {
				unit = size.Unit
			}
			p.Price.PerUnit = &domain.UnitPrice{Cents: perUnit, Unit: unit}
		}
	}

	if label := cleanText(card.Find(selPromoLabel).First().Text()); label != "" {
		p.Promotion = &domain.Promotion{Label: label}
		if endsAt, ok := card.Find(selPromoLabel).First().Attr("data-ends-at"); ok {
			if t, err := time.Parse(time.RFC3339, endsAt); err == nil {
				p.Promotion.EndsAt = &t
			}
		}
	}
	return p, nil
}

func parseCategoryLinks(doc *goquery.Document) []domain.CategoryInfo {
	categories := []domain.CategoryInfo{}
	doc.Find(selCategoryLink).Each(func(_ int, link *goquery.Selection) {
		name := cleanText(link.Text())
		if name == "" {
			return
		}
		id, ok := link.Attr("data-category-id")
		if !ok || id == "" {
			id = slugify(name)
		}
		count := 0
		if raw, ok := link.Attr("data-count"); ok {
			count, _ = strconv.Atoi(strings.TrimSpace(raw))
		}
		categories = append(categories, domain.CategoryInfo{
			ID:           id,
			Name:         name,
			Category:     mapCategory(name),
			ProductCount: count,
		})
	})
	return categories
}

// unitPriceAmount drops the "/kg" style suffix of a unit price label
func unitPriceAmount(text string) string {
	if i := strings.Index(text, "/"); i >= 0 {
		return text[:i]
	}
	return text
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
