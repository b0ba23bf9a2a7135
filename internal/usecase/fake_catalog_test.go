package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pantrylens/backend/internal/domain"
)

// fakeCatalog is an in-memory domain.CatalogClient that records every query
type fakeCatalog struct {
	source     domain.SourceID
	products   []domain.Product
	byCategory map[string][]domain.Product
	promotions []domain.Product
	searchErr  map[string]error
	failAll    error
	onSearch   func(query string)

	mu            sync.Mutex
	queries       []string
	categoryCalls []string
}

func newFakeCatalog(source string, products ...domain.Product) *fakeCatalog {
	id := domain.MustSourceID(source)
	for i := range products {
		products[i].Source = id
	}
	return &fakeCatalog{
		source:     id,
		products:   products,
		byCategory: make(map[string][]domain.Product),
		searchErr:  make(map[string]error),
	}
}

func (f *fakeCatalog) Source() domain.SourceID { return f.source }

func (f *fakeCatalog) SearchProducts(ctx context.Context, opts domain.SearchOptions) (*domain.SearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, opts.Query)
	hook := f.onSearch
	f.mu.Unlock()

	if hook != nil {
		hook(opts.Query)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.failAll != nil {
		return nil, f.failAll
	}
	if err := f.searchErr[opts.Query]; err != nil {
		return nil, err
	}

	var found []domain.Product
	for _, p := range f.products {
		if containsWords(strings.Join(tokenize(p.Name), " "), foldText(opts.Query)) {
			found = append(found, p)
		}
		if opts.Limit > 0 && len(found) == opts.Limit {
			break
		}
	}
	return &domain.SearchResult{Products: found, TotalCount: len(found), Query: opts.Query}, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id domain.ProductID) (*domain.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			p := f.products[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) GetProductsByCategory(ctx context.Context, categoryName string, _ int) ([]domain.Product, error) {
	f.mu.Lock()
	f.categoryCalls = append(f.categoryCalls, categoryName)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.failAll != nil {
		return nil, f.failAll
	}
	products := append([]domain.Product(nil), f.byCategory[categoryName]...)
	for i := range products {
		products[i].Source = f.source
	}
	return products, nil
}

func (f *fakeCatalog) GetCategories(context.Context) ([]domain.CategoryInfo, error) {
	return nil, nil
}

func (f *fakeCatalog) GetPromotions(context.Context) ([]domain.Product, error) {
	return f.promotions, nil
}

func (f *fakeCatalog) HealthCheck(context.Context) domain.HealthStatus {
	return domain.HealthStatus{
		Source:    f.source,
		Healthy:   true,
		Status:    domain.HealthHealthy,
		CheckedAt: time.Now(),
	}
}

func (f *fakeCatalog) recordedQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *fakeCatalog) recordedCategoryCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.categoryCalls...)
}

// cachingCatalog adds a response cache to fakeCatalog
type cachingCatalog struct {
	*fakeCatalog
	prefixes []string
	removed  int
}

func (c *cachingCatalog) InvalidateCache(_ context.Context, prefix string) (int, error) {
	c.prefixes = append(c.prefixes, prefix)
	return c.removed, nil
}

func (c *cachingCatalog) ClearCache(context.Context) error { return nil }

func product(id, name string, category domain.Category, cents int64, size float64, unit domain.Unit) domain.Product {
	return domain.Product{
		ID:          domain.ProductID(id),
		Name:        name,
		Category:    category,
		Price:       domain.Price{CurrentCents: cents},
		PackageSize: domain.PackageSize{Value: size, Unit: unit, Display: formatSize(size, unit)},
		InStock:     true,
	}
}

func formatSize(size float64, unit domain.Unit) string {
	switch unit {
	case domain.UnitKilogram:
		if size == 1 {
			return "1 kg"
		}
	case domain.UnitGram:
		if size == 500 {
			return "500 g"
		}
	}
	return ""
}
