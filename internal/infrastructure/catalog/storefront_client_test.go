package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrylens/backend/internal/domain"
)

const searchPage = `<!doctype html>
<html><body>
<ul class="results">
  <li class="card" data-product-id="1001" data-category="Fruta y verdura">
    <h3 class="product-name"> Tomate natural </h3>
    <span class="product-brand">Hacendado</span>
    <span class="product-price">1,20 €</span>
    <span class="product-unit-price" data-unit="kg">1,20 €/kg</span>
    <span class="product-size">1 kg</span>
  </li>
  <li class="card" data-product-id="1002">
    <h3 class="product-name">Tomate cherry BIO</h3>
    <span class="product-category">Fruta y verdura</span>
    <span class="product-price">2,10 €</span>
    <span class="product-price-old">2,50 €</span>
    <span class="product-size">250 g</span>
    <span class="badge-organic">Eco</span>
    <span class="promo-label" data-ends-at="2026-03-10T00:00:00Z">2ª unidad -50%</span>
    <span class="out-of-stock">Agotado</span>
  </li>
  <li class="card" data-product-id="1001">
    <h3 class="product-name">Tomate natural</h3>
    <span class="product-price">1,20 €</span>
  </li>
  <li class="card" data-product-id="1003">
    <h3 class="product-name">Sin precio</h3>
  </li>
</ul>
</body></html>`

const categoriesPage = `<html><body><nav>
  <a class="category-link" data-category-id="27" data-count="85" href="/category/lacteos">Lácteos y huevos</a>
  <a class="category-link" href="/category/especias">Especias</a>
  <a class="category-link" href="#"> </a>
</nav></body></html>`

func newTestStorefront(t *testing.T, handler http.HandlerFunc) *StorefrontClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sleeper := &recordingSleeper{}
	client, err := NewStorefrontClient(testConfig(server.URL), nil, WithSleeper(sleeper.sleep))
	require.NoError(t, err)
	return client
}

func TestStorefrontClient_SearchProducts(t *testing.T) {
	client := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "tomate", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(searchPage))
	})

	result, err := client.SearchProducts(context.Background(), domain.SearchOptions{Query: "tomate"})
	require.NoError(t, err)
	require.Len(t, result.Products, 2, "duplicates and cards without a price are skipped")

	natural := result.Products[0]
	assert.Equal(t, domain.ProductID("1001"), natural.ID)
	assert.Equal(t, "Tomate natural", natural.Name)
	assert.Equal(t, int64(120), natural.Price.CurrentCents)
	require.NotNil(t, natural.Price.PerUnit)
	assert.Equal(t, domain.UnitPrice{Cents: 120, Unit: domain.UnitKilogram}, *natural.Price.PerUnit)
	assert.Equal(t, domain.CategoryProduce, natural.Category)
	assert.Equal(t, domain.UnitKilogram, natural.PackageSize.Unit)
	assert.True(t, natural.InStock)
	assert.True(t, natural.IsStoreBrand)

	cherry := result.Products[1]
	assert.Equal(t, domain.CategoryProduce, cherry.Category)
	assert.True(t, cherry.IsOrganic)
	assert.False(t, cherry.InStock)
	require.NotNil(t, cherry.Promotion)
	assert.Equal(t, "2ª unidad -50%", cherry.Promotion.Label)
	require.NotNil(t, cherry.Promotion.EndsAt)
	require.NotNil(t, cherry.Price.OriginalCents)
	assert.Equal(t, int64(250), *cherry.Price.OriginalCents)
	assert.InDelta(t, 250.0, cherry.PackageSize.Value, 1e-9)
}

func TestStorefrontClient_SearchProducts_AppliesOptionsLocally(t *testing.T) {
	client := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchPage))
	})

	result, err := client.SearchProducts(context.Background(), domain.SearchOptions{
		Query:          "tomate",
		PromotionsOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, domain.ProductID("1002"), result.Products[0].ID)

	result, err = client.SearchProducts(context.Background(), domain.SearchOptions{
		Query:  "tomate",
		SortBy: domain.SortPriceDesc,
		Limit:  1,
	})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, domain.ProductID("1002"), result.Products[0].ID)
}

func TestStorefrontClient_GetProduct(t *testing.T) {
	client := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/product/1001" {
			_, _ = w.Write([]byte(searchPage))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	ctx := context.Background()

	product, err := client.GetProduct(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "Tomate natural", product.Name)

	missing, err := client.GetProduct(ctx, "9999")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStorefrontClient_GetProductsByCategory(t *testing.T) {
	client := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/category/fruta-y-verdura", r.URL.Path)
		_, _ = w.Write([]byte(searchPage))
	})

	products, err := client.GetProductsByCategory(context.Background(), "Fruta y Verdura", 1)
	require.NoError(t, err)
	assert.Len(t, products, 1)

	_, err = client.GetProductsByCategory(context.Background(), "  ", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestStorefrontClient_GetCategories(t *testing.T) {
	client := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(categoriesPage))
	})

	categories, err := client.GetCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, domain.CategoryInfo{ID: "27", Name: "Lácteos y huevos", Category: domain.CategoryDairy, ProductCount: 85}, categories[0])
	assert.Equal(t, "especias", categories[1].ID)
	assert.Equal(t, domain.CategorySpices, categories[1].Category)
}

func TestStorefrontClient_GetPromotions(t *testing.T) {
	client := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/offers", r.URL.Path)
		_, _ = w.Write([]byte(searchPage))
	})

	products, err := client.GetPromotions(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestStorefrontClient_HealthCheck(t *testing.T) {
	client := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		_, _ = w.Write([]byte("<html></html>"))
	})

	status := client.HealthCheck(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, domain.SourceID("testshop"), status.Source)
}

func TestApplySearchOptions_SortsByUnitPrice(t *testing.T) {
	products := []domain.Product{
		{ID: "a", Price: domain.Price{CurrentCents: 100}},
		{ID: "b", Price: domain.Price{CurrentCents: 300, PerUnit: &domain.UnitPrice{Cents: 500, Unit: domain.UnitKilogram}}},
		{ID: "c", Price: domain.Price{CurrentCents: 200, PerUnit: &domain.UnitPrice{Cents: 250, Unit: domain.UnitKilogram}}},
	}

	kept, total := applySearchOptions(products, domain.SearchOptions{SortBy: domain.SortUnitPriceAsc})
	assert.Equal(t, 3, total)
	assert.Equal(t, []domain.ProductID{"c", "b", "a"}, []domain.ProductID{kept[0].ID, kept[1].ID, kept[2].ID})
}
