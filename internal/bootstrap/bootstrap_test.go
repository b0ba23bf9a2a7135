package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrylens/backend/config"
	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/logging"
)

const polloPayload = `{"products": [
  {"id": "p1", "name": "Pollo entero", "price": "5,99", "category": "Carne",
   "size_value": 1, "size_unit": "kg", "in_stock": true}
], "total": 1}`

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/search" && r.URL.Query().Get("q") == "pollo" {
			_, _ = w.Write([]byte(polloPayload))
			return
		}
		_, _ = w.Write([]byte(`{"products": [], "total": 0}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *config.Config {
	retries := 0
	return &config.Config{
		Cache: config.CacheConfig{Type: "memory", CleanupInterval: time.Minute},
		Catalog: config.CatalogConfig{Sources: []config.SourceConfig{
			{ID: "supermarket", Kind: config.SourceKindAPI, BaseURL: baseURL, MinInterval: time.Millisecond, MaxRetries: &retries},
			{ID: "corner-shop", Kind: config.SourceKindStorefront, BaseURL: baseURL, MinInterval: time.Millisecond, MaxRetries: &retries},
		}},
		Matching: config.MatchingConfig{
			WeightName: 0.5, WeightCategory: 0.3, WeightPrice: 0.2,
			MinConfidence: 0.3, FuzzyThreshold: 0.7, MaxAlternatives: 5, BatchSize: 5, SearchLimit: 10,
		},
	}
}

func TestBuild(t *testing.T) {
	srv := newUpstream(t)
	cfg := testConfig(srv.URL)
	cfg.Catalog.Sources = cfg.Catalog.Sources[:1]

	app, err := Build(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.Equal(t, []domain.SourceID{"supermarket"}, app.Matching.Sources())

	match, err := app.Matching.MatchIngredient(context.Background(), &domain.MatchRequest{
		IngredientName: "pollo",
		Quantity:       2000,
		Unit:           domain.UnitGram,
	})
	require.NoError(t, err)
	require.NotNil(t, match.Product)
	assert.Equal(t, domain.ProductID("p1"), match.Product.ID)
	assert.Equal(t, domain.MatchTypeExact, match.MatchType)
	assert.Equal(t, 2, match.QuantityToBuy)
	assert.Equal(t, int64(1198), match.TotalCostCents)
}

func TestBuild_RegistersEveryKind(t *testing.T) {
	srv := newUpstream(t)

	app, err := Build(context.Background(), testConfig(srv.URL), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.Equal(t, []domain.SourceID{"corner-shop", "supermarket"}, app.Matching.Sources())
}

func TestBuild_Errors(t *testing.T) {
	t.Run("unknown source kind", func(t *testing.T) {
		cfg := testConfig("http://localhost:1")
		cfg.Catalog.Sources[0].Kind = "graphql"
		_, err := Build(context.Background(), cfg, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("invalid source id", func(t *testing.T) {
		cfg := testConfig("http://localhost:1")
		cfg.Catalog.Sources[0].ID = "not valid!"
		_, err := Build(context.Background(), cfg, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		cfg := testConfig("http://localhost:1")
		cfg.Cache = config.CacheConfig{Type: "redis", RedisURL: "redis://127.0.0.1:1/0"}
		_, err := Build(ctx, cfg, nil)
		assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
	})

	t.Run("unknown cache type", func(t *testing.T) {
		cfg := testConfig("http://localhost:1")
		cfg.Cache.Type = "memcached"
		_, err := Build(context.Background(), cfg, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}

func TestClientConfig(t *testing.T) {
	retries := 1
	src := config.SourceConfig{
		ID:          "Supermarket",
		BaseURL:     "http://localhost:9000",
		MinInterval: 2 * time.Second,
		MaxRetries:  &retries,
		BaseDelay:   100 * time.Millisecond,
		StoreBrands: []string{"Hacendado"},
	}
	ttl := config.CacheTTLConfig{Search: time.Minute, Product: time.Hour}

	got, err := ClientConfig(src, ttl)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceID("supermarket"), got.Source)
	assert.Equal(t, 2*time.Second, got.MinInterval)
	assert.Equal(t, 1, got.Retry.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, got.Retry.BaseDelay)
	assert.Equal(t, 10*time.Second, got.Retry.MaxDelay, "unset values keep the default policy")
	assert.Equal(t, time.Minute, got.CacheTTL.Search)
	assert.Equal(t, time.Hour, got.CacheTTL.Product)
	assert.Equal(t, []string{"Hacendado"}, got.StoreBrands)

	src.MaxRetries = nil
	got, err = ClientConfig(src, ttl)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Retry.MaxRetries)
}

func TestMatchConfig(t *testing.T) {
	got := MatchConfig(config.MatchingConfig{
		WeightName: 0.6, WeightCategory: 0.2, WeightPrice: 0.2,
		MinConfidence: 0.4, FuzzyThreshold: 0.8, MaxAlternatives: 3, BatchSize: 2, SearchLimit: 20,
	})

	assert.Equal(t, 0.6, got.Scoring.NameWeight)
	assert.Equal(t, 0.8, got.Scoring.FuzzyThreshold)
	assert.Equal(t, 3, got.MaxAlternatives)
	assert.Equal(t, 2, got.BatchSize)
	assert.Equal(t, 20, got.SearchLimit)
}
