package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pantrylens/backend/internal/domain"
)

func newTestOrchestrator() *SearchOrchestrator {
	return NewSearchOrchestrator(NewIngredientNormalizer(), NewTranslationIndex(), 0, zap.NewNop())
}

func TestSearchOrchestrator_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("exact hit stops the exact stage", func(t *testing.T) {
		catalog := newFakeCatalog("shop", product("1", "Pollo entero", domain.CategoryMeat, 599, 1, domain.UnitKilogram))

		candidates, err := newTestOrchestrator().Search(ctx, catalog, "Pollo", SearchFilters{})
		require.NoError(t, err)

		require.Len(t, candidates, 1)
		assert.Equal(t, domain.StrategyExact, candidates[0].Strategy)
		assert.Equal(t, "pollo", candidates[0].SearchTerm)
		assert.Equal(t, []string{"pollo", "chicken", "chickens"}, catalog.recordedQueries())
		assert.Equal(t, []string{"Carne", "Charcutería"}, catalog.recordedCategoryCalls())
	})

	t.Run("translation found after exact miss", func(t *testing.T) {
		tomato := product("2", "Tomate Natural", domain.CategoryProduce, 129, 1, domain.UnitKilogram)
		catalog := newFakeCatalog("shop", tomato)
		catalog.byCategory["Fruta y verdura"] = []domain.Product{tomato}

		candidates, err := newTestOrchestrator().Search(ctx, catalog, "tomato", SearchFilters{})
		require.NoError(t, err)

		require.Len(t, candidates, 1, "category listing duplicates are dropped")
		assert.Equal(t, domain.StrategyTranslation, candidates[0].Strategy)
		assert.Equal(t, "tomate", candidates[0].SearchTerm)
		assert.Equal(t, []string{"tomato", "tomate", "tomates"}, catalog.recordedQueries())
	})

	t.Run("enough exact candidates skip later stages", func(t *testing.T) {
		var products []domain.Product
		for i := range 5 {
			products = append(products, product(fmt.Sprint(i), fmt.Sprintf("Arroz marca %d", i), domain.CategoryDryGoods, 100, 1, domain.UnitKilogram))
		}
		catalog := newFakeCatalog("shop", products...)

		candidates, err := newTestOrchestrator().Search(ctx, catalog, "arroz", SearchFilters{})
		require.NoError(t, err)

		assert.Len(t, candidates, 5)
		assert.Equal(t, []string{"arroz"}, catalog.recordedQueries())
		assert.Empty(t, catalog.recordedCategoryCalls())
	})

	t.Run("key terms widen the search", func(t *testing.T) {
		catalog := newFakeCatalog("shop",
			product("1", "Leche semidesnatada", domain.CategoryDairy, 89, 1, domain.UnitLiter),
			product("2", "Milk whole", domain.CategoryDairy, 120, 1, domain.UnitLiter),
		)

		candidates, err := newTestOrchestrator().Search(ctx, catalog, "leche entera", SearchFilters{})
		require.NoError(t, err)

		require.Len(t, candidates, 2)
		assert.Equal(t, domain.StrategyKeyword, candidates[0].Strategy)
		assert.Equal(t, "leche", candidates[0].SearchTerm)
		assert.Equal(t, domain.StrategyTranslation, candidates[1].Strategy)
		assert.Equal(t, "milk", candidates[1].SearchTerm)
	})

	t.Run("category fallback", func(t *testing.T) {
		catalog := newFakeCatalog("shop")
		catalog.byCategory["Carne"] = []domain.Product{
			product("9", "Filetes de ternera", domain.CategoryMeat, 799, 500, domain.UnitGram),
		}

		candidates, err := newTestOrchestrator().Search(ctx, catalog, "pollo", SearchFilters{})
		require.NoError(t, err)

		require.Len(t, candidates, 1)
		assert.Equal(t, domain.StrategyCategory, candidates[0].Strategy)
		assert.Equal(t, "Carne", candidates[0].SearchTerm)
		assert.Equal(t, domain.SourceID("shop"), candidates[0].Product.Source)
	})

	t.Run("failed terms are skipped", func(t *testing.T) {
		catalog := newFakeCatalog("shop", product("1", "Chicken breast", domain.CategoryMeat, 650, 500, domain.UnitGram))
		catalog.searchErr["pollo"] = domain.ErrNetwork

		candidates, err := newTestOrchestrator().Search(ctx, catalog, "pollo", SearchFilters{})
		require.NoError(t, err)

		require.Len(t, candidates, 1)
		assert.Equal(t, domain.StrategyTranslation, candidates[0].Strategy)
		assert.Equal(t, "chicken", candidates[0].SearchTerm)
	})

	t.Run("unreachable catalog is not an empty result", func(t *testing.T) {
		catalog := newFakeCatalog("shop", product("1", "Pollo entero", domain.CategoryMeat, 599, 1, domain.UnitKilogram))
		catalog.failAll = fmt.Errorf("%w: shop", domain.ErrCircuitOpen)

		candidates, err := newTestOrchestrator().Search(ctx, catalog, "pollo", SearchFilters{})
		assert.ErrorIs(t, err, domain.ErrCircuitOpen)
		assert.Empty(t, candidates)
		assert.Contains(t, catalog.recordedQueries(), "chicken", "the cascade keeps going after a failed term")
	})

	t.Run("unreachable term does not hide other hits", func(t *testing.T) {
		catalog := newFakeCatalog("shop", product("1", "Chicken breast", domain.CategoryMeat, 650, 500, domain.UnitGram))
		catalog.searchErr["pollo"] = fmt.Errorf("%w: search pollo", domain.ErrTimeout)

		candidates, err := newTestOrchestrator().Search(ctx, catalog, "pollo", SearchFilters{})
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "chicken", candidates[0].SearchTerm)
	})

	t.Run("plain upstream errors still read as no match", func(t *testing.T) {
		catalog := newFakeCatalog("shop")
		catalog.failAll = domain.ErrNetwork

		candidates, err := newTestOrchestrator().Search(ctx, catalog, "pollo", SearchFilters{})
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})

	t.Run("filters are applied to every stage", func(t *testing.T) {
		organic := product("1", "Pollo ecológico", domain.CategoryMeat, 899, 1, domain.UnitKilogram)
		organic.IsOrganic = true
		catalog := newFakeCatalog("shop",
			product("2", "Pollo entero", domain.CategoryMeat, 599, 1, domain.UnitKilogram),
			organic,
		)
		catalog.byCategory["Carne"] = []domain.Product{product("3", "Ternera", domain.CategoryMeat, 999, 1, domain.UnitKilogram)}

		candidates, err := newTestOrchestrator().Search(ctx, catalog, "pollo", SearchFilters{OrganicOnly: true})
		require.NoError(t, err)

		require.Len(t, candidates, 1)
		assert.Equal(t, domain.ProductID("1"), candidates[0].Product.ID)
	})

	t.Run("max price filter", func(t *testing.T) {
		catalog := newFakeCatalog("shop",
			product("1", "Pollo entero", domain.CategoryMeat, 599, 1, domain.UnitKilogram),
			product("2", "Pollo de corral", domain.CategoryMeat, 1299, 1, domain.UnitKilogram),
		)
		maxPrice := int64(1000)

		candidates, err := newTestOrchestrator().Search(ctx, catalog, "pollo", SearchFilters{MaxPriceCents: &maxPrice})
		require.NoError(t, err)

		require.Len(t, candidates, 1)
		assert.Equal(t, domain.ProductID("1"), candidates[0].Product.ID)
	})

	t.Run("blank ingredient", func(t *testing.T) {
		catalog := newFakeCatalog("shop")

		candidates, err := newTestOrchestrator().Search(ctx, catalog, "  2 cups ", SearchFilters{})
		require.NoError(t, err)
		assert.Empty(t, candidates)
		assert.Empty(t, catalog.recordedQueries())
	})

	t.Run("cancellation aborts the cascade", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		catalog := newFakeCatalog("shop")
		catalog.onSearch = func(string) { cancel() }

		_, err := newTestOrchestrator().Search(cctx, catalog, "pollo", SearchFilters{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, []string{"pollo"}, catalog.recordedQueries())
	})
}
