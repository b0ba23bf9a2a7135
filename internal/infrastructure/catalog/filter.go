package catalog

import (
	"math"
	"sort"
	"strings"

	"github.com/pantrylens/backend/internal/domain"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}

// applySearchOptions filters, sorts and truncates products locally.
// It returns the kept products and the count before truncation.
func applySearchOptions(products []domain.Product, opts domain.SearchOptions) ([]domain.Product, int) {
	kept := make([]domain.Product, 0, len(products))
	for i := range products {
		p := &products[i]
		if opts.InStockOnly && !p.InStock {
			continue
		}
		if opts.OrganicOnly && !p.IsOrganic {
			continue
		}
		if opts.PromotionsOnly && !p.OnPromotion() {
			continue
		}
		if opts.MaxPriceCents != nil && p.Price.CurrentCents > *opts.MaxPriceCents {
			continue
		}
		kept = append(kept, *p)
	}

	switch opts.SortBy {
	case domain.SortPriceAsc:
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].Price.CurrentCents < kept[j].Price.CurrentCents
		})
	case domain.SortPriceDesc:
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].Price.CurrentCents > kept[j].Price.CurrentCents
		})
	case domain.SortUnitPriceAsc:
		sort.SliceStable(kept, func(i, j int) bool {
			return unitPriceOf(kept[i]) < unitPriceOf(kept[j])
		})
	case domain.SortName:
		sort.SliceStable(kept, func(i, j int) bool {
			return strings.ToLower(kept[i].Name) < strings.ToLower(kept[j].Name)
		})
	}

	total := len(kept)
	if limit := normalizeLimit(opts.Limit); len(kept) > limit {
		kept = kept[:limit]
	}
	return kept, total
}

// products without a per-unit price sort last
func unitPriceOf(p domain.Product) int64 {
	if p.Price.PerUnit == nil {
		return math.MaxInt64
	}
	return p.Price.PerUnit.Cents
}
