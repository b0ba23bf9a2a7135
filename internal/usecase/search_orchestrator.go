package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/logging"
)

// Cascade limits
const (
	maxExactTerms        = 5
	maxKeyTerms          = 3
	maxSynonymsPerTerm   = 2
	maxCategoryNames     = 2
	keywordStageBelow    = 5
	categoryStageBelow   = 3
	minKeyTermLength     = 3
	defaultSearchResults = 10
)

// SearchFilters narrow catalog searches for one ingredient
type SearchFilters struct {
	InStockOnly   bool
	OrganicOnly   bool
	MaxPriceCents *int64
}

func (f SearchFilters) accepts(p *domain.Product) bool {
	if f.InStockOnly && !p.InStock {
		return false
	}
	if f.OrganicOnly && !p.IsOrganic {
		return false
	}
	if f.MaxPriceCents != nil && p.Price.CurrentCents > *f.MaxPriceCents {
		return false
	}
	return true
}

// SearchOrchestrator runs the exact, keyword and category strategies against one catalog,
// stopping as soon as enough candidates are collected.
type SearchOrchestrator struct {
	normalizer  *IngredientNormalizer
	index       *TranslationIndex
	searchLimit int
	logger      *zap.Logger
}

// NewSearchOrchestrator creates an orchestrator; searchLimit <= 0 means 10 results per query
func NewSearchOrchestrator(normalizer *IngredientNormalizer, index *TranslationIndex, searchLimit int, logger *zap.Logger) *SearchOrchestrator {
	if searchLimit <= 0 {
		searchLimit = defaultSearchResults
	}
	return &SearchOrchestrator{
		normalizer:  normalizer,
		index:       index,
		searchLimit: searchLimit,
		logger:      logging.OrNop(logger).Named("orchestrator"),
	}
}

type termQuery struct {
	term     string
	strategy domain.Strategy
}

// candidateSet deduplicates candidates by source and product id, keeping the first strategy
type candidateSet struct {
	items    []Candidate
	seen     map[string]bool
	searched map[string]bool
	// first failure that left the catalog unasked
	unreached error
}

// noteFailure remembers failures where the catalog never answered
func (s *candidateSet) noteFailure(err error) {
	if s.unreached == nil && catalogUnreachable(err) {
		s.unreached = err
	}
}

// catalogUnreachable reports failures that say nothing about whether the catalog lists a product
func catalogUnreachable(err error) bool {
	return errors.Is(err, domain.ErrTimeout) ||
		errors.Is(err, domain.ErrCircuitOpen) ||
		errors.Is(err, domain.ErrRateLimited)
}

func newCandidateSet() *candidateSet {
	return &candidateSet{seen: make(map[string]bool), searched: make(map[string]bool)}
}

func (s *candidateSet) add(products []domain.Product, strategy domain.Strategy, term string, filters SearchFilters) int {
	added := 0
	for i := range products {
		p := products[i]
		if !filters.accepts(&p) || s.seen[p.Key()] {
			continue
		}
		s.seen[p.Key()] = true
		s.items = append(s.items, Candidate{Product: p, Strategy: strategy, SearchTerm: term})
		added++
	}
	return added
}

// Search collects candidates for an ingredient from one catalog.
// Failures of single queries are logged and skipped; only context cancellation stops the cascade.
// When nothing was found and at least one query timed out, hit an open breaker or stayed rate
// limited, that failure is returned instead of an empty result.
func (o *SearchOrchestrator) Search(ctx context.Context, client domain.CatalogClient, ingredient string, filters SearchFilters) ([]Candidate, error) {
	normalized := o.normalizer.Normalize(ingredient)
	if normalized == "" {
		return nil, nil
	}
	logger := o.logger.With(zap.String("source", string(client.Source())), zap.String("ingredient", normalized))
	set := newCandidateSet()

	// Stage A: exact term, then its translations and variants, first hit wins
	terms := o.index.AllSearchTerms(normalized)
	if len(terms) > maxExactTerms {
		terms = terms[:maxExactTerms]
	}
	for i, term := range terms {
		strategy := domain.StrategyTranslation
		if i == 0 {
			strategy = domain.StrategyExact
		}
		n, err := o.search(ctx, client, set, term, strategy, filters, logger)
		if err != nil {
			return set.items, err
		}
		if n > 0 {
			break
		}
	}

	// Stage B: key terms and their synonyms, merged
	if len(set.items) < keywordStageBelow {
		keyTerms := o.keyTerms(normalized)
		for _, kt := range keyTerms {
			queries := []termQuery{{term: kt, strategy: domain.StrategyKeyword}}
			synonyms := o.index.Translations(kt)
			if len(synonyms) > maxSynonymsPerTerm {
				synonyms = synonyms[:maxSynonymsPerTerm]
			}
			for _, syn := range synonyms {
				queries = append(queries, termQuery{term: syn, strategy: domain.StrategyTranslation})
			}

			for _, q := range queries {
				if _, err := o.search(ctx, client, set, q.term, q.strategy, filters, logger); err != nil {
					return set.items, err
				}
			}
		}
	}

	// Stage C: category listings
	if len(set.items) < categoryStageBelow {
		if category, ok := o.index.InferCategory(normalized); ok {
			names := o.index.CategorySearchNames(category)
			if len(names) > maxCategoryNames {
				names = names[:maxCategoryNames]
			}
			for _, name := range names {
				if err := ctx.Err(); err != nil {
					return set.items, err
				}
				products, err := client.GetProductsByCategory(ctx, name, o.searchLimit)
				if err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						return set.items, ctxErr
					}
					logger.Warn("category listing failed", zap.String("category", name), zap.Error(err))
					set.noteFailure(err)
					continue
				}
				set.add(products, domain.StrategyCategory, name, filters)
			}
		}
	}

	logger.Debug("search cascade finished", zap.Int("candidates", len(set.items)))
	if len(set.items) == 0 && set.unreached != nil {
		return nil, set.unreached
	}
	return set.items, nil
}

// search runs one query unless it already ran for this ingredient and returns the number of new candidates
func (o *SearchOrchestrator) search(ctx context.Context, client domain.CatalogClient, set *candidateSet, term string, strategy domain.Strategy, filters SearchFilters, logger *zap.Logger) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if set.searched[term] {
		return 0, nil
	}
	set.searched[term] = true

	result, err := client.SearchProducts(ctx, domain.SearchOptions{
		Query:         term,
		Limit:         o.searchLimit,
		InStockOnly:   filters.InStockOnly,
		OrganicOnly:   filters.OrganicOnly,
		MaxPriceCents: filters.MaxPriceCents,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		logger.Warn("search term failed", zap.String("term", term), zap.String("operation", "search"), zap.Error(err))
		set.noteFailure(err)
		return 0, nil
	}
	if result == nil {
		return 0, nil
	}
	return set.add(result.Products, strategy, term, filters), nil
}

func (o *SearchOrchestrator) keyTerms(normalized string) []string {
	var out []string
	for _, kt := range o.normalizer.ExtractKeyTerms(normalized) {
		if len([]rune(kt)) < minKeyTermLength {
			continue
		}
		out = append(out, kt)
		if len(out) == maxKeyTerms {
			break
		}
	}
	return out
}
