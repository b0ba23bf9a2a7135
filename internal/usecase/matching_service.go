package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/logging"
	"github.com/pantrylens/backend/internal/metrics"
)

const defaultBatchSize = 5

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	Scoring         ScoringConfig
	MaxAlternatives int
	BatchSize       int
	SearchLimit     int
}

// MatchingService matches ingredients against the registered catalog clients
type MatchingService struct {
	clients      map[domain.SourceID]domain.CatalogClient
	sources      []domain.SourceID
	normalizer   *IngredientNormalizer
	orchestrator *SearchOrchestrator
	scorer       *Scorer
	aggregator   *MatchAggregator
	batchSize    int
	logger       *zap.Logger
}

// NewMatchingService registers the given clients by their source id.
// Clients are supplied by the caller; the service never constructs them.
func NewMatchingService(clients []domain.CatalogClient, cfg MatchConfig, logger *zap.Logger) (*MatchingService, error) {
	logger = logging.OrNop(logger)

	registry := make(map[domain.SourceID]domain.CatalogClient, len(clients))
	sources := make([]domain.SourceID, 0, len(clients))
	for _, c := range clients {
		if c == nil {
			continue
		}
		id := c.Source()
		if _, dup := registry[id]; dup {
			return nil, fmt.Errorf("%w: duplicate catalog source %q", domain.ErrInvalidRequest, id)
		}
		registry[id] = c
		sources = append(sources, id)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	normalizer := NewIngredientNormalizer()
	index := NewTranslationIndex()

	return &MatchingService{
		clients:      registry,
		sources:      sources,
		normalizer:   normalizer,
		orchestrator: NewSearchOrchestrator(normalizer, index, cfg.SearchLimit, logger),
		scorer:       NewScorer(cfg.Scoring, normalizer, index),
		aggregator:   NewMatchAggregator(NewQuantityResolver(), cfg.MaxAlternatives),
		batchSize:    batchSize,
		logger:       logger.Named("matching"),
	}, nil
}

// Sources lists the registered source ids in sorted order
func (s *MatchingService) Sources() []domain.SourceID {
	return append([]domain.SourceID(nil), s.sources...)
}

// resolveSources returns the clients for the requested sources, or all when none are requested
func (s *MatchingService) resolveSources(requested []domain.SourceID) ([]domain.CatalogClient, error) {
	if len(requested) == 0 {
		if len(s.sources) == 0 {
			return nil, fmt.Errorf("%w: no catalog sources configured", domain.ErrSourceNotRegistered)
		}
		requested = s.sources
	}

	clients := make([]domain.CatalogClient, 0, len(requested))
	seen := make(map[domain.SourceID]bool, len(requested))
	for _, id := range requested {
		if seen[id] {
			continue
		}
		seen[id] = true
		c, ok := s.clients[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrSourceNotRegistered, id)
		}
		clients = append(clients, c)
	}
	return clients, nil
}

type matchInput struct {
	need     Need
	category domain.Category
	filters  SearchFilters
}

// MatchIngredient finds the best product and alternatives for one ingredient.
// An ingredient without candidates yields a not_found match, not an error.
func (s *MatchingService) MatchIngredient(ctx context.Context, req *domain.MatchRequest) (*domain.ProductMatch, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is required", domain.ErrInvalidRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	clients, err := s.resolveSources(req.Sources)
	if err != nil {
		return nil, err
	}

	match, err := s.match(ctx, clients, matchInput{
		need: Need{IngredientName: req.IngredientName, Quantity: req.Quantity, Unit: req.Unit},
		filters: SearchFilters{
			InStockOnly:   req.InStockOnly,
			OrganicOnly:   req.OrganicOnly,
			MaxPriceCents: req.MaxPriceCents,
		},
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *MatchingService) match(ctx context.Context, clients []domain.CatalogClient, in matchInput) (domain.ProductMatch, error) {
	start := time.Now()

	var (
		candidates []Candidate
		unreached  error
	)
	for _, client := range clients {
		found, err := s.orchestrator.Search(ctx, client, in.need.IngredientName, in.filters)
		if err != nil {
			if ctx.Err() != nil || !catalogUnreachable(err) {
				return domain.ProductMatch{}, err
			}
			s.logger.Warn("catalog source unreachable",
				zap.String("source", string(client.Source())),
				zap.String("ingredient", in.need.IngredientName),
				zap.Error(err),
			)
			if unreached == nil {
				unreached = err
			}
			continue
		}
		candidates = append(candidates, found...)
	}
	// an empty answer is only a not_found when every source could be asked
	if len(candidates) == 0 && unreached != nil {
		return domain.ProductMatch{}, unreached
	}

	scored := s.scorer.Score(in.need.IngredientName, in.category, candidates)
	match := s.aggregator.Aggregate(in.need, scored)

	metrics.RecordMatch(string(match.MatchType), time.Since(start))
	s.logger.Info("ingredient matched",
		zap.String("ingredient", in.need.IngredientName),
		zap.String("match_type", string(match.MatchType)),
		zap.Float64("confidence", match.Confidence),
		zap.Int("candidates", len(candidates)),
		zap.Int("scored", len(scored)),
	)
	return match, nil
}

// MatchGroceryItems matches a shopping list in groups of the configured batch size.
// Each item's match is appended to item.Matches and returned in input order.
// Per-item failures become not_found matches. When ctx is cancelled, or an item ran out of
// time waiting for a catalog, no further group starts and the matches produced so far are
// returned with the error.
func (s *MatchingService) MatchGroceryItems(ctx context.Context, items []*domain.GroceryItem, sources []domain.SourceID) ([]domain.ProductMatch, error) {
	clients, err := s.resolveSources(sources)
	if err != nil {
		return nil, err
	}

	results := make([]domain.ProductMatch, len(items))
	for start := 0; start < len(items); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return results[:start], err
		}
		end := min(start+s.batchSize, len(items))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				var err error
				results[i], err = s.matchItem(ctx, clients, items[i])
				return err
			})
		}
		groupErr := g.Wait()

		if err := ctx.Err(); err != nil {
			return results[:end], err
		}
		if groupErr != nil {
			return results[:end], groupErr
		}
	}
	return results, nil
}

// matchItem always produces a match: errors are logged and turned into a not_found match.
// The returned error is set only when the item ran out of time, so the batch can stop.
func (s *MatchingService) matchItem(ctx context.Context, clients []domain.CatalogClient, item *domain.GroceryItem) (domain.ProductMatch, error) {
	if item == nil {
		return s.aggregator.NotFound(Need{}, "empty grocery item"), nil
	}
	req := item.ToMatchRequest()
	need := Need{IngredientName: req.IngredientName, Quantity: req.Quantity, Unit: req.Unit}

	var (
		match    domain.ProductMatch
		deadline error
	)
	if err := item.Validate(); err != nil {
		s.logger.Warn("invalid grocery item", zap.String("ingredient", item.IngredientName), zap.Error(err))
		match = s.aggregator.NotFound(need, "invalid grocery item")
	} else {
		m, err := s.match(ctx, clients, matchInput{need: need, category: item.Category})
		if err != nil {
			s.logger.Warn("grocery item match failed", zap.String("ingredient", item.IngredientName), zap.Error(err))
			m = s.aggregator.NotFound(need, "catalog search did not complete")
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				deadline = err
			}
		}
		match = m
	}

	item.Matches = append(item.Matches, match)
	return match, deadline
}

// ParseIngredientLine splits a free-text line like "2 cups flour" into a request
func (s *MatchingService) ParseIngredientLine(line string) (*domain.MatchRequest, bool) {
	parsed, ok := s.normalizer.ParseQuantity(line)
	if !ok || parsed.Ingredient == "" {
		return nil, false
	}
	return &domain.MatchRequest{
		IngredientName: parsed.Ingredient,
		Quantity:       parsed.Value,
		Unit:           parsed.Unit,
	}, true
}

// SourceHealth probes one registered source
func (s *MatchingService) SourceHealth(ctx context.Context, source domain.SourceID) (domain.HealthStatus, error) {
	client, ok := s.clients[source]
	if !ok {
		return domain.HealthStatus{}, fmt.Errorf("%w: %q", domain.ErrSourceNotRegistered, source)
	}
	return client.HealthCheck(ctx), nil
}

// AllSourceHealth probes every registered source concurrently
func (s *MatchingService) AllSourceHealth(ctx context.Context) []domain.HealthStatus {
	statuses := make([]domain.HealthStatus, len(s.sources))
	var g errgroup.Group
	for i, id := range s.sources {
		g.Go(func() error {
			statuses[i] = s.clients[id].HealthCheck(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return statuses
}

// Promotions passes through the current offers of one source
func (s *MatchingService) Promotions(ctx context.Context, source domain.SourceID) ([]domain.Product, error) {
	client, ok := s.clients[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrSourceNotRegistered, source)
	}
	return client.GetPromotions(ctx)
}

// InvalidateSourceCache drops cached responses of one source under prefix; an empty prefix clears the source.
// Sources without a response cache report zero removals.
func (s *MatchingService) InvalidateSourceCache(ctx context.Context, source domain.SourceID, prefix string) (int, error) {
	client, ok := s.clients[source]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrSourceNotRegistered, source)
	}
	invalidator, ok := client.(domain.CacheInvalidator)
	if !ok {
		return 0, nil
	}
	removed, err := invalidator.InvalidateCache(ctx, strings.TrimSpace(prefix))
	if err != nil {
		return 0, err
	}
	s.logger.Info("source cache invalidated",
		zap.String("source", string(source)),
		zap.String("prefix", prefix),
		zap.Int("removed", removed),
	)
	return removed, nil
}
