package usecase

import (
	"sort"

	"github.com/google/uuid"

	"github.com/pantrylens/backend/internal/domain"
)

const defaultMaxAlternatives = 5

// MatchType thresholds
const (
	exactThreshold      = 0.8
	similarThreshold    = 0.6
	substituteThreshold = 0.4
)

// MatchAggregator ranks scored candidates into a primary match plus alternatives
type MatchAggregator struct {
	resolver        *QuantityResolver
	maxAlternatives int
	newID           func() string
}

// NewMatchAggregator creates an aggregator; maxAlternatives <= 0 means 5
func NewMatchAggregator(resolver *QuantityResolver, maxAlternatives int) *MatchAggregator {
	if maxAlternatives <= 0 {
		maxAlternatives = defaultMaxAlternatives
	}
	return &MatchAggregator{
		resolver:        resolver,
		maxAlternatives: maxAlternatives,
		newID:           uuid.NewString,
	}
}

// Need is the ingredient side of a match
type Need struct {
	IngredientName string
	Quantity       float64
	Unit           domain.Unit
}

// Aggregate picks the best candidate and builds the match. Zero candidates yield not_found.
func (a *MatchAggregator) Aggregate(need Need, scored []ScoredCandidate) domain.ProductMatch {
	if len(scored) == 0 {
		return a.NotFound(need, "no catalog product matched")
	}

	ranked := RankCandidates(scored)
	best := ranked[0]
	product := best.Product
	qty, cost := a.resolver.Resolve(&product, need.Quantity, need.Unit)

	match := domain.ProductMatch{
		ID:             a.newID(),
		IngredientName: need.IngredientName,
		QuantityNeeded: need.Quantity,
		UnitNeeded:     need.Unit,
		Product:        &product,
		Confidence:     best.Score,
		QuantityToBuy:  qty,
		TotalCostCents: cost,
		MatchType:      DeriveMatchType(best.Strategy, best.Score),
		Strategy:       best.Strategy,
		MatchReason:    best.Explanation,
		Alternatives:   a.alternatives(need, &product, cost, ranked[1:]),
	}
	match.Explanation = ExplainMatch(&match)
	return match
}

// NotFound builds the first-class empty match for an ingredient
func (a *MatchAggregator) NotFound(need Need, reason string) domain.ProductMatch {
	match := domain.ProductMatch{
		ID:             a.newID(),
		IngredientName: need.IngredientName,
		QuantityNeeded: need.Quantity,
		UnitNeeded:     need.Unit,
		MatchType:      domain.MatchTypeNotFound,
		MatchReason:    reason,
		Alternatives:   []domain.Alternative{},
	}
	match.Explanation = ExplainMatch(&match)
	return match
}

func (a *MatchAggregator) alternatives(need Need, primary *domain.Product, primaryCost int64, rest []ScoredCandidate) []domain.Alternative {
	if len(rest) > a.maxAlternatives {
		rest = rest[:a.maxAlternatives]
	}

	alts := make([]domain.Alternative, 0, len(rest))
	for _, c := range rest {
		product := c.Product
		qty, cost := a.resolver.Resolve(&product, need.Quantity, need.Unit)
		delta := cost - primaryCost
		alts = append(alts, domain.Alternative{
			Product:         product,
			Confidence:      c.Score,
			QuantityToBuy:   qty,
			TotalCostCents:  cost,
			PriceDeltaCents: delta,
			Reason:          alternativeReason(primary, &product, delta),
		})
	}
	return alts
}

// alternativeReason applies the priority cheaper > organic > on promotion > store brand
func alternativeReason(primary, alt *domain.Product, delta int64) domain.AlternativeReason {
	switch {
	case delta < 0:
		return domain.ReasonCheaper
	case alt.IsOrganic && !primary.IsOrganic:
		return domain.ReasonOrganic
	case alt.OnPromotion():
		return domain.ReasonPromotion
	case alt.IsStoreBrand:
		return domain.ReasonStoreBrand
	default:
		return domain.ReasonAlternative
	}
}

// RankCandidates sorts by score descending, then price ascending, then product key
func RankCandidates(scored []ScoredCandidate) []ScoredCandidate {
	ranked := append([]ScoredCandidate(nil), scored...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Product.Price.CurrentCents != b.Product.Price.CurrentCents {
			return a.Product.Price.CurrentCents < b.Product.Price.CurrentCents
		}
		return a.Product.Key() < b.Product.Key()
	})
	return ranked
}

// DeriveMatchType classifies a match from its strategy and score
func DeriveMatchType(strategy domain.Strategy, score float64) domain.MatchType {
	switch {
	case strategy == domain.StrategyExact && score >= exactThreshold:
		return domain.MatchTypeExact
	case score >= similarThreshold:
		return domain.MatchTypeSimilar
	case score >= substituteThreshold:
		return domain.MatchTypeSubstitute
	default:
		return domain.MatchTypePartial
	}
}
