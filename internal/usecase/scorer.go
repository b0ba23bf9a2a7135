package usecase

import (
	"fmt"
	"strings"

	"github.com/pantrylens/backend/internal/domain"
)

// Candidate is a raw catalog product surfaced by one search strategy
type Candidate struct {
	Product    domain.Product
	Strategy   domain.Strategy
	SearchTerm string
}

// ScoringConfig holds the weights and thresholds of the confidence model
type ScoringConfig struct {
	NameWeight     float64
	CategoryWeight float64
	PriceWeight    float64
	MinConfidence  float64
	FuzzyThreshold float64
}

// DefaultScoringConfig returns the default weights 0.5/0.3/0.2, minimum confidence 0.3
// and fuzzy threshold 0.7.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		NameWeight:     0.5,
		CategoryWeight: 0.3,
		PriceWeight:    0.2,
		MinConfidence:  0.3,
		FuzzyThreshold: 0.7,
	}
}

func (c ScoringConfig) withDefaults() ScoringConfig {
	if c == (ScoringConfig{}) {
		return DefaultScoringConfig()
	}
	def := DefaultScoringConfig()
	if c.NameWeight < 0 || c.CategoryWeight < 0 || c.PriceWeight < 0 ||
		c.NameWeight+c.CategoryWeight+c.PriceWeight <= 0 {
		c.NameWeight, c.CategoryWeight, c.PriceWeight = def.NameWeight, def.CategoryWeight, def.PriceWeight
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		c.FuzzyThreshold = def.FuzzyThreshold
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		c.MinConfidence = def.MinConfidence
	}
	return c
}

// Scoring constants
const (
	scoreExact            = 1.0
	scoreTranslation      = 0.9
	scoreTranslationFuzzy = 0.6
	maxKeywordOverlap     = 0.8
	categoryUnknown       = 0.5
	priceBase             = 0.8
	priceUnitBonus        = 0.2
	pricePromotionBonus   = 0.1
	priceStoreBrandBonus  = 0.05
)

// ScoredCandidate is a candidate with its confidence breakdown
type ScoredCandidate struct {
	Product         domain.Product
	Strategy        domain.Strategy
	SearchTerm      string
	NameSimilarity  float64
	CategoryMatch   float64
	PriceEfficiency float64
	Score           float64
	Explanation     string
}

// Scorer computes a weighted confidence per candidate
type Scorer struct {
	cfg        ScoringConfig
	normalizer *IngredientNormalizer
	index      *TranslationIndex
}

// NewScorer creates a scorer; a zero config means defaults
func NewScorer(cfg ScoringConfig, normalizer *IngredientNormalizer, index *TranslationIndex) *Scorer {
	return &Scorer{cfg: cfg.withDefaults(), normalizer: normalizer, index: index}
}

// Config returns the effective configuration
func (s *Scorer) Config() ScoringConfig {
	return s.cfg
}

// Score rates every candidate against the ingredient and drops those below the minimum confidence.
// An empty expected category is inferred from the ingredient name. Input order is preserved.
func (s *Scorer) Score(ingredient string, expected domain.Category, candidates []Candidate) []ScoredCandidate {
	normalized := s.normalizer.Normalize(ingredient)
	if expected == "" {
		expected, _ = s.index.InferCategory(normalized)
	}

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		sc := s.scoreOne(normalized, expected, c)
		if sc.Score < s.cfg.MinConfidence {
			continue
		}
		scored = append(scored, sc)
	}
	return scored
}

func (s *Scorer) scoreOne(normalized string, expected domain.Category, c Candidate) ScoredCandidate {
	name := s.NameSimilarity(normalized, c.Product.Name)
	category := CategoryMatch(expected, c.Product.Category)
	price := PriceEfficiency(&c.Product)

	score := clamp01(name*s.cfg.NameWeight + category*s.cfg.CategoryWeight + price*s.cfg.PriceWeight)

	return ScoredCandidate{
		Product:         c.Product,
		Strategy:        c.Strategy,
		SearchTerm:      c.SearchTerm,
		NameSimilarity:  name,
		CategoryMatch:   category,
		PriceEfficiency: price,
		Score:           score,
		Explanation: fmt.Sprintf("%s search for %q: name %.0f%%, category %.0f%%, price %.0f%%",
			c.Strategy, c.SearchTerm, name*100, category*100, price*100),
	}
}

// NameSimilarity rates how well productName names the normalized ingredient, in [0, 1]
func (s *Scorer) NameSimilarity(normalized, productName string) float64 {
	words := tokenize(productName)
	name := strings.Join(words, " ")
	if normalized == "" || name == "" {
		return 0
	}

	if normalized == name || containsWords(name, normalized) || containsWords(normalized, name) {
		return scoreExact
	}
	if sim := similarity(normalized, name); sim > s.cfg.FuzzyThreshold {
		return sim
	}

	translations := s.translationsOf(normalized)
	for _, t := range translations {
		if containsWords(name, t) {
			return scoreTranslation
		}
	}
	for _, t := range translations {
		if bestSimilarity(t, name, words) > s.cfg.FuzzyThreshold {
			return scoreTranslationFuzzy
		}
	}

	if overlap := s.keywordOverlap(normalized, name, words); overlap > 0 {
		return min(overlap, maxKeywordOverlap)
	}
	return 0
}

// translationsOf collects translations of the whole ingredient and of each key term
func (s *Scorer) translationsOf(normalized string) []string {
	terms := s.index.Translations(normalized)
	for _, kt := range s.normalizer.ExtractKeyTerms(normalized) {
		if kt == normalized {
			continue
		}
		terms = append(terms, s.index.Translations(kt)...)
	}
	return dedupTerms(terms, normalized)
}

// keywordOverlap is the share of key terms found in the name, directly or translated
func (s *Scorer) keywordOverlap(normalized, name string, words []string) float64 {
	keyTerms := s.normalizer.ExtractKeyTerms(normalized)
	if len(keyTerms) == 0 {
		return 0
	}

	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}

	matched := 0
	for _, kt := range keyTerms {
		if wordSet[kt] {
			matched++
			continue
		}
		for _, alt := range append(s.index.Variants(kt), s.index.Translations(kt)...) {
			if containsWords(name, alt) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(keyTerms))
}

// CategoryMatch is 1 when the categories agree and 0.5 otherwise
func CategoryMatch(expected, actual domain.Category) float64 {
	if expected == "" || expected == domain.CategoryOther {
		return categoryUnknown
	}
	if expected == actual {
		return 1
	}
	return categoryUnknown
}

// PriceEfficiency rewards comparable pricing, offers and store brands, capped at 1
func PriceEfficiency(p *domain.Product) float64 {
	score := priceBase
	if p.Price.PerUnit != nil {
		score += priceUnitBonus
	}
	if p.OnPromotion() {
		score += pricePromotionBonus
	}
	if p.IsStoreBrand {
		score += priceStoreBrandBonus
	}
	return min(score, 1.0)
}

// containsWords reports whether phrase occurs in text on word boundaries
func containsWords(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}
