package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MatchType classifies how well the chosen product fulfils the ingredient
type MatchType string

const (
	MatchTypeExact      MatchType = "exact"
	MatchTypeSimilar    MatchType = "similar"
	MatchTypeSubstitute MatchType = "substitute"
	MatchTypePartial    MatchType = "partial"
	MatchTypeNotFound   MatchType = "not_found"
)

// Strategy is the search technique that surfaced a candidate
type Strategy string

const (
	StrategyExact       Strategy = "exact"
	StrategyTranslation Strategy = "translation"
	StrategyKeyword     Strategy = "keyword"
	StrategyCategory    Strategy = "category"
)

// AlternativeReason explains why an alternative is offered next to the primary match
type AlternativeReason string

const (
	ReasonCheaper     AlternativeReason = "cheaper"
	ReasonOrganic     AlternativeReason = "organic"
	ReasonPromotion   AlternativeReason = "on_promotion"
	ReasonStoreBrand  AlternativeReason = "store_brand"
	ReasonAlternative AlternativeReason = "alternative"
)

// ProductMatch is the purchasable answer for one ingredient line.
type ProductMatch struct {
	ID             string        `json:"id"`
	IngredientName string        `json:"ingredientName"`
	QuantityNeeded float64       `json:"quantityNeeded"`
	UnitNeeded     Unit          `json:"unitNeeded"`
	Product        *Product      `json:"product,omitempty"`
	Confidence     float64       `json:"confidence"`
	QuantityToBuy  int           `json:"quantityToBuy"`
	TotalCostCents int64         `json:"totalCostCents"`
	MatchType      MatchType     `json:"matchType"`
	Strategy       Strategy      `json:"strategy,omitempty"`
	MatchReason    string        `json:"matchReason"`
	Explanation    string        `json:"explanation"`
	Alternatives   []Alternative `json:"alternatives"`
}

// Alternative is a lower-ranked candidate offered next to the primary match
type Alternative struct {
	Product         Product           `json:"product"`
	Confidence      float64           `json:"confidence"`
	QuantityToBuy   int               `json:"quantityToBuy"`
	TotalCostCents  int64             `json:"totalCostCents"`
	PriceDeltaCents int64             `json:"priceDeltaCents"`
	Reason          AlternativeReason `json:"reason"`
}

// GroceryItem is one line of a shopping list produced outside this core.
// The core only appends matches to it.
type GroceryItem struct {
	IngredientName string         `json:"ingredientName" validate:"required,min=1,max=200"`
	NeededQuantity float64        `json:"neededQuantity" validate:"gte=0"`
	NeededUnit     Unit           `json:"neededUnit"`
	Category       Category       `json:"category,omitempty"`
	Matches        []ProductMatch `json:"matches,omitempty"`
	SelectedMatch  *ProductMatch  `json:"selectedMatch,omitempty"`
}

// MatchRequest asks for a match for a single ingredient
type MatchRequest struct {
	IngredientName string     `json:"ingredientName" validate:"required,min=1,max=200"`
	Quantity       float64    `json:"quantity" validate:"gte=0"`
	Unit           Unit       `json:"unit"`
	Sources        []SourceID `json:"sources,omitempty"`
	InStockOnly    bool       `json:"inStockOnly,omitempty"`
	OrganicOnly    bool       `json:"organicOnly,omitempty"`
	MaxPriceCents  *int64     `json:"maxPriceCents,omitempty" validate:"omitempty,gt=0"`
}

// Validate checks struct tags and the unit vocabulary.
func (r *MatchRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if r.Unit != "" && !r.Unit.Valid() {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidRequest, r.Unit)
	}
	return nil
}

// Validate checks struct tags and the unit vocabulary.
func (g *GroceryItem) Validate() error {
	if err := validate.Struct(g); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if g.NeededUnit != "" && !g.NeededUnit.Valid() {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidRequest, g.NeededUnit)
	}
	return nil
}

// ToMatchRequest converts a grocery line into a single-ingredient request.
func (g *GroceryItem) ToMatchRequest() *MatchRequest {
	return &MatchRequest{
		IngredientName: g.IngredientName,
		Quantity:       g.NeededQuantity,
		Unit:           g.NeededUnit,
	}
}
