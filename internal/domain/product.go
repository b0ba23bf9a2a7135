package domain

import "time"

// Product is an immutable snapshot of one catalog listing.
// Snapshots are replaced wholesale on re-fetch, never mutated in place.
type Product struct {
	ID           ProductID   `json:"id"`
	Source       SourceID    `json:"source"`
	Name         string      `json:"name"`
	Brand        string      `json:"brand,omitempty"`
	Price        Price       `json:"price"`
	Category     Category    `json:"category"`
	PackageSize  PackageSize `json:"packageSize"`
	InStock      bool        `json:"inStock"`
	IsOrganic    bool        `json:"isOrganic"`
	IsStoreBrand bool        `json:"isStoreBrand"`
	Promotion    *Promotion  `json:"promotion,omitempty"`
	LastUpdated  time.Time   `json:"lastUpdated"`
}

// Price holds money in integer cents
type Price struct {
	CurrentCents  int64      `json:"currentCents"`
	OriginalCents *int64     `json:"originalCents,omitempty"`
	PerUnit       *UnitPrice `json:"perUnit,omitempty"`
}

// UnitPrice is a normalized price per reference unit (e.g. cents per kg)
type UnitPrice struct {
	Cents int64 `json:"cents"`
	Unit  Unit  `json:"unit"`
}

// PackageSize is the physical unit a product is sold in
type PackageSize struct {
	Value   float64 `json:"value"`
	Unit    Unit    `json:"unit"`
	Display string  `json:"display"`
}

// Promotion describes an active offer on a product
type Promotion struct {
	Label  string     `json:"label"`
	EndsAt *time.Time `json:"endsAt,omitempty"`
}

// OnPromotion reports whether the product carries an offer or a struck-through price.
func (p *Product) OnPromotion() bool {
	if p.Promotion != nil {
		return true
	}
	return p.Price.OriginalCents != nil && *p.Price.OriginalCents > p.Price.CurrentCents
}

// Key identifies a product across sources, used for candidate deduplication.
func (p *Product) Key() string {
	return string(p.Source) + "/" + string(p.ID)
}

// CategoryInfo is one entry of a source's category listing
type CategoryInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     Category `json:"category"`
	ProductCount int      `json:"productCount,omitempty"`
}
