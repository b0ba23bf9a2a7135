package usecase

import (
	"fmt"
	"math"

	"github.com/pantrylens/backend/internal/domain"
)

// ceilEpsilon absorbs float error so 2.0000000001 packages still rounds to 2
const ceilEpsilon = 1e-9

type unitPair struct {
	from, to domain.Unit
}

// conversionFactors multiply a value in from into a value in to
var conversionFactors = map[unitPair]float64{
	{domain.UnitGram, domain.UnitKilogram}:         0.001,
	{domain.UnitKilogram, domain.UnitGram}:         1000,
	{domain.UnitMilliliter, domain.UnitLiter}:      0.001,
	{domain.UnitLiter, domain.UnitMilliliter}:      1000,
	{domain.UnitTeaspoon, domain.UnitMilliliter}:   5,
	{domain.UnitMilliliter, domain.UnitTeaspoon}:   1.0 / 5,
	{domain.UnitTablespoon, domain.UnitMilliliter}: 15,
	{domain.UnitMilliliter, domain.UnitTablespoon}: 1.0 / 15,
	{domain.UnitCup, domain.UnitMilliliter}:        240,
	{domain.UnitMilliliter, domain.UnitCup}:        1.0 / 240,
	{domain.UnitTeaspoon, domain.UnitTablespoon}:   1.0 / 3,
	{domain.UnitTablespoon, domain.UnitTeaspoon}:   3,
	{domain.UnitTablespoon, domain.UnitCup}:        1.0 / 16,
	{domain.UnitCup, domain.UnitTablespoon}:        16,
}

// QuantityResolver turns a needed amount into whole packages to buy
type QuantityResolver struct{}

// NewQuantityResolver creates a resolver
func NewQuantityResolver() *QuantityResolver {
	return &QuantityResolver{}
}

// Convert expresses value in unit to. A direct factor is preferred;
// otherwise the conversion goes through milliliters.
func (r *QuantityResolver) Convert(value float64, from, to domain.Unit) (float64, error) {
	if from == to {
		return value, nil
	}
	if dim := from.Dimension(); dim == "" || dim != to.Dimension() {
		return 0, fmt.Errorf("%w: %s to %s", domain.ErrIncompatibleUnits, from, to)
	}
	if f, ok := conversionFactors[unitPair{from, to}]; ok {
		return value * f, nil
	}
	toML, ok1 := conversionFactors[unitPair{from, domain.UnitMilliliter}]
	fromML, ok2 := conversionFactors[unitPair{domain.UnitMilliliter, to}]
	if ok1 && ok2 {
		return value * toML * fromML, nil
	}
	return 0, fmt.Errorf("%w: %s to %s", domain.ErrIncompatibleUnits, from, to)
}

// PackagesToBuy returns ceil(needed / package size), at least 1.
// Unknown or incompatible units fall back to a single package.
func (r *QuantityResolver) PackagesToBuy(needed float64, unit domain.Unit, pkg domain.PackageSize) int {
	if needed <= 0 || pkg.Value <= 0 {
		return 1
	}
	if unit == "" {
		unit = domain.UnitPiece
	}
	pkgUnit := pkg.Unit
	if pkgUnit == "" {
		pkgUnit = domain.UnitPiece
	}

	converted, err := r.Convert(needed, unit, pkgUnit)
	if err != nil {
		return 1
	}
	packages := math.Ceil(converted/pkg.Value - ceilEpsilon)
	if packages < 1 || math.IsNaN(packages) {
		return 1
	}
	if packages > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(packages)
}

// Resolve returns the packages to buy and their total cost in cents
func (r *QuantityResolver) Resolve(product *domain.Product, needed float64, unit domain.Unit) (int, int64) {
	if product == nil {
		return 0, 0
	}
	qty := r.PackagesToBuy(needed, unit, product.PackageSize)
	return qty, int64(qty) * product.Price.CurrentCents
}
