package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrylens/backend/internal/domain"
)

func TestQuantityResolver_Convert(t *testing.T) {
	r := NewQuantityResolver()

	tests := []struct {
		name     string
		value    float64
		from, to domain.Unit
		want     float64
	}{
		{"same unit", 3, domain.UnitCup, domain.UnitCup, 3},
		{"grams to kilograms", 2000, domain.UnitGram, domain.UnitKilogram, 2},
		{"liters to milliliters", 1.5, domain.UnitLiter, domain.UnitMilliliter, 1500},
		{"tablespoons to teaspoons", 2, domain.UnitTablespoon, domain.UnitTeaspoon, 6},
		{"cups to tablespoons", 1, domain.UnitCup, domain.UnitTablespoon, 16},
		{"cups to liters via milliliters", 2, domain.UnitCup, domain.UnitLiter, 0.48},
		{"teaspoons to liters via milliliters", 200, domain.UnitTeaspoon, domain.UnitLiter, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Convert(tt.value, tt.from, tt.to)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := r.Convert(1, domain.UnitGram, domain.UnitMilliliter)
	assert.ErrorIs(t, err, domain.ErrIncompatibleUnits)

	_, err = r.Convert(1, domain.UnitPiece, domain.UnitKilogram)
	assert.ErrorIs(t, err, domain.ErrIncompatibleUnits)

	_, err = r.Convert(1, domain.Unit("oz"), domain.UnitGram)
	assert.ErrorIs(t, err, domain.ErrIncompatibleUnits)

	_, err = r.Convert(1, domain.UnitCup, domain.UnitGram)
	assert.ErrorIs(t, err, domain.ErrIncompatibleUnits, "volume never converts into mass")
}

func TestQuantityResolver_PackagesToBuy(t *testing.T) {
	r := NewQuantityResolver()
	kilo := domain.PackageSize{Value: 1, Unit: domain.UnitKilogram}

	tests := []struct {
		name   string
		needed float64
		unit   domain.Unit
		pkg    domain.PackageSize
		want   int
	}{
		{"exact multiple", 2000, domain.UnitGram, kilo, 2},
		{"rounds up", 2100, domain.UnitGram, kilo, 3},
		{"less than one package", 200, domain.UnitGram, kilo, 1},
		{"float noise does not add a package", 0.1 + 0.2, domain.UnitLiter, domain.PackageSize{Value: 0.3, Unit: domain.UnitLiter}, 1},
		{"pieces", 12, domain.UnitPiece, domain.PackageSize{Value: 6, Unit: domain.UnitPiece}, 2},
		{"missing units mean pieces", 3, "", domain.PackageSize{Value: 2}, 2},
		{"incompatible units", 500, domain.UnitMilliliter, kilo, 1},
		{"zero needed", 0, domain.UnitGram, kilo, 1},
		{"unknown package size", 500, domain.UnitGram, domain.PackageSize{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.PackagesToBuy(tt.needed, tt.unit, tt.pkg))
		})
	}
}

func TestQuantityResolver_Resolve(t *testing.T) {
	r := NewQuantityResolver()
	p := product("1", "Arroz redondo", domain.CategoryDryGoods, 135, 1, domain.UnitKilogram)

	qty, cost := r.Resolve(&p, 2000, domain.UnitGram)
	assert.Equal(t, 2, qty)
	assert.Equal(t, int64(270), cost)

	qty, cost = r.Resolve(nil, 2000, domain.UnitGram)
	assert.Zero(t, qty)
	assert.Zero(t, cost)
}

func TestQuantityResolver_ConvertRoundTrip(t *testing.T) {
	r := NewQuantityResolver()
	units := []domain.Unit{
		domain.UnitGram, domain.UnitKilogram, domain.UnitMilliliter, domain.UnitLiter,
		domain.UnitTeaspoon, domain.UnitTablespoon, domain.UnitCup, domain.UnitPiece,
	}

	for _, from := range units {
		for _, to := range units {
			there, err := r.Convert(3.5, from, to)
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrIncompatibleUnits)
				_, back := r.Convert(1, to, from)
				assert.ErrorIs(t, back, domain.ErrIncompatibleUnits, "%s<->%s should fail both ways", from, to)
				continue
			}
			back, err := r.Convert(there, to, from)
			require.NoError(t, err, "%s -> %s -> %s", from, to, from)
			assert.InDelta(t, 3.5, back, 1e-9, "%s -> %s -> %s", from, to, from)
		}
	}
}
