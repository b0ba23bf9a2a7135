package domain

import (
	"fmt"
	"strings"
)

// Unit is the measurement vocabulary shared by recipes and catalog packages.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitTeaspoon   Unit = "tsp"
	UnitTablespoon Unit = "tbsp"
	UnitCup        Unit = "cup"
	UnitPiece      Unit = "piece"
)

// AllUnits lists the closed unit vocabulary.
var AllUnits = []Unit{
	UnitGram, UnitKilogram, UnitMilliliter, UnitLiter,
	UnitTeaspoon, UnitTablespoon, UnitCup, UnitPiece,
}

// unitAliases maps English and Spanish spellings found in recipes and shelf labels
var unitAliases = map[string]Unit{
	"g": UnitGram, "gr": UnitGram, "grs": UnitGram, "gram": UnitGram, "grams": UnitGram,
	"gramo": UnitGram, "gramos": UnitGram,
	"kg": UnitKilogram, "kgs": UnitKilogram, "kilo": UnitKilogram, "kilos": UnitKilogram,
	"kilogram": UnitKilogram, "kilograms": UnitKilogram, "kilogramo": UnitKilogram, "kilogramos": UnitKilogram,
	"ml": UnitMilliliter, "milliliter": UnitMilliliter, "milliliters": UnitMilliliter,
	"millilitre": UnitMilliliter, "mililitro": UnitMilliliter, "mililitros": UnitMilliliter,
	"l": UnitLiter, "lt": UnitLiter, "liter": UnitLiter, "liters": UnitLiter, "litre": UnitLiter,
	"litres": UnitLiter, "litro": UnitLiter, "litros": UnitLiter,
	"tsp": UnitTeaspoon, "teaspoon": UnitTeaspoon, "teaspoons": UnitTeaspoon,
	"cucharadita": UnitTeaspoon, "cucharaditas": UnitTeaspoon,
	"tbsp": UnitTablespoon, "tablespoon": UnitTablespoon, "tablespoons": UnitTablespoon,
	"cucharada": UnitTablespoon, "cucharadas": UnitTablespoon,
	"cup": UnitCup, "cups": UnitCup, "taza": UnitCup, "tazas": UnitCup,
	"piece": UnitPiece, "pieces": UnitPiece, "pc": UnitPiece, "pcs": UnitPiece, "ud": UnitPiece,
	"uds": UnitPiece, "unit": UnitPiece, "units": UnitPiece, "unidad": UnitPiece, "unidades": UnitPiece,
	"each": UnitPiece, "ea": UnitPiece,
}

// ParseUnit resolves a unit spelling to the closed vocabulary.
func ParseUnit(raw string) (Unit, error) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), ".")))
	if u, ok := unitAliases[key]; ok {
		return u, nil
	}
	return "", fmt.Errorf("%w: unknown unit %q", ErrInvalidRequest, raw)
}

// Valid reports whether u belongs to the closed vocabulary.
func (u Unit) Valid() bool {
	for _, known := range AllUnits {
		if u == known {
			return true
		}
	}
	return false
}

// Dimension groups units that can be converted into each other.
func (u Unit) Dimension() string {
	switch u {
	case UnitGram, UnitKilogram:
		return "mass"
	case UnitMilliliter, UnitLiter, UnitTeaspoon, UnitTablespoon, UnitCup:
		return "volume"
	case UnitPiece:
		return "count"
	default:
		return ""
	}
}
