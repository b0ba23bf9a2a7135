package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pantrylens/backend/internal/domain"
)

// Compiled patterns for ingredient normalization
var (
	// Leading amount with an optional unit and connector: "2 cups of", "500g", "1/2 cucharadita de"
	leadingQuantityPattern = regexp.MustCompile(`^\d+(?:[.,/]\d+)?(?:\s*(?:kilograms?|kilogramos?|kilos?|kgs?|grams?|gramos?|grs?|g|milliliters?|mililitros?|ml|liters?|litres?|litros?|lt|l|teaspoons?|cucharaditas?|tsp|tablespoons?|cucharadas?|tbsp|cups?|tazas?|pieces?|pcs?|unidad(?:es)?|uds?|ounces?|oz|pounds?|lbs?|cloves?|dientes?|pinch(?:es)?|pizcas?|cans?|latas?|slices?|rodajas?)\b)?\s*(?:of\b|de\b)?\s*`)

	nonWordPattern    = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	multiSpacePattern = regexp.MustCompile(`\s+`)

	// Leading amount for ParseQuantity: "1 1/2", "1/2", "1,5", "3"
	amountPattern = regexp.MustCompile(`^(?:(\d+)\s+(\d+)/(\d+)|(\d+)/(\d+)|(\d+(?:[.,]\d+)?))`)
)

// preparationWords are dropped from ingredient names: they describe handling, not the product
var preparationWords = map[string]bool{
	// English
	"diced": true, "chopped": true, "sliced": true, "minced": true, "grated": true,
	"shredded": true, "peeled": true, "crushed": true, "mashed": true, "cubed": true,
	"julienned": true, "halved": true, "quartered": true, "trimmed": true, "rinsed": true,
	"drained": true, "softened": true, "melted": true, "beaten": true, "sifted": true,
	"finely": true, "roughly": true, "thinly": true, "coarsely": true, "freshly": true,
	"fresh": true, "large": true, "medium": true, "small": true, "ripe": true,
	"cooked": true, "uncooked": true, "raw": true, "optional": true, "taste": true,
	// Spanish (diacritics already folded)
	"picado": true, "picada": true, "picados": true, "picadas": true,
	"troceado": true, "troceada": true, "troceados": true, "troceadas": true,
	"cortado": true, "cortada": true, "cortados": true, "cortadas": true,
	"rallado": true, "rallada": true, "rallados": true, "ralladas": true,
	"pelado": true, "pelada": true, "pelados": true, "peladas": true,
	"fresco": true, "fresca": true, "frescos": true, "frescas": true,
	"grande": true, "grandes": true, "pequeno": true, "pequena": true, "pequenos": true, "pequenas": true,
	"mediano": true, "mediana": true, "maduro": true, "madura": true, "maduros": true, "maduras": true,
	"cocido": true, "cocida": true, "cocidos": true, "cocidas": true,
	"laminado": true, "laminada": true, "machacado": true, "machacada": true,
	"finamente": true, "gusto": true,
}

// keyTermStopWords are excluded from key terms
var keyTermStopWords = map[string]bool{
	"the": true, "and": true, "with": true, "for": true, "from": true, "into": true,
	"some": true, "any": true, "per": true, "each": true,
	"con": true, "del": true, "los": true, "las": true, "una": true, "uno": true,
	"unos": true, "unas": true, "para": true, "sin": true, "por": true, "al": true,
	"poco": true, "poca": true, "algo": true, "gusto": true,
}

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldText lowercases and strips diacritics
func foldText(s string) string {
	lower := strings.ToLower(s)
	out, _, err := transform.String(diacriticFolder, lower)
	if err != nil {
		return lower
	}
	return out
}

// IngredientNormalizer strips preparation and quantity noise from free-text ingredients.
// It is stateless and safe for concurrent use.
type IngredientNormalizer struct{}

// NewIngredientNormalizer creates a normalizer
func NewIngredientNormalizer() *IngredientNormalizer {
	return &IngredientNormalizer{}
}

// Normalize returns the searchable core of an ingredient line.
// Normalize(Normalize(x)) == Normalize(x).
func (n *IngredientNormalizer) Normalize(raw string) string {
	s := strings.TrimSpace(foldText(raw))
	// dropping a word can expose a quantity and the reverse, so repeat until nothing changes
	for {
		next := normalizePass(s)
		if next == s {
			return s
		}
		s = next
	}
}

// normalizePass never lengthens a string once punctuation is gone, so the loop above ends
func normalizePass(s string) string {
	s = stripLeadingQuantities(s)
	s = nonWordPattern.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !preparationWords[w] {
			kept = append(kept, w)
		}
	}
	s = strings.Join(kept, " ")
	s = multiSpacePattern.ReplaceAllString(s, " ")

	return strings.TrimSpace(stripLeadingQuantities(strings.TrimSpace(s)))
}

func stripLeadingQuantities(s string) string {
	for {
		loc := leadingQuantityPattern.FindStringIndex(s)
		if loc == nil || loc[1] == 0 {
			return s
		}
		s = s[loc[1]:]
	}
}

// ExtractKeyTerms returns the distinct tokens longer than two characters that are not stop words
func (n *IngredientNormalizer) ExtractKeyTerms(normalized string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, w := range strings.Fields(normalized) {
		if len([]rune(w)) <= 2 || keyTermStopWords[w] || isNumeric(w) || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

// ParsedQuantity is an ingredient line split into amount, unit and name
type ParsedQuantity struct {
	Value      float64     `json:"value"`
	Unit       domain.Unit `json:"unit"`
	Ingredient string      `json:"ingredient"`
}

// ParseQuantity splits a single line such as "2 cups flour" or "500g arroz".
// Lines without a leading amount return ok == false. A missing unit means pieces.
func (n *IngredientNormalizer) ParseQuantity(line string) (ParsedQuantity, bool) {
	s := strings.TrimSpace(foldText(line))
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return ParsedQuantity{}, false
	}

	var value float64
	switch {
	case m[1] != "":
		whole, _ := strconv.ParseFloat(m[1], 64)
		value = whole + fraction(m[2], m[3])
	case m[4] != "":
		value = fraction(m[4], m[5])
	default:
		value, _ = strconv.ParseFloat(strings.ReplaceAll(m[6], ",", "."), 64)
	}
	if value <= 0 {
		return ParsedQuantity{}, false
	}

	rest := strings.TrimSpace(s[len(m[0]):])
	unit := domain.UnitPiece
	if fields := strings.Fields(rest); len(fields) > 0 {
		if u, err := domain.ParseUnit(fields[0]); err == nil {
			unit = u
			rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[0]))
		}
	}
	for _, connector := range []string{"of ", "de "} {
		rest = strings.TrimPrefix(rest, connector)
	}

	return ParsedQuantity{Value: value, Unit: unit, Ingredient: n.Normalize(rest)}, true
}

func fraction(num, den string) float64 {
	a, _ := strconv.ParseFloat(num, 64)
	b, _ := strconv.ParseFloat(den, 64)
	if b == 0 {
		return 0
	}
	return a / b
}

// tokenize splits a folded string into punctuation-free words
func tokenize(s string) []string {
	return strings.Fields(nonWordPattern.ReplaceAllString(foldText(s), " "))
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
