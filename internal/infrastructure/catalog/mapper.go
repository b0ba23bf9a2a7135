package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pantrylens/backend/internal/domain"
)

// categoryKeywords maps localized shelf names onto the category vocabulary.
// Checked in order; the first keyword contained in the name wins.
var categoryKeywords = []struct {
	keyword  string
	category domain.Category
}{
	{"congelad", domain.CategoryFrozen},
	{"frozen", domain.CategoryFrozen},
	{"conserva", domain.CategoryCanned},
	{"canned", domain.CategoryCanned},
	{"fruta", domain.CategoryProduce},
	{"verdura", domain.CategoryProduce},
	{"hortaliza", domain.CategoryProduce},
	{"produce", domain.CategoryProduce},
	{"vegetable", domain.CategoryProduce},
	{"fruit", domain.CategoryProduce},
	{"lacteo", domain.CategoryDairy},
	{"huevo", domain.CategoryDairy},
	{"queso", domain.CategoryDairy},
	{"dairy", domain.CategoryDairy},
	{"marisco", domain.CategorySeafood},
	{"pescad", domain.CategorySeafood},
	{"seafood", domain.CategorySeafood},
	{"fish", domain.CategorySeafood},
	{"carne", domain.CategoryMeat},
	{"charcuteria", domain.CategoryMeat},
	{"meat", domain.CategoryMeat},
	{"panader", domain.CategoryBakery},
	{"bolleria", domain.CategoryBakery},
	{"bakery", domain.CategoryBakery},
	{"bread", domain.CategoryBakery},
	{"especia", domain.CategorySpices},
	{"spice", domain.CategorySpices},
	{"salsa", domain.CategoryCondiments},
	{"aceite", domain.CategoryCondiments},
	{"condiment", domain.CategoryCondiments},
	{"bebida", domain.CategoryBeverages},
	{"zumo", domain.CategoryBeverages},
	{"beverage", domain.CategoryBeverages},
	{"drink", domain.CategoryBeverages},
	{"despensa", domain.CategoryDryGoods},
	{"arroz", domain.CategoryDryGoods},
	{"pasta", domain.CategoryDryGoods},
	{"legumbre", domain.CategoryDryGoods},
	{"pantry", domain.CategoryDryGoods},
}

// mapCategory resolves an upstream category label
func mapCategory(label string) domain.Category {
	if c := domain.ParseCategory(label); c != domain.CategoryOther {
		return c
	}
	folded := foldText(label)
	for _, entry := range categoryKeywords {
		if strings.Contains(folded, entry.keyword) {
			return entry.category
		}
	}
	return domain.CategoryOther
}

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldText lowercases and removes diacritics
func foldText(s string) string {
	out, _, err := transform.String(diacriticFolder, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

// slugify turns a category name into a storefront path segment
func slugify(s string) string {
	folded := foldText(s)
	var b strings.Builder
	dash := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// parseMoney converts a decimal price string ("1,99", "€ 1.234,50", "2.5") into cents
// without going through floating point.
func parseMoney(raw string) (int64, error) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, raw)
	if s == "" || s == "-" {
		return 0, fmt.Errorf("%w: no amount in %q", domain.ErrDecode, raw)
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: negative amount %q", domain.ErrDecode, raw)
	}

	// the right-most separator is the decimal one if followed by 1-2 digits
	intPart, fracPart := s, ""
	if i := strings.LastIndexAny(s, ".,"); i >= 0 && len(s)-i-1 <= 2 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	if intPart == "" {
		intPart = "0"
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q: %v", domain.ErrDecode, raw, err)
	}
	cents, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q: %v", domain.ErrDecode, raw, err)
	}
	return units*100 + cents, nil
}

var packageSizePattern = regexp.MustCompile(`^(?:(\d+)\s*[x×]\s*)?(\d+(?:[.,]\d+)?)\s*([\p{L}.]+)?`)

// parsePackageSize reads labels like "500 g", "1,5 l", "6 x 330 ml" or "12 uds".
// Labels without a known unit are treated as piece counts.
func parsePackageSize(label string) (domain.PackageSize, error) {
	display := strings.TrimSpace(label)
	m := packageSizePattern.FindStringSubmatch(strings.ToLower(display))
	if m == nil {
		return domain.PackageSize{}, fmt.Errorf("%w: package size %q", domain.ErrDecode, label)
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", "."), 64)
	if err != nil || value <= 0 {
		return domain.PackageSize{}, fmt.Errorf("%w: package size %q", domain.ErrDecode, label)
	}
	if m[1] != "" {
		count, _ := strconv.Atoi(m[1])
		if count > 0 {
			value *= float64(count)
		}
	}

	unit := domain.UnitPiece
	if m[3] != "" {
		if parsed, err := domain.ParseUnit(m[3]); err == nil {
			unit = parsed
		}
	}
	return domain.PackageSize{Value: value, Unit: unit, Display: display}, nil
}

// packageFromParts builds a package size from separate value and unit fields,
// falling back to the display label.
func packageFromParts(value float64, unit, display string) domain.PackageSize {
	if value > 0 {
		if u, err := domain.ParseUnit(unit); err == nil {
			if display == "" {
				display = strconv.FormatFloat(value, 'f', -1, 64) + " " + string(u)
			}
			return domain.PackageSize{Value: value, Unit: u, Display: display}
		}
	}
	if display != "" {
		if size, err := parsePackageSize(display); err == nil {
			return size
		}
	}
	return domain.PackageSize{Value: 1, Unit: domain.UnitPiece, Display: display}
}

// isStoreBrand reports whether brand is one of the retailer's own labels
func isStoreBrand(brand string, storeBrands []string) bool {
	b := foldText(brand)
	if b == "" {
		return false
	}
	for _, sb := range storeBrands {
		if foldText(sb) == b {
			return true
		}
	}
	return false
}
