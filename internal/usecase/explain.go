package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/pantrylens/backend/internal/domain"
)

// ExplainMatch renders a deterministic one-paragraph explanation of a match.
// It never fails and never exposes raw error text.
func ExplainMatch(m *domain.ProductMatch) string {
	if m == nil {
		return "No match information is available."
	}
	ingredient := strings.TrimSpace(m.IngredientName)
	if ingredient == "" {
		ingredient = "this ingredient"
	}

	if m.MatchType == domain.MatchTypeNotFound || m.Product == nil {
		return fmt.Sprintf("No product in the catalog matched %q; try a simpler or translated name.", ingredient)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Matched %q to %q with %d%% confidence", ingredient, m.Product.Name, int(math.Round(m.Confidence*100)))
	fmt.Fprintf(&b, "; buy %d %s", m.QuantityToBuy, plural(m.QuantityToBuy, "package", "packages"))
	if d := strings.TrimSpace(m.Product.PackageSize.Display); d != "" {
		fmt.Fprintf(&b, " of %s", d)
	}
	fmt.Fprintf(&b, " for %s.", formatEuros(m.TotalCostCents))

	if m.Product.OnPromotion() {
		if m.Product.Promotion != nil && m.Product.Promotion.Label != "" {
			fmt.Fprintf(&b, " Currently on promotion (%s).", m.Product.Promotion.Label)
		} else {
			b.WriteString(" Currently on promotion.")
		}
	}

	if cheapest := cheapestAlternative(m.Alternatives); cheapest != nil {
		fmt.Fprintf(&b, " %q would save %s.", cheapest.Product.Name, formatEuros(-cheapest.PriceDeltaCents))
	}
	return b.String()
}

func cheapestAlternative(alts []domain.Alternative) *domain.Alternative {
	var best *domain.Alternative
	for i := range alts {
		if alts[i].PriceDeltaCents >= 0 {
			continue
		}
		if best == nil || alts[i].PriceDeltaCents < best.PriceDeltaCents {
			best = &alts[i]
		}
	}
	return best
}

func formatEuros(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s€%d.%02d", sign, cents/100, cents%100)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
