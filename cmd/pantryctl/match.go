package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pantrylens/backend/internal/domain"
)

var matchCmd = &cobra.Command{
	Use:   "match <ingredient or line>",
	Short: "Match one ingredient to a catalog product",
	Long: `Match one ingredient to a catalog product.

The argument is either a bare ingredient name combined with --quantity and --unit,
or a whole ingredient line such as "2 cups flour".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

type matchOptions struct {
	quantity      float64
	quantitySet   bool
	unit          string
	sources       []string
	inStockOnly   bool
	organicOnly   bool
	maxPriceCents int64
}

var matchOpts matchOptions

func init() {
	matchCmd.Flags().Float64VarP(&matchOpts.quantity, "quantity", "q", 1, "Amount needed")
	matchCmd.Flags().StringVarP(&matchOpts.unit, "unit", "u", "", "Unit of the amount (g, kg, ml, l, tsp, tbsp, cup, piece)")
	matchCmd.Flags().StringSliceVarP(&matchOpts.sources, "source", "s", nil, "Catalog sources to search (default: all)")
	matchCmd.Flags().BoolVar(&matchOpts.inStockOnly, "in-stock", false, "Only consider products in stock")
	matchCmd.Flags().BoolVar(&matchOpts.organicOnly, "organic", false, "Only consider organic products")
	matchCmd.Flags().Int64Var(&matchOpts.maxPriceCents, "max-price-cents", 0, "Skip products above this price")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	opts := matchOpts
	opts.quantitySet = cmd.Flags().Changed("quantity") || cmd.Flags().Changed("unit")

	req, err := buildMatchRequest(strings.Join(args, " "), opts, app.Matching.ParseIngredientLine)
	if err != nil {
		return err
	}

	match, err := app.Matching.MatchIngredient(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to match %q: %w", req.IngredientName, err)
	}
	return writeJSON(cmd.OutOrStdout(), match)
}

// buildMatchRequest prefers explicit flags; otherwise the input is parsed as an ingredient line
func buildMatchRequest(input string, opts matchOptions, parse func(string) (*domain.MatchRequest, bool)) (*domain.MatchRequest, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: ingredient is empty", domain.ErrInvalidRequest)
	}

	var req *domain.MatchRequest
	if !opts.quantitySet {
		if parsed, ok := parse(input); ok {
			req = parsed
		}
	}
	if req == nil {
		unit := domain.UnitPiece
		if opts.unit != "" {
			parsed, err := domain.ParseUnit(opts.unit)
			if err != nil {
				return nil, err
			}
			unit = parsed
		}
		req = &domain.MatchRequest{IngredientName: input, Quantity: opts.quantity, Unit: unit}
	}

	for _, raw := range opts.sources {
		id, err := domain.NewSourceID(raw)
		if err != nil {
			return nil, err
		}
		req.Sources = append(req.Sources, id)
	}
	req.InStockOnly = opts.inStockOnly
	req.OrganicOnly = opts.organicOnly
	if opts.maxPriceCents > 0 {
		limit := opts.maxPriceCents
		req.MaxPriceCents = &limit
	}
	return req, req.Validate()
}
