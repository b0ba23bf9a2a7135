package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pantrylens/backend/internal/domain"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Match a shopping list read from a JSON file",
	Long:  "Reads a JSON array of grocery items (ingredientName, neededQuantity, neededUnit, category) and prints one match per item, in input order.",
	RunE:  runBatch,
}

var (
	batchInput   string
	batchSources []string
)

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "file", "f", "", "Path to the grocery list JSON file (required)")
	batchCmd.Flags().StringSliceVarP(&batchSources, "source", "s", nil, "Catalog sources to search (default: all)")

	if err := batchCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	items, err := readGroceryList(batchInput)
	if err != nil {
		return err
	}
	sources, err := parseSources(batchSources)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	matches, err := app.Matching.MatchGroceryItems(ctx, items, sources)
	if err != nil {
		return fmt.Errorf("failed to match grocery list: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), matches)
}

func readGroceryList(path string) ([]*domain.GroceryItem, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grocery list %s: %w", path, err)
	}

	var items []*domain.GroceryItem
	if err := json.Unmarshal(content, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grocery list JSON: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: grocery list %s is empty", domain.ErrInvalidRequest, path)
	}
	return items, nil
}

func parseSources(raw []string) ([]domain.SourceID, error) {
	var out []domain.SourceID
	for _, r := range raw {
		id, err := domain.NewSourceID(r)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
