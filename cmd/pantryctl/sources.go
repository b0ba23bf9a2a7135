package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pantrylens/backend/internal/domain"
)

var healthCmd = &cobra.Command{
	Use:   "health [source]",
	Short: "Probe catalog sources",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHealth,
}

var promotionsCmd = &cobra.Command{
	Use:   "promotions <source>",
	Short: "List the current offers of a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromotions,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached catalog responses",
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <source>",
	Short: "Drop cached responses of a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheInvalidate,
}

var cachePrefix string

func init() {
	cacheInvalidateCmd.Flags().StringVarP(&cachePrefix, "prefix", "p", "", "Only drop keys with this prefix (default: all)")
	cacheCmd.AddCommand(cacheInvalidateCmd)

	rootCmd.AddCommand(healthCmd, promotionsCmd, cacheCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	var statuses []domain.HealthStatus
	if len(args) == 1 {
		source, err := domain.NewSourceID(args[0])
		if err != nil {
			return err
		}
		status, err := app.Matching.SourceHealth(ctx, source)
		if err != nil {
			return err
		}
		statuses = []domain.HealthStatus{status}
	} else {
		statuses = app.Matching.AllSourceHealth(ctx)
	}

	if err := writeJSON(cmd.OutOrStdout(), statuses); err != nil {
		return err
	}
	for _, s := range statuses {
		if !s.Healthy {
			return fmt.Errorf("source %s is %s", s.Source, s.Status)
		}
	}
	return nil
}

func runPromotions(cmd *cobra.Command, args []string) error {
	source, err := domain.NewSourceID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	products, err := app.Matching.Promotions(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to list promotions of %s: %w", source, err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return writeJSON(cmd.OutOrStdout(), products)
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	source, err := domain.NewSourceID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	removed, err := app.Matching.InvalidateSourceCache(ctx, source, cachePrefix)
	if err != nil {
		return fmt.Errorf("failed to invalidate cache of %s: %w", source, err)
	}
	return writeJSON(cmd.OutOrStdout(), map[string]any{"source": source, "prefix": cachePrefix, "removed": removed})
}
