// Package bootstrap builds the matching service and its catalog clients from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/pantrylens/backend/config"
	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/infrastructure/cache"
	"github.com/pantrylens/backend/internal/infrastructure/catalog"
	"github.com/pantrylens/backend/internal/logging"
	"github.com/pantrylens/backend/internal/usecase"
)

// App holds the constructed services and the resources they own
type App struct {
	Matching *usecase.MatchingService
	Cache    domain.CacheRepository

	closers []io.Closer
}

// Build wires the cache, one catalog client per configured source and the matching service
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)

	store, closer, err := NewCache(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	app := &App{Cache: store, closers: []io.Closer{closer}}

	clients := make([]domain.CatalogClient, 0, len(cfg.Catalog.Sources))
	for _, src := range cfg.Catalog.Sources {
		client, err := NewCatalogClient(src, cfg.Cache.TTL, store, logger)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		clients = append(clients, client)
		logger.Info("catalog source registered",
			zap.String("source", src.ID),
			zap.String("kind", src.Kind),
			zap.String("base_url", src.BaseURL),
		)
	}

	svc, err := usecase.NewMatchingService(clients, MatchConfig(cfg.Matching), logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Matching = svc
	return app, nil
}

// Close releases the cache connection or cleanup goroutine
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewCache creates the configured CacheRepository
func NewCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (domain.CacheRepository, io.Closer, error) {
	switch cfg.Type {
	case "", "memory":
		store := cache.NewMemoryCache(cfg.CleanupInterval)
		logger.Info("using in-memory cache", zap.Duration("cleanup_interval", cfg.CleanupInterval))
		return store, store, nil
	case "redis":
		store, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.KeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis cache", zap.String("key_prefix", cfg.KeyPrefix))
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown cache type %q", domain.ErrInvalidRequest, cfg.Type)
	}
}

// NewCatalogClient creates the client for one source according to its kind
func NewCatalogClient(src config.SourceConfig, ttl config.CacheTTLConfig, store domain.CacheRepository, logger *zap.Logger) (domain.CatalogClient, error) {
	clientCfg, err := ClientConfig(src, ttl)
	if err != nil {
		return nil, err
	}
	opts := []catalog.Option{catalog.WithLogger(logger)}

	switch src.Kind {
	case config.SourceKindAPI:
		return catalog.NewAPIClient(clientCfg, store, opts...)
	case config.SourceKindStorefront:
		return catalog.NewStorefrontClient(clientCfg, store, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown catalog source kind %q", domain.ErrInvalidRequest, src.Kind)
	}
}

// ClientConfig maps a configured source onto the catalog client settings
func ClientConfig(src config.SourceConfig, ttl config.CacheTTLConfig) (catalog.ClientConfig, error) {
	id, err := domain.NewSourceID(src.ID)
	if err != nil {
		return catalog.ClientConfig{}, err
	}

	retry := catalog.DefaultRetryPolicy()
	if src.MaxRetries != nil {
		retry.MaxRetries = *src.MaxRetries
	}
	if src.BaseDelay > 0 {
		retry.BaseDelay = src.BaseDelay
	}
	if src.MaxDelay > 0 {
		retry.MaxDelay = src.MaxDelay
	}
	if src.RateLimitFallback > 0 {
		retry.RateLimitFallback = src.RateLimitFallback
	}

	return catalog.ClientConfig{
		Source:      id,
		BaseURL:     src.BaseURL,
		UserAgent:   src.UserAgent,
		MinInterval: src.MinInterval,
		Timeout:     src.Timeout,
		Retry:       retry,
		CacheTTL: catalog.CacheTTLs{
			Search:     ttl.Search,
			Category:   ttl.Category,
			Categories: ttl.Categories,
			Product:    ttl.Product,
			Promotions: ttl.Promotions,
		},
		StoreBrands: src.StoreBrands,
	}, nil
}

// MatchConfig maps the matching section onto the service configuration
func MatchConfig(cfg config.MatchingConfig) usecase.MatchConfig {
	return usecase.MatchConfig{
		Scoring: usecase.ScoringConfig{
			NameWeight:     cfg.WeightName,
			CategoryWeight: cfg.WeightCategory,
			PriceWeight:    cfg.WeightPrice,
			MinConfidence:  cfg.MinConfidence,
			FuzzyThreshold: cfg.FuzzyThreshold,
		},
		MaxAlternatives: cfg.MaxAlternatives,
		BatchSize:       cfg.BatchSize,
		SearchLimit:     cfg.SearchLimit,
	}
}
