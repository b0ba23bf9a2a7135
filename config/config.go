package config

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Source kinds
const (
	SourceKindAPI        = "api"
	SourceKindStorefront = "storefront"
)

var sourceIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Matching MatchingConfig `mapstructure:"matching"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// LogConfig selects the zap level and encoder
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type            string         `mapstructure:"type"` // "memory" or "redis"
	RedisURL        string         `mapstructure:"redis_url"`
	KeyPrefix       string         `mapstructure:"key_prefix"`
	CleanupInterval time.Duration  `mapstructure:"cleanup_interval"`
	TTL             CacheTTLConfig `mapstructure:"ttl"`
}

// CacheTTLConfig holds the expiry per cached catalog operation
type CacheTTLConfig struct {
	Search     time.Duration `mapstructure:"search"`
	Category   time.Duration `mapstructure:"category"`
	Categories time.Duration `mapstructure:"categories"`
	Product    time.Duration `mapstructure:"product"`
	Promotions time.Duration `mapstructure:"promotions"`
}

// CatalogConfig lists the upstream catalog sources
type CatalogConfig struct {
	Sources []SourceConfig `mapstructure:"sources"`
}

// SourceConfig configures one upstream catalog. Zero durations fall back to client defaults.
type SourceConfig struct {
	ID                string        `mapstructure:"id"`
	Kind              string        `mapstructure:"kind"` // "api" or "storefront"
	BaseURL           string        `mapstructure:"base_url"`
	UserAgent         string        `mapstructure:"user_agent"`
	MinInterval       time.Duration `mapstructure:"min_interval"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        *int          `mapstructure:"max_retries"`
	BaseDelay         time.Duration `mapstructure:"base_delay"`
	MaxDelay          time.Duration `mapstructure:"max_delay"`
	RateLimitFallback time.Duration `mapstructure:"rate_limit_fallback"`
	StoreBrands       []string      `mapstructure:"store_brands"`
}

// MatchingConfig holds the scoring model and batch settings
type MatchingConfig struct {
	WeightName      float64 `mapstructure:"weight_name"`
	WeightCategory  float64 `mapstructure:"weight_category"`
	WeightPrice     float64 `mapstructure:"weight_price"`
	MinConfidence   float64 `mapstructure:"min_confidence"`
	FuzzyThreshold  float64 `mapstructure:"fuzzy_threshold"`
	MaxAlternatives int     `mapstructure:"max_alternatives"`
	BatchSize       int     `mapstructure:"batch_size"`
	SearchLimit     int     `mapstructure:"search_limit"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from the given YAML file, or searches the default
// locations when path is empty. Environment variables override file values.
func LoadFile(path string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/pantrylens/")
	}

	// Environment variable settings
	v.SetEnvPrefix("PANTRYLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.key_prefix", "pantrylens:")
	v.SetDefault("cache.cleanup_interval", "1m")
	v.SetDefault("cache.ttl.search", "5m")
	v.SetDefault("cache.ttl.category", "10m")
	v.SetDefault("cache.ttl.categories", "1h")
	v.SetDefault("cache.ttl.product", "15m")
	v.SetDefault("cache.ttl.promotions", "5m")

	// Matching defaults
	v.SetDefault("matching.weight_name", 0.5)
	v.SetDefault("matching.weight_category", 0.3)
	v.SetDefault("matching.weight_price", 0.2)
	v.SetDefault("matching.min_confidence", 0.3)
	v.SetDefault("matching.fuzzy_threshold", 0.7)
	v.SetDefault("matching.max_alternatives", 5)
	v.SetDefault("matching.batch_size", 5)
	v.SetDefault("matching.search_limit", 10)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis' (set PANTRYLENS_CACHE_REDIS_URL)")
	}

	if err := validateSources(config.Catalog.Sources); err != nil {
		return err
	}

	return validateMatching(config.Matching)
}

func validateSources(sources []SourceConfig) error {
	if len(sources) == 0 {
		return fmt.Errorf("at least one catalog source is required under catalog.sources")
	}

	seen := make(map[string]bool, len(sources))
	for i, s := range sources {
		if !sourceIDPattern.MatchString(s.ID) {
			return fmt.Errorf("catalog source %d: invalid id %q", i, s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("catalog source %q is configured twice", s.ID)
		}
		seen[s.ID] = true

		if s.Kind != SourceKindAPI && s.Kind != SourceKindStorefront {
			return fmt.Errorf("catalog source %q: kind must be 'api' or 'storefront', got: %s", s.ID, s.Kind)
		}
		if s.BaseURL == "" {
			return fmt.Errorf("catalog source %q: base_url is required", s.ID)
		}
		if s.MaxRetries != nil && *s.MaxRetries < 0 {
			return fmt.Errorf("catalog source %q: max_retries must not be negative", s.ID)
		}
		if s.MinInterval < 0 || s.Timeout < 0 || s.BaseDelay < 0 || s.MaxDelay < 0 || s.RateLimitFallback < 0 {
			return fmt.Errorf("catalog source %q: durations must not be negative", s.ID)
		}
	}
	return nil
}

func validateMatching(m MatchingConfig) error {
	if m.WeightName < 0 || m.WeightCategory < 0 || m.WeightPrice < 0 {
		return fmt.Errorf("matching weights must not be negative")
	}
	if m.WeightName+m.WeightCategory+m.WeightPrice <= 0 {
		return fmt.Errorf("matching weights must sum to a positive value")
	}
	if m.MinConfidence < 0 || m.MinConfidence > 1 {
		return fmt.Errorf("matching.min_confidence must be within [0, 1], got: %v", m.MinConfidence)
	}
	if m.FuzzyThreshold <= 0 || m.FuzzyThreshold > 1 {
		return fmt.Errorf("matching.fuzzy_threshold must be within (0, 1], got: %v", m.FuzzyThreshold)
	}
	if m.BatchSize < 1 {
		return fmt.Errorf("matching.batch_size must be at least 1, got: %d", m.BatchSize)
	}
	if m.MaxAlternatives < 0 || m.SearchLimit < 0 {
		return fmt.Errorf("matching.max_alternatives and matching.search_limit must not be negative")
	}
	return nil
}
