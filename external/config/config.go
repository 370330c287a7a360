// Package config loads flexsearch's runtime configuration from a
// text-format file and/or environment variables, mirroring the
// configuration table of the external-interfaces design.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds gRPC service-shell settings.
type ServerConfig struct {
	BindAddr string `mapstructure:"bind_addr"`
}

// RedisConfig holds the optional Redis-backed persistence settings.
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	PoolSize int    `mapstructure:"pool_size"`
}

// CacheConfig holds the result-cache settings.
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLSeconds int  `mapstructure:"ttl_seconds"`
	MaxSize    int  `mapstructure:"max_size"`
}

// BM25Config holds ranking parameters, including per-field weights used by
// the multi-field coordinator.
type BM25Config struct {
	K1           float64            `mapstructure:"k1"`
	B            float64            `mapstructure:"b"`
	AvgDocLength float64            `mapstructure:"avg_doc_length"`
	FieldWeights map[string]float64 `mapstructure:"field_weights"`
}

// SearchConfig holds query-time defaults and limits.
type SearchConfig struct {
	DefaultLimit          int  `mapstructure:"default_limit"`
	MaxLimit              int  `mapstructure:"max_limit"`
	EnableHighlight       bool `mapstructure:"enable_highlight"`
	HighlightFragmentSize int  `mapstructure:"highlight_fragment_size"`
	Fuzzy                 bool `mapstructure:"fuzzy"`
}

// Config is the fully-resolved runtime configuration.
type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Redis    RedisConfig   `mapstructure:"redis"`
	DataDir  string        `mapstructure:"data_dir"`
	IndexDir string        `mapstructure:"index_dir"`
	Cache    CacheConfig   `mapstructure:"cache"`
	BM25     BM25Config    `mapstructure:"bm25"`
	Search   SearchConfig  `mapstructure:"search"`
}

func defaults() Config {
	return Config{
		Server:  ServerConfig{BindAddr: ":8080"},
		Redis:   RedisConfig{URL: "", PoolSize: 10},
		DataDir: "./data",
		IndexDir: "./data/index",
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 300,
			MaxSize:    10000,
		},
		BM25: BM25Config{
			K1:           1.2,
			B:            0.75,
			AvgDocLength: 0,
			FieldWeights: map[string]float64{},
		},
		Search: SearchConfig{
			DefaultLimit:          10,
			MaxLimit:              1000,
			EnableHighlight:       false,
			HighlightFragmentSize: 120,
			Fuzzy:                 false,
		},
	}
}

// Load reads configuration from path (may be empty to skip file loading)
// and environment variables prefixed FLEXSEARCH_, with nested keys joined
// by underscores (e.g. FLEXSEARCH_CACHE_TTL_SECONDS), falling back to the
// package defaults for anything unset. Returns an error on an unreadable or
// malformed file, or on a value that fails Validate's sanity checks.
func Load(path string) (*Config, error) {
	v := viper.New()
	cfg := defaults()

	v.SetEnvPrefix("flexsearch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper already knows, so bind each one to its
	// environment variable explicitly.
	for _, k := range []string{
		"server.bind_addr", "redis.url", "redis.pool_size", "data_dir", "index_dir",
		"cache.enabled", "cache.ttl_seconds", "cache.max_size",
		"bm25.k1", "bm25.b", "bm25.avg_doc_length",
		"search.default_limit", "search.max_limit", "search.enable_highlight",
		"search.highlight_fragment_size", "search.fuzzy",
	} {
		_ = v.BindEnv(k)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the rest of the package relies on:
// a positive cache size when caching is enabled, a sane limit ordering,
// and a non-empty bind address.
func (c *Config) Validate() error {
	if c.Server.BindAddr == "" {
		return fmt.Errorf("config: server.bind_addr must not be empty")
	}
	if c.Cache.Enabled && c.Cache.MaxSize <= 0 {
		return fmt.Errorf("config: cache.max_size must be positive when cache.enabled")
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit <= 0 {
		return fmt.Errorf("config: search limits must be positive")
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("config: search.default_limit must not exceed search.max_limit")
	}
	if c.BM25.K1 < 0 || c.BM25.B < 0 || c.BM25.B > 1 {
		return fmt.Errorf("config: bm25.k1 must be non-negative and bm25.b must be in [0,1]")
	}
	return nil
}
