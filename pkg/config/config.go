// Package config loads the settings shared by the store and the caches.
package config

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/illmade-knight/go-callcache/pkg/cache"
	"github.com/illmade-knight/go-callcache/pkg/store"
	"github.com/illmade-knight/go-callcache/pkg/webcache"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	LogLevel string            `yaml:"log_level"`
	Redis    store.RedisConfig `yaml:"redis"`
	Fetch    webcache.Config   `yaml:"fetch"`
	// FlushOnInit clears the store when the object cache starts.
	FlushOnInit bool `yaml:"flush_on_init"`
}

// Load loads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Fetch.TTL == 0 {
		c.Fetch.TTL = webcache.DefaultTTL
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis db: %d", c.Redis.DB)
	}
	if err := webcache.ValidateTTL(c.Fetch.TTL); err != nil {
		return fmt.Errorf("invalid fetch config: %w", err)
	}
	return nil
}

// Logger builds a zerolog logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// Connect opens the Redis store described by the configuration.
func (c *Config) Connect(ctx context.Context, logger zerolog.Logger) (*store.RedisStore, error) {
	return store.NewRedisStore(ctx, &c.Redis, logger)
}

// CacheOptions returns the object cache options implied by the configuration.
func (c *Config) CacheOptions() []cache.Option {
	var opts []cache.Option
	if c.FlushOnInit {
		opts = append(opts, cache.WithFlushOnInit())
	}
	return opts
}

// PageCacheOptions returns the page cache options implied by the configuration.
func (c *Config) PageCacheOptions() []webcache.Option {
	return []webcache.Option{webcache.WithConfig(c.Fetch)}
}
