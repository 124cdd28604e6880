// Package webcache caches fetched pages for a fixed window and counts every
// request made for a URL.
package webcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/illmade-knight/go-callcache/pkg/store"
	"github.com/rs/zerolog"
)

const (
	// DefaultTTL is how long a fetched page stays cached.
	DefaultTTL = 10 * time.Second
	// MinTTL is the shortest accepted TTL; Redis expiries have second granularity.
	MinTTL = time.Second

	countPrefix  = "count:"
	cachedPrefix = "cached:"
)

// ErrFetch matches every *FetchError.
var ErrFetch = errors.New("fetch failed")

// FetchError reports that the underlying fetch for URL failed.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFetch) match any FetchError.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// Fetcher retrieves the content at url.
type Fetcher func(ctx context.Context, url string) (string, error)

// Config holds the page cache settings.
type Config struct {
	TTL time.Duration `yaml:"ttl"`
}

// Option configures a PageCache.
type Option func(*PageCache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(p *PageCache) {
		p.ttl = ttl
	}
}

// WithConfig applies cfg. A zero TTL keeps the default.
func WithConfig(cfg Config) Option {
	return func(p *PageCache) {
		if cfg.TTL != 0 {
			p.ttl = cfg.TTL
		}
	}
}

// PageCache wraps a Fetcher with a fixed-window cache and a per-URL access counter.
type PageCache struct {
	store  store.Store
	fetch  Fetcher
	ttl    time.Duration
	logger zerolog.Logger
}

// New creates a PageCache.
func New(st store.Store, fetch Fetcher, logger zerolog.Logger, opts ...Option) (*PageCache, error) {
	if st == nil || fetch == nil {
		return nil, fmt.Errorf("store and fetcher cannot be nil")
	}
	p := &PageCache{
		store:  st,
		fetch:  fetch,
		ttl:    DefaultTTL,
		logger: logger.With().Str("component", "PageCache").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := ValidateTTL(p.ttl); err != nil {
		return nil, err
	}
	return p, nil
}

// ValidateTTL rejects TTLs shorter than MinTTL.
func ValidateTTL(ttl time.Duration) error {
	if ttl < MinTTL {
		return fmt.Errorf("ttl must be at least %s, got %s", MinTTL, ttl)
	}
	return nil
}

// CountKey is the store key of the access counter for url.
func CountKey(url string) string { return countPrefix + url }

// CachedKey is the store key of the cached content for url.
func CachedKey(url string) string { return cachedPrefix + url }

// GetPage returns the content at url, from the cache when present. Every call
// increments the access counter first, hit or miss. A hit does not extend the
// entry's expiry. A failed fetch caches nothing.
func (p *PageCache) GetPage(ctx context.Context, url string) (string, error) {
	// 1. Count the attempt.
	count, err := p.store.Incr(ctx, CountKey(url))
	if err != nil {
		return "", fmt.Errorf("failed to count access to %s: %w", url, err)
	}

	// 2. Try the cache.
	cached, found, err := p.store.Get(ctx, CachedKey(url))
	if err != nil {
		return "", fmt.Errorf("failed to read cache for %s: %w", url, err)
	}
	if found {
		p.logger.Debug().Str("url", url).Int64("access_count", count).Msg("Page cache hit.")
		return string(cached), nil
	}

	// 3. Miss, fetch from the source.
	p.logger.Debug().Str("url", url).Int64("access_count", count).Msg("Page cache miss. Fetching.")
	content, err := p.fetch(ctx, url)
	if err != nil {
		p.logger.Error().Err(err).Str("url", url).Msg("Fetch failed.")
		return "", &FetchError{URL: url, Err: err}
	}

	// 4. Cache with a fixed expiry.
	if err := p.store.SetWithTTL(ctx, CachedKey(url), content, p.ttl); err != nil {
		p.logger.Error().Err(err).Str("url", url).Msg("Failed to cache fetched page.")
		return "", fmt.Errorf("failed to cache %s: %w", url, err)
	}
	return content, nil
}

// AccessCount returns how many times GetPage has been called for url.
func (p *PageCache) AccessCount(ctx context.Context, url string) (int64, error) {
	n, err := store.ReadCounter(ctx, p.store, CountKey(url))
	if err != nil {
		return 0, fmt.Errorf("failed to read access count for %s: %w", url, err)
	}
	return n, nil
}

// IsCached reports whether url currently has a live cache entry.
func (p *PageCache) IsCached(ctx context.Context, url string) (bool, error) {
	return p.store.Exists(ctx, CachedKey(url))
}
