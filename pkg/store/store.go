// Package store provides the key-value store clients that the caching layers
// build on. Every implementation offers single-command atomicity only.
package store

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrStoreUnavailable wraps any failure to reach the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrUnsupportedValue is returned for values that are not text, bytes, integers or floats.
	ErrUnsupportedValue = errors.New("unsupported value type")
	// ErrWrongType is returned when a list command targets a scalar key or the reverse.
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")
	// ErrNotInteger is returned by Incr when the key holds something other than an integer.
	ErrNotInteger = errors.New("value is not an integer")
	// ErrInvalidTTL is returned by SetWithTTL for non-positive durations.
	ErrInvalidTTL = errors.New("ttl must be positive")
)

// Store is the command surface the caches consume.
type Store interface {
	// Set writes value under key with no expiry.
	Set(ctx context.Context, key string, value any) error
	// Get returns the raw stored bytes. A missing key is reported as found == false.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Incr atomically increments the integer at key, creating it at 0, and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// SetWithTTL is Set with an expiry measured from the write.
	SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error
	// ListAppend atomically appends value to the list at key.
	ListAppend(ctx context.Context, key, value string) error
	// ListRange returns the whole list at key in append order.
	ListRange(ctx context.Context, key string) ([]string, error)
	// Exists reports whether key is present and not expired.
	Exists(ctx context.Context, key string) (bool, error)
	// FlushAll clears the whole namespace.
	FlushAll(ctx context.Context) error
	io.Closer
}
