// Package cache provides an object cache that stores scalar payloads under
// generated keys and records every store call for replay.
package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/illmade-knight/go-callcache/pkg/instrument"
	"github.com/illmade-knight/go-callcache/pkg/store"
	"github.com/rs/zerolog"
)

// StoreOperation identifies Cache.Store in counters and call history.
const StoreOperation = "Cache.store"

// Option configures a Cache.
type Option func(*options)

type options struct {
	flushOnInit bool
}

// WithFlushOnInit clears the store when the cache is created. Intended for tests.
func WithFlushOnInit() Option {
	return func(o *options) {
		o.flushOnInit = true
	}
}

// Cache stores payloads in a Store and instruments each write.
type Cache struct {
	store   store.Store
	logger  zerolog.Logger
	storeOp instrument.Operation[any, string]
}

// New creates a Cache over st.
func New(ctx context.Context, st store.Store, logger zerolog.Logger, opts ...Option) (*Cache, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache{
		store:  st,
		logger: logger.With().Str("component", "ObjectCache").Logger(),
	}
	c.storeOp = instrument.Instrumented(st, StoreOperation, c.write)

	if o.flushOnInit {
		if err := st.FlushAll(ctx); err != nil {
			return nil, fmt.Errorf("failed to flush store: %w", err)
		}
		c.logger.Info().Msg("Store flushed on init.")
	}
	return c, nil
}

// Store writes data under a freshly generated key and returns the key.
// data must be a string, []byte, integer or float.
func (c *Cache) Store(ctx context.Context, data any) (string, error) {
	if err := store.CheckValue(data); err != nil {
		return "", err
	}
	return c.storeOp(ctx, data)
}

func (c *Cache) write(ctx context.Context, data any) (string, error) {
	key := uuid.NewString()
	if err := c.store.Set(ctx, key, data); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("Failed to store value.")
		return "", fmt.Errorf("failed to store value: %w", err)
	}
	c.logger.Debug().Str("key", key).Msg("Stored value.")
	return key, nil
}

// Retrieve returns the raw bytes stored at key. A missing key is reported as
// found == false with a nil error.
func (c *Cache) Retrieve(ctx context.Context, key string) ([]byte, bool, error) {
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to retrieve %s: %w", key, err)
	}
	if !found {
		c.logger.Debug().Str("key", key).Msg("Key not found.")
	}
	return data, found, nil
}

// RetrieveString returns the value at key as UTF-8 text.
func (c *Cache) RetrieveString(ctx context.Context, key string) (string, bool, error) {
	return RetrieveAs(ctx, c, key, DecodeString)
}

// RetrieveInt returns the value at key parsed as a base-10 integer.
func (c *Cache) RetrieveInt(ctx context.Context, key string) (int64, bool, error) {
	return RetrieveAs(ctx, c, key, DecodeInt)
}

// RetrieveFloat returns the value at key parsed as a floating point number.
func (c *Cache) RetrieveFloat(ctx context.Context, key string) (float64, bool, error) {
	return RetrieveAs(ctx, c, key, DecodeFloat)
}

// RetrieveAs reads the value at key and converts it with decode. Decoder
// failures are returned as *DecodeError.
func RetrieveAs[T any](ctx context.Context, c *Cache, key string, decode Decoder[T]) (T, bool, error) {
	var zero T
	if decode == nil {
		return zero, false, fmt.Errorf("decoder cannot be nil")
	}
	data, found, err := c.Retrieve(ctx, key)
	if err != nil || !found {
		return zero, found, err
	}
	value, err := decode(data)
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("Failed to decode value.")
		return zero, true, &DecodeError{Key: key, Err: err}
	}
	return value, true, nil
}

// Replay returns the recorded history of Store calls.
func (c *Cache) Replay(ctx context.Context) (*instrument.Report, error) {
	return instrument.Replay(ctx, c.store, StoreOperation)
}

// StoreCount returns how many times Store has been called.
func (c *Cache) StoreCount(ctx context.Context) (int64, error) {
	return instrument.CallCount(ctx, c.store, StoreOperation)
}
