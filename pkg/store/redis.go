package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the configuration for the Redis client.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RedisStore is a Store backed by a Redis server.
type RedisStore struct {
	redisClient *redis.Client
	logger      zerolog.Logger
}

// NewRedisStore creates and connects a new RedisStore.
// It pings the Redis server to ensure connectivity before returning.
func NewRedisStore(ctx context.Context, cfg *RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w: %w", ErrStoreUnavailable, err)
	}

	logger.Info().Str("redis_address", cfg.Addr).Int("redis_db", cfg.DB).Msg("Successfully connected to Redis.")
	return NewRedisStoreFromClient(rdb, logger), nil
}

// NewRedisStoreFromClient wraps an already configured client. The store takes
// ownership of the client and closes it on Close.
func NewRedisStoreFromClient(rdb *redis.Client, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		redisClient: rdb,
		logger:      logger.With().Str("component", "RedisStore").Logger(),
	}
}

// Set writes value under key with no expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	return s.set(ctx, key, value, 0)
}

// SetWithTTL writes value under key, expiring ttl after the write.
func (s *RedisStore) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("set %s: %w", key, ErrInvalidTTL)
	}
	return s.set(ctx, key, value, ttl)
}

func (s *RedisStore) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := s.redisClient.Set(ctx, key, data, ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to set value in Redis.")
		return s.wrap("set", key, err)
	}
	return nil
}

// Get returns the raw bytes at key. redis.Nil is reported as found == false.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, s.wrap("get", key, err)
	}
	return data, true, nil
}

// Incr atomically increments the counter at key.
func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.redisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, s.wrap("incr", key, err)
	}
	return n, nil
}

// ListAppend pushes value onto the tail of the list at key.
func (s *RedisStore) ListAppend(ctx context.Context, key, value string) error {
	if err := s.redisClient.RPush(ctx, key, value).Err(); err != nil {
		return s.wrap("rpush", key, err)
	}
	return nil
}

// ListRange returns the full list at key. A missing key yields an empty list.
func (s *RedisStore) ListRange(ctx context.Context, key string) ([]string, error) {
	values, err := s.redisClient.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, s.wrap("lrange", key, err)
	}
	return values, nil
}

// Exists reports whether key is present.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.redisClient.Exists(ctx, key).Result()
	if err != nil {
		return false, s.wrap("exists", key, err)
	}
	return n > 0, nil
}

// FlushAll clears the selected Redis database.
func (s *RedisStore) FlushAll(ctx context.Context) error {
	if err := s.redisClient.FlushDB(ctx).Err(); err != nil {
		return s.wrap("flushdb", "", err)
	}
	s.logger.Info().Msg("Flushed Redis database.")
	return nil
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	if s.redisClient != nil {
		s.logger.Info().Msg("Closing Redis client connection...")
		return s.redisClient.Close()
	}
	return nil
}

// wrap classifies a go-redis error. Server replies keep their meaning; anything
// else means the store could not be reached.
func (s *RedisStore) wrap(cmd, key string, err error) error {
	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		msg := replyErr.Error()
		switch {
		case strings.HasPrefix(msg, "WRONGTYPE"):
			return fmt.Errorf("%s %s: %w: %w", cmd, key, ErrWrongType, err)
		case strings.Contains(msg, "not an integer"):
			return fmt.Errorf("%s %s: %w: %w", cmd, key, ErrNotInteger, err)
		}
		return fmt.Errorf("%s %s: %w", cmd, key, err)
	}
	s.logger.Error().Err(err).Str("command", cmd).Str("key", key).Msg("Redis command failed.")
	return fmt.Errorf("%s %s: %w: %w", cmd, key, ErrStoreUnavailable, err)
}
