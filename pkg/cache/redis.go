package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists fields in Redis under RootKey.
type RedisStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStore creates a store backed by the given Redis client.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
		key:   RootKey,
	}
}

// Load reads the persisted fields. Returns ErrNotFound if nothing is stored.
func (s *RedisStore) Load(ctx context.Context) (fields PersistedFields, err error) {
	defer func() { observe("redis", "load", err) }()

	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return PersistedFields{}, ErrNotFound
		}
		return PersistedFields{}, fmt.Errorf("redis get: %w", err)
	}

	return decode(data)
}

// Save overwrites the persisted fields. The key never expires.
func (s *RedisStore) Save(ctx context.Context, fields PersistedFields) (err error) {
	defer func() { observe("redis", "save", err) }()

	data, err := encode(fields)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	StoreSize.WithLabelValues("redis").Set(float64(len(data)))
	return nil
}

// Delete removes the persisted fields.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.redis.Close()
}
