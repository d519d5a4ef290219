// README: Redis-backed lock store; errors degrade to cache misses.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore wraps a redis client behind the LockStore contract. Redis being
// down must never fail a user request, so every error is logged and reported
// to the caller as a miss; correctness then rests on the durable store.
type RedisStore struct {
	client  *redis.Client
	enabled bool
	log     *zap.Logger
}

func NewRedisStore(client *redis.Client, enabled bool, log *zap.Logger) *RedisStore {
	return &RedisStore{client: client, enabled: enabled, log: log}
}

func (s *RedisStore) Enabled() bool {
	return s.enabled && s.client != nil
}

func (s *RedisStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if !s.Enabled() {
		return true, nil
	}
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		s.warn("SETNX", key, err)
		return true, nil
	}
	return ok, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		s.warn("GET", key, err)
		return "", nil
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.warn("SET", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if !s.Enabled() || len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.warn("DEL", keys[0], err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		s.warn("EXISTS", key, err)
		return false, nil
	}
	return n > 0, nil
}

func (s *RedisStore) warn(op, key string, err error) {
	if s.log != nil {
		s.log.Warn("fast-path cache error", zap.String("op", op), zap.String("key", key), zap.Error(err))
	}
}
