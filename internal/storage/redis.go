package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 3 * time.Second

// RedisStore keeps the key space in Redis, optionally under "namespace:".
type RedisStore struct {
	client *redis.Client
	ns     string
}

func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{client: client, ns: namespace}
}

func OpenRedisStore(url, namespace string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return NewRedisStore(redis.NewClient(opt), namespace), nil
}

func (s *RedisStore) key(k string) string {
	if s.ns == "" {
		return k
	}
	return s.ns + ":" + k
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		v  string
		ok bool
	)
	err := withTimeout(ctx, redisTimeout, func(ctx context.Context) error {
		val, err := s.client.Get(ctx, s.key(key)).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get key %s from redis: %w", key, err)
		}
		v, ok = val, true
		return nil
	})
	return v, ok, err
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return withTimeout(ctx, redisTimeout, func(ctx context.Context) error {
		if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
			return fmt.Errorf("failed to set key %s in redis: %w", key, err)
		}
		return nil
	})
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return withTimeout(ctx, redisTimeout, func(ctx context.Context) error {
		if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s from redis: %w", key, err)
		}
		return nil
	})
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, redisTimeout, func(ctx context.Context) error {
		return s.client.Ping(ctx).Err()
	})
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
