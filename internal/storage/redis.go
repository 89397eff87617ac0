package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pageKeyPrefix = "page:"

// ErrCacheMiss is returned by Get when no fresh entry exists for a URL.
var ErrCacheMiss = errors.New("cache miss")

// RedisStore caches fetched page bodies in Redis.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(addr string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb}
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Get returns the cached body for url, or ErrCacheMiss.
func (s *RedisStore) Get(ctx context.Context, url string) (string, error) {
	body, err := s.client.Get(ctx, PageKey(url)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return body, nil
}

// Set stores body for url with the given TTL.
func (s *RedisStore) Set(ctx context.Context, url, body string, ttl time.Duration) error {
	return s.client.Set(ctx, PageKey(url), body, ttl).Err()
}

// PageKey is the Redis key for a URL: a fixed prefix plus the SHA-256 of the URL.
func PageKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return pageKeyPrefix + hex.EncodeToString(sum[:])
}
