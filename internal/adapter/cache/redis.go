// Package cache stores compiled documents in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
)

const keyPrefix = "compiled:"

// DocumentCache is a TTL cache of compiled documents keyed by request.
type DocumentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDocumentCache connects to redisURL and verifies the connection.
func NewDocumentCache(ctx context.Context, redisURL string, ttl time.Duration) (*DocumentCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewDocumentCacheWithClient(client, ttl), nil
}

// NewDocumentCacheWithClient wraps an existing client.
func NewDocumentCacheWithClient(client *redis.Client, ttl time.Duration) *DocumentCache {
	return &DocumentCache{client: client, ttl: ttl}
}

// Get returns the cached document, or nil on a miss.
func (c *DocumentCache) Get(ctx context.Context, key string) (*domain.Document, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		// A stale encoding is a miss, not a failure.
		_ = c.client.Del(ctx, keyPrefix+key).Err()
		return nil, nil
	}
	return &doc, nil
}

// Set stores doc under key for the configured TTL.
func (c *DocumentCache) Set(ctx context.Context, key string, doc domain.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (c *DocumentCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *DocumentCache) Close() error {
	return c.client.Close()
}
