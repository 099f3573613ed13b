// Package rediscache adapts the teacher's internal/cache RedisCache (TTL
// get/set, atomic stat counters, log-on-miss) into a resource cache that
// internal/resource's aggregator can consult before hitting an addon over
// the network.
package rediscache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache is a Redis-backed cache of raw ResourceResponse JSON, keyed by the
// resolved addon request URL.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// Config mirrors the teacher's RedisConfig shape.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// New dials Redis and verifies connectivity eagerly, exactly as the
// teacher's NewRedisCache does.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("connected to resource cache")
	return &Cache{client: client, logger: logger}, nil
}

// Get fetches the cached response body for key and deserialises into out.
func (c *Cache) Get(ctx context.Context, key string, out any) bool {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		c.misses.Add(1)
		return false
	}
	if err := json.Unmarshal(val, out); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("resource cache unmarshal failed")
		c.misses.Add(1)
		return false
	}
	c.hits.Add(1)
	return true
}

// Set stores value under key with ttl.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("resource cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("resource cache set failed")
	}
}

// Stats reports cumulative hit/miss counts.
func (c *Cache) Stats() (hits, misses int64) { return c.hits.Load(), c.misses.Load() }

// Close releases the underlying client.
func (c *Cache) Close() error { return c.client.Close() }
