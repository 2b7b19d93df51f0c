// Package cache provides the Redis client and a JSON read-through helper.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// New creates a Redis client and verifies the connection.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}

	return client, nil
}

// LookupRecorder counts hits and misses.
type LookupRecorder interface {
	RecordCacheLookup(cache string, hit bool)
}

// JSON caches JSON-encoded values under a key prefix. A nil *JSON, or one
// without a client, always misses and never stores, so callers need no
// special case when Redis is not configured.
type JSON struct {
	client   *redis.Client
	name     string
	ttl      time.Duration
	recorder LookupRecorder
}

// NewJSON returns a cache named name whose keys are "<name>:<key>".
func NewJSON(client *redis.Client, name string, ttl time.Duration, recorder LookupRecorder) *JSON {
	return &JSON{client: client, name: name, ttl: ttl, recorder: recorder}
}

func (c *JSON) key(k string) string {
	return c.name + ":" + k
}

// Get decodes the cached value for key into dest. Redis failures are
// logged and reported as a miss; the database stays the source of truth.
func (c *JSON) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "cache get failed", "cache", c.name, "error", err)
		}
		c.record(false)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		slog.WarnContext(ctx, "cache entry undecodable, ignoring", "cache", c.name, "error", err)
		c.record(false)
		return false
	}
	c.record(true)
	return true
}

// Set stores value under key with the cache TTL.
func (c *JSON) Set(ctx context.Context, key string, value any) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		slog.WarnContext(ctx, "cache encode failed", "cache", c.name, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(key), raw, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "cache set failed", "cache", c.name, "error", err)
	}
}

// Delete evicts key.
func (c *JSON) Delete(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		slog.WarnContext(ctx, "cache delete failed", "cache", c.name, "error", err)
	}
}

func (c *JSON) record(hit bool) {
	if c.recorder != nil {
		c.recorder.RecordCacheLookup(c.name, hit)
	}
}
