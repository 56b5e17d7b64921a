// Package cache is a Redis-backed JSON response cache for provider fetches.
// A nil client degrades every lookup to a miss so callers never branch on
// whether caching is enabled.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// ResponseCache stores marshaled provider responses under TTL.
type ResponseCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// New creates a cache over any redis command interface. Pass nil to disable.
func New(client redis.Cmdable, ttl time.Duration) *ResponseCache {
	return &ResponseCache{client: client, ttl: ttl}
}

// Enabled reports whether lookups can ever hit. Disabled caches should not
// count toward hit-ratio metrics.
func (c *ResponseCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get unmarshals the cached value into dest, reporting whether a hit
// occurred. Redis errors other than a missing key are returned to the
// caller; a disabled cache is always a clean miss.
func (c *ResponseCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// Stale or corrupt entry: treat as a miss and let the caller refresh.
		log.Warn().Str("key", key).Err(err).Msg("Dropping undecodable cache entry")
		return false, nil
	}
	return true, nil
}

// Set marshals and stores the value under the cache TTL.
func (c *ResponseCache) Set(ctx context.Context, key string, value interface{}) error {
	if c == nil || c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
