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

const (
	pageKeyPrefix  = "pages:item:"
	listKeyPrefix  = "pages:list:"
	listVersionKey = "pages:list:version"
)

// Cache is a short-lived read-through cache for API reads. It is an
// optimization only: every method degrades to a miss or a logged
// warning, never a hard failure, so disabling Redis changes latency
// but not results.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "cache"),
	}
}

// Get unmarshals the cached value for key into dest. Returns false on
// a miss or any cache error.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		c.logger.Warn("cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	body, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// PageKey builds the cache key for a single-page read. The section
// distinguishes the page body from its posts/employees/summary views,
// all of which share the page's invalidation fate.
func PageKey(pageID, section string) string {
	if section == "" {
		return pageKeyPrefix + pageID
	}
	return pageKeyPrefix + pageID + ":" + section
}

// ListKey builds a versioned key for a list query shape. Bumping the
// namespace version on any write orphans every old list entry at once;
// orphans expire by TTL.
func (c *Cache) ListKey(ctx context.Context, shape string) string {
	version := int64(0)
	if c != nil {
		v, err := c.client.Get(ctx, listVersionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache version read failed", "error", err)
		} else if err == nil {
			version = v
		}
	}
	return fmt.Sprintf("%sv%d:%s", listKeyPrefix, version, shape)
}

// InvalidatePage drops every entry keyed by the page identifier.
func (c *Cache) InvalidatePage(ctx context.Context, pageID string) error {
	if c == nil {
		return nil
	}
	keys := []string{
		PageKey(pageID, ""),
		PageKey(pageID, "posts"),
		PageKey(pageID, "employees"),
		PageKey(pageID, "summary"),
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate page %q: %w", pageID, err)
	}
	return nil
}

// InvalidateLists invalidates the whole list-query namespace. List
// entries cannot be selectively invalidated by content, so any write
// bumps the namespace version instead.
func (c *Cache) InvalidateLists(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.client.Incr(ctx, listVersionKey).Err(); err != nil {
		return fmt.Errorf("bump list version: %w", err)
	}
	return nil
}
