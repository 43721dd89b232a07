package schedule

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "availability:"

// cacheTTL only bounds key lifetime; correctness comes from event-driven
// invalidation, not expiry.
const cacheTTL = 24 * time.Hour

// Cache stores computed day availability in Redis keyed by date. All methods
// are nil-safe so the service degrades to uncached reads without Redis.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCache wraps the Redis client for availability caching.
func NewCache(client *redis.Client, logger *zap.Logger) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, logger: logger}
}

// Get returns the cached availability for date, if present.
func (c *Cache) Get(ctx context.Context, date string) (*DayAvailability, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKeyPrefix+date).Bytes()
	if err != nil {
		return nil, false
	}
	var day DayAvailability
	if err := json.Unmarshal(raw, &day); err != nil {
		c.logger.Warn("corrupt availability cache entry", zap.String("date", date), zap.Error(err))
		return nil, false
	}
	return &day, true
}

// Put stores the availability for the day it describes.
func (c *Cache) Put(ctx context.Context, day DayAvailability) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(day)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+day.Date, raw, cacheTTL).Err(); err != nil {
		c.logger.Warn("availability cache write failed", zap.String("date", day.Date), zap.Error(err))
	}
}

// Invalidate drops the cached entry for date.
func (c *Cache) Invalidate(ctx context.Context, date string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKeyPrefix+date).Err(); err != nil {
		c.logger.Warn("availability cache invalidation failed", zap.String("date", date), zap.Error(err))
	}
}
