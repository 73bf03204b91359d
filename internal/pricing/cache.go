package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is a read-through redis cache for price rules. Rules change rarely
// (staff edits) but are read on every admission and availability scan.
// Misses and redis failures fall back to the rule source.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewCache(rdb *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(category Category, dayType DayType) string {
	return fmt.Sprintf("pricerules:%s:%s", category, dayType)
}

func (c *Cache) Get(ctx context.Context, category Category, dayType DayType) ([]Rule, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(category, dayType)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warnw("price rule cache read failed", "error", err)
		}
		return nil, false
	}
	var rules []Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		c.logger.Warnw("price rule cache entry corrupt, dropping", "error", err)
		c.rdb.Del(ctx, cacheKey(category, dayType))
		return nil, false
	}
	return rules, true
}

func (c *Cache) Set(ctx context.Context, category Category, dayType DayType, rules []Rule) {
	raw, err := json.Marshal(rules)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(category, dayType), raw, c.ttl).Err(); err != nil {
		c.logger.Warnw("price rule cache write failed", "error", err)
	}
}

// Invalidate drops the cached rules for one (category, day type) pair.
// Called after staff edit the rule table.
func (c *Cache) Invalidate(ctx context.Context, category Category, dayType DayType) {
	if err := c.rdb.Del(ctx, cacheKey(category, dayType)).Err(); err != nil {
		c.logger.Warnw("price rule cache invalidation failed", "error", err)
	}
}
