package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"reportsync/config"

	goredis "github.com/redis/go-redis/v9"
)

// CacheInstance wraps the Redis client used by the reporting API. All
// methods are no-ops when Redis is not configured, so the sync engine and
// API work without a cache.
type CacheInstance struct {
	Rdb *goredis.Client
}

// Cache is the global cache instance
var Cache CacheInstance

// ConnectCache connects to Redis if REDIS_ADDR is configured
func ConnectCache() {
	addr := config.AppConfig.RedisAddr
	if addr == "" {
		return
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis ping failed, progress cache disabled: %v", err)
		_ = rdb.Close()
		return
	}

	Cache = CacheInstance{Rdb: rdb}
	log.Println("Connected to Redis at " + addr)
}

// ProgressKey builds a cache key inside a company's invalidation scope
func ProgressKey(companyID uint, suffix string) string {
	return fmt.Sprintf("report:progress:%d:%s", companyID, suffix)
}

// Get returns the cached value and whether it was present
func (c CacheInstance) Get(ctx context.Context, key string) (string, bool) {
	if c.Rdb == nil {
		return "", false
	}
	val, err := c.Rdb.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores a value with a TTL. Errors are logged, never surfaced: the
// cache is an optimization, not a dependency.
func (c CacheInstance) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if c.Rdb == nil {
		return
	}
	if err := c.Rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("Cache set failed for %s: %v", key, err)
	}
}

// InvalidateCompany deletes every cached progress entry for a company. The
// engine calls this after writing derived rows; repopulation is the API's
// job on the next read.
func (c CacheInstance) InvalidateCompany(ctx context.Context, companyID uint) error {
	if c.Rdb == nil {
		return nil
	}

	pattern := ProgressKey(companyID, "*")
	iter := c.Rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.Rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("deleting cache key %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}
