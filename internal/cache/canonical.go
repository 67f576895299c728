package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/marked/internal/importers"
	"github.com/mrlokans/marked/internal/logger"
)

// KeyPrefixCanonical is the prefix for url_key -> canonical id entries.
const KeyPrefixCanonical = "marked:canonical:"

// CanonicalKey returns the Redis key for a canonical url_key.
func CanonicalKey(urlKey string) string {
	return KeyPrefixCanonical + urlKey
}

// CanonicalCache maps url keys to canonical ids. Canonical rows are never
// rewritten, so entries only expire to bound memory.
type CanonicalCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger logger.Logger
}

var _ importers.CanonicalCache = (*CanonicalCache)(nil)

func NewCanonicalCache(client redis.UniversalClient, ttl time.Duration, log logger.Logger) *CanonicalCache {
	if log == nil {
		log = logger.Nop()
	}
	return &CanonicalCache{client: client, ttl: ttl, logger: log.Named("cache")}
}

// Get returns the cached id. Redis errors are logged and reported as a miss.
func (c *CanonicalCache) Get(ctx context.Context, urlKey string) (uint, bool) {
	val, err := c.client.Get(ctx, CanonicalKey(urlKey)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("canonical cache read failed", logger.Error(err))
		}
		return 0, false
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil || id == 0 {
		c.logger.Warn("discarding malformed canonical cache entry", logger.String("value", val))
		return 0, false
	}
	return uint(id), true
}

// Set stores id for urlKey. Failures are logged only.
func (c *CanonicalCache) Set(ctx context.Context, urlKey string, id uint) {
	err := c.client.Set(ctx, CanonicalKey(urlKey), strconv.FormatUint(uint64(id), 10), c.ttl).Err()
	if err != nil {
		c.logger.Warn("canonical cache write failed", logger.Error(err))
	}
}
