package poi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"saferoute/internal/metrics"
)

// RedisCache shares POI results across instances. Fingerprints are hashed so
// long vertex lists stay within sane key sizes.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisCache{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

func (c *RedisCache) key(fingerprint string) string {
	sum := sha256.Sum256([]byte(fingerprint))
	return "poi:" + hex.EncodeToString(sum[:16])
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]RawElement, bool) {
	data, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return nil, false
	}
	var elements []RawElement
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, false
	}
	return elements, true
}

func (c *RedisCache) Set(ctx context.Context, key string, elements []RawElement) {
	data, err := json.Marshal(elements)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		metrics.CacheErrors.Inc()
	}
}

// Ping verifies connectivity for readiness checks.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
