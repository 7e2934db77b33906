package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TieredCache is an explicit cache object with two tiers: a short-TTL
// in-process tier and an optional longer-TTL shared Redis tier. It owns its
// TTL state and is passed by handle to callers; there is no ambient global.
//
// Redis failures degrade to cache misses; the cache never fails a read.
type TieredCache struct {
	local     *xsync.Map[string, localEntry]
	shared    *redis.Client // nil disables the shared tier
	localTTL  time.Duration
	sharedTTL time.Duration
	logger    *zap.Logger
}

type localEntry struct {
	payload   []byte
	expiresAt time.Time
}

// New builds a TieredCache. Pass a nil Redis client to run with the
// in-process tier only.
func New(shared *redis.Client, localTTL, sharedTTL time.Duration, logger *zap.Logger) *TieredCache {
	return &TieredCache{
		local:     xsync.NewMap[string, localEntry](),
		shared:    shared,
		localTTL:  localTTL,
		sharedTTL: sharedTTL,
		logger:    logger,
	}
}

// lookup checks the local tier first, then the shared tier. A shared-tier
// hit is promoted into the local tier.
func (c *TieredCache) lookup(ctx context.Context, key string) ([]byte, bool) {
	if entry, ok := c.local.Load(key); ok {
		if time.Now().Before(entry.expiresAt) {
			return entry.payload, true
		}
		c.local.Delete(key)
	}

	if c.shared == nil {
		return nil, false
	}
	payload, err := c.shared.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Shared cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	c.local.Store(key, localEntry{payload: payload, expiresAt: time.Now().Add(c.localTTL)})
	return payload, true
}

// store writes through both tiers.
func (c *TieredCache) store(ctx context.Context, key string, payload []byte) {
	c.local.Store(key, localEntry{payload: payload, expiresAt: time.Now().Add(c.localTTL)})

	if c.shared == nil {
		return
	}
	if err := c.shared.Set(ctx, key, payload, c.sharedTTL).Err(); err != nil {
		c.logger.Warn("Shared cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops a key from both tiers.
func (c *TieredCache) Invalidate(ctx context.Context, key string) {
	c.local.Delete(key)
	if c.shared != nil {
		if err := c.shared.Del(ctx, key).Err(); err != nil {
			c.logger.Warn("Shared cache delete failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. Values round-trip through JSON so both tiers share one encoding.
func GetOrCompute[T any](ctx context.Context, c *TieredCache, key string, compute func(ctx context.Context) (T, error)) (T, error) {
	var out T
	if payload, ok := c.lookup(ctx, key); ok {
		if err := json.Unmarshal(payload, &out); err == nil {
			return out, nil
		}
		// Undecodable entries are stale garbage; fall through to recompute.
		c.Invalidate(ctx, key)
	}

	out, err := compute(ctx)
	if err != nil {
		return out, err
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return out, err
	}
	c.store(ctx, key, payload)
	return out, nil
}
