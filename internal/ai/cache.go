package ai

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"atscore/internal/config"
	atscoreErrors "atscore/internal/errors"

	"github.com/redis/go-redis/v9"
)

// EmbeddingCache keeps embedding vectors in memory (L1) and, when a Redis URL
// is configured, in Redis (L2) so they survive restarts.
type EmbeddingCache struct {
	l1         sync.Map      // key -> *cacheEntry
	rdb        *redis.Client // nil if Redis unavailable
	ttl        time.Duration
	maxEntries int
	logger     *atscoreErrors.Logger

	hits   atomic.Int64
	misses atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

type cacheEntry struct {
	vector    []float32
	expiresAt time.Time
}

// NewEmbeddingCache sets up the cache. An empty RedisURL disables L2; an
// unreachable Redis is logged and L2 is skipped.
func NewEmbeddingCache(ctx context.Context, cfg config.EmbeddingCacheConfig, logger *atscoreErrors.Logger) *EmbeddingCache {
	c := &EmbeddingCache{
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		logger:     logger,
		stop:       make(chan struct{}),
	}
	if c.ttl <= 0 {
		c.ttl = 24 * time.Hour
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("Invalid redis URL, embedding L2 cache disabled", "error", err.Error())
		} else {
			rdb := redis.NewClient(opts)
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				logger.Warn("Redis unreachable, embedding L2 cache disabled", "error", err.Error())
				_ = rdb.Close()
			} else {
				c.rdb = rdb
				logger.Info("Embedding L2 cache connected", "addr", opts.Addr)
			}
		}
	}

	logger.Debug("Embedding cache initialized",
		"ttl", c.ttl.String(),
		"redis", c.rdb != nil,
		"max_entries", c.maxEntries)

	go c.cleanupLoop(5 * time.Minute)
	return c
}

// CacheKey builds a deterministic cache key for a model and text
func CacheKey(model, text string) string {
	hash := sha256.Sum256([]byte(model + "|" + strings.ToLower(text)))
	return fmt.Sprintf("atscore:emb:%x", hash[:12])
}

// Get tries L1, then L2. An L2 hit populates L1.
func (c *EmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}

	if val, ok := c.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			c.hits.Add(1)
			return entry.vector, true
		}
		c.l1.Delete(key)
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var vector []float32
			if json.Unmarshal(data, &vector) == nil && len(vector) > 0 {
				c.hits.Add(1)
				c.l1.Store(key, &cacheEntry{vector: vector, expiresAt: time.Now().Add(c.ttl)})
				return vector, true
			}
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Set stores vector in both tiers
func (c *EmbeddingCache) Set(ctx context.Context, key string, vector []float32) {
	if c == nil || len(vector) == 0 {
		return
	}

	c.evictIfNeeded()
	c.l1.Store(key, &cacheEntry{vector: vector, expiresAt: time.Now().Add(c.ttl)})

	if c.rdb != nil {
		data, err := json.Marshal(vector)
		if err != nil {
			return
		}
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Debug("Embedding L2 cache set failed", "error", err.Error())
		}
	}
}

// Stats returns cache counters
func (c *EmbeddingCache) Stats() map[string]any {
	if c == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"enabled": true,
		"entries": c.len(),
		"hits":    c.hits.Load(),
		"misses":  c.misses.Load(),
		"redis":   c.rdb != nil,
	}
}

// Close stops the cleanup loop and closes the Redis client
func (c *EmbeddingCache) Close() error {
	if c == nil {
		return nil
	}
	c.stopOnce.Do(func() { close(c.stop) })
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

func (c *EmbeddingCache) len() int {
	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// evictIfNeeded removes expired entries first, then the oldest entries, until
// L1 is below maxEntries
func (c *EmbeddingCache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}

	count := c.len()
	if count < c.maxEntries {
		return
	}

	now := time.Now()
	c.l1.Range(func(key, val any) bool {
		if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
			c.l1.Delete(key)
			count--
		}
		return count >= c.maxEntries
	})

	for count >= c.maxEntries {
		var oldestKey any
		oldestAt := now.Add(c.ttl + time.Hour)
		c.l1.Range(func(key, val any) bool {
			// earlier expiry means older entry since expiry = createdAt + ttl
			if entry, ok := val.(*cacheEntry); ok && entry.expiresAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.expiresAt
			}
			return true
		})
		if oldestKey == nil {
			break
		}
		c.l1.Delete(oldestKey)
		count--
	}
}

func (c *EmbeddingCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.l1.Range(func(key, val any) bool {
				if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
					c.l1.Delete(key)
				}
				return true
			})
		}
	}
}
