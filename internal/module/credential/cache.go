package credential

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gradlink/server/internal/shared/metrics"
)

// Cache is the volatile account cache in front of the durable store. It is
// owned by the Store, which invalidates entries on every exchange or refresh
// write; the durable store stays the single source of truth.
type Cache interface {
	Get(ctx context.Context, key string) (*AccountDocument, bool)
	Set(ctx context.Context, key string, doc *AccountDocument)
	Invalidate(ctx context.Context, key string)
}

// RedisCache implements Cache on Redis with a TTL.
type RedisCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewRedisCache creates a Redis-backed account cache.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, m *metrics.Metrics) *RedisCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl, metrics: m}
}

func (c *RedisCache) cacheKey(key string) string {
	return "vcs_account:" + key
}

// Get returns the cached account document, if present.
func (c *RedisCache) Get(ctx context.Context, key string) (*AccountDocument, bool) {
	data, err := c.client.Get(ctx, c.cacheKey(key)).Bytes()
	if err != nil {
		c.metrics.RecordCacheMiss("vcs_account")
		return nil, false
	}

	var doc AccountDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		c.metrics.RecordCacheMiss("vcs_account")
		return nil, false
	}
	c.metrics.RecordCacheHit("vcs_account")
	return &doc, true
}

// Set stores the account document. Cache errors are ignored; the durable
// store remains authoritative.
func (c *RedisCache) Set(ctx context.Context, key string, doc *AccountDocument) {
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.cacheKey(key), data, c.ttl)
}

// Invalidate removes the cached entry.
func (c *RedisCache) Invalidate(ctx context.Context, key string) {
	c.client.Del(ctx, c.cacheKey(key))
}

// MemoryCache implements Cache in process. Used when Redis is unavailable
// and in tests.
type MemoryCache struct {
	mu   sync.RWMutex
	docs map[string]*AccountDocument
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{docs: make(map[string]*AccountDocument)}
}

// Get returns the cached account document, if present.
func (c *MemoryCache) Get(ctx context.Context, key string) (*AccountDocument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[key]
	return doc, ok
}

// Set stores the account document.
func (c *MemoryCache) Set(ctx context.Context, key string, doc *AccountDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[key] = doc
}

// Invalidate removes the cached entry.
func (c *MemoryCache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, key)
}
