package utils

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheItem 包装缓存数据和过期时间
type cacheItem[V any] struct {
	data      V
	expiresAt time.Time
}

// TTLCache 本地 LRU 缓存，条目带过期时间
type TTLCache[V any] struct {
	lruCache *lru.Cache[string, cacheItem[V]]
	ttl      time.Duration
	now      func() time.Time
}

// NewTTLCache 创建容量为 size 的缓存
func NewTTLCache[V any](size int, ttl time.Duration) (*TTLCache[V], error) {
	l, err := lru.New[string, cacheItem[V]](size)
	if err != nil {
		return nil, err
	}
	return &TTLCache[V]{lruCache: l, ttl: ttl, now: time.Now}, nil
}

// Set 设置缓存
func (c *TTLCache[V]) Set(key string, data V) {
	c.lruCache.Add(key, cacheItem[V]{
		data:      data,
		expiresAt: c.now().Add(c.ttl),
	})
}

// Get 获取缓存，若不存在或已过期则返回 false
func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	val, ok := c.lruCache.Get(key)
	if !ok {
		return zero, false
	}

	// 检查过期
	if c.now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		return zero, false
	}

	return val.data, true
}

// Delete 删除指定缓存
func (c *TTLCache[V]) Delete(key string) {
	c.lruCache.Remove(key)
}

func (c *TTLCache[V]) Len() int {
	return c.lruCache.Len()
}

var (
	stringCache     *TTLCache[string]
	stringCacheOnce sync.Once
)

// GetCache 获取单例字符串缓存，用于渲染结果等可丢弃的数据
func GetCache() *TTLCache[string] {
	stringCacheOnce.Do(func() {
		c, err := NewTTLCache[string](500, 30*time.Minute)
		if err != nil {
			panic(err)
		}
		stringCache = c
	})
	return stringCache
}
