package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/LENAX/capability-tree/pkg/core/graph"
)

// ComputedCache 计算结果缓存接口
// key 由树ID和修订号组成，修订号变化即视为新条目，旧条目等待过期清理
type ComputedCache interface {
	// Set 写入计算结果
	Set(treeID, revision string, tree *graph.ComputedTree) error

	// Get 读取计算结果
	// 返回: 结果和是否命中
	Get(treeID, revision string) (*graph.ComputedTree, bool)

	// Invalidate 删除某棵树的全部修订
	Invalidate(treeID string) error

	// Clear 清空所有缓存
	Clear() error

	// Close 停止后台清理
	Close() error
}

// Key 生成缓存key
func Key(treeID, revision string) string {
	return treeID + "@" + revision
}

type cacheEntry struct {
	value      *graph.ComputedTree
	expireTime time.Time
}

// MemoryComputedCache 内存实现
type MemoryComputedCache struct {
	mu        sync.RWMutex
	cache     map[string]*cacheEntry
	ttl       time.Duration
	stopCh    chan struct{}
	closeOnce sync.Once
}

// NewMemoryComputedCache 创建内存缓存
// ttl: 条目有效期；cleanInterval: 后台清理周期，<=0 时默认1分钟
func NewMemoryComputedCache(ttl, cleanInterval time.Duration) *MemoryComputedCache {
	if cleanInterval <= 0 {
		cleanInterval = time.Minute
	}
	c := &MemoryComputedCache{
		cache:  make(map[string]*cacheEntry),
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}
	go c.cleanupExpired(cleanInterval)
	return c
}

// Set 写入计算结果
func (c *MemoryComputedCache) Set(treeID, revision string, tree *graph.ComputedTree) error {
	if treeID == "" || tree == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[Key(treeID, revision)] = &cacheEntry{
		value:      tree,
		expireTime: time.Now().Add(c.ttl),
	}
	return nil
}

// Get 读取计算结果，过期条目视为未命中并删除
func (c *MemoryComputedCache) Get(treeID, revision string) (*graph.ComputedTree, bool) {
	if treeID == "" {
		return nil, false
	}
	key := Key(treeID, revision)

	c.mu.RLock()
	entry, exists := c.cache[key]
	c.mu.RUnlock()
	if !exists {
		return nil, false
	}

	if time.Now().After(entry.expireTime) {
		c.mu.Lock()
		if cur, ok := c.cache[key]; ok && cur == entry {
			delete(c.cache, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

// Invalidate 删除某棵树的全部修订
func (c *MemoryComputedCache) Invalidate(treeID string) error {
	if treeID == "" {
		return nil
	}
	prefix := treeID + "@"

	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.cache {
		if strings.HasPrefix(key, prefix) {
			delete(c.cache, key)
		}
	}
	return nil
}

// Clear 清空所有缓存
func (c *MemoryComputedCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*cacheEntry)
	return nil
}

// Len 当前条目数（含尚未清理的过期条目）
func (c *MemoryComputedCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Close 停止后台清理协程，可重复调用
func (c *MemoryComputedCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopCh)
	})
	return nil
}

func (c *MemoryComputedCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired(time.Now())
		}
	}
}

func (c *MemoryComputedCache) removeExpired(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.cache {
		if now.After(entry.expireTime) {
			delete(c.cache, key)
		}
	}
}

// NoopCache 禁用缓存时使用
type NoopCache struct{}

func (NoopCache) Set(string, string, *graph.ComputedTree) error  { return nil }
func (NoopCache) Get(string, string) (*graph.ComputedTree, bool) { return nil, false }
func (NoopCache) Invalidate(string) error                        { return nil }
func (NoopCache) Clear() error                                   { return nil }
func (NoopCache) Close() error                                   { return nil }
