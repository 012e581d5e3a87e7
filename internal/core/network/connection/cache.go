package connection

import (
	"sync"

	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

// Cache 连接级缓存
type Cache struct {
	mu    sync.RWMutex
	items map[string]interface{}
}

var _ network.Cache = (*Cache)(nil)

// NewCache 创建空缓存
func NewCache() *Cache {
	return &Cache{items: make(map[string]interface{})}
}

// Get 读取
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

// Set 写入或覆盖
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	c.items[key] = value
	c.mu.Unlock()
}

// Delete 删除
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// GetOrSet 不存在时写入
func (c *Cache) GetOrSet(key string, value interface{}) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.items[key]; ok {
		return v, true
	}
	c.items[key] = value
	return value, false
}

// Len 条目数
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Range 遍历快照，fn 返回 false 时停止
func (c *Cache) Range(fn func(key string, value interface{}) bool) {
	c.mu.RLock()
	snapshot := make(map[string]interface{}, len(c.items))
	for k, v := range c.items {
		snapshot[k] = v
	}
	c.mu.RUnlock()

	for k, v := range snapshot {
		if !fn(k, v) {
			return
		}
	}
}
