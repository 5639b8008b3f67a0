// Package cache 实现结果缓存：按请求签名缓存最终推荐列表，TTL 由配置决定。
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopkit/recommend/core"
)

// Signature 生成缓存键：目标（实体、可选用户、类型）、请求数量、
// 配置版本的纯函数。配置热替换后版本号变化，旧缓存自然失效。
func Signature(target *core.RecommendTarget, limit int, configVersion int64) string {
	user := target.UserID
	if user == "" {
		user = "-"
	}
	return fmt.Sprintf("rec:%s:%s:%s:%d:v%d",
		target.EntityType, target.EntityID, user, limit, configVersion)
}

// Cache 把有序结果列表缓存到 Store。
// 没有任何跨请求协调：并发同签名的请求各算各的、后写覆盖先写，
// 偶发的重复计算是可接受的有界成本，换来热路径上没有合并锁。
type Cache struct {
	Store core.Store
}

func New(s core.Store) *Cache {
	return &Cache{Store: s}
}

// Get 读缓存。miss、过期、反序列化失败一律按 miss 处理。
func (c *Cache) Get(ctx context.Context, signature string) ([]*core.Item, bool) {
	if c == nil || c.Store == nil {
		return nil, false
	}
	data, err := c.Store.Get(ctx, signature)
	if err != nil {
		return nil, false
	}
	var items []*core.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

// Put 写缓存，同签名后写覆盖先写。
func (c *Cache) Put(ctx context.Context, signature string, items []*core.Item, ttl time.Duration) error {
	if c == nil || c.Store == nil {
		return nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}
	seconds := int(ttl / time.Second)
	return c.Store.Set(ctx, signature, data, seconds)
}
