package cache

import (
	"context"
	"time"

	"github.com/gogf/gf/v2/os/gcache"
)

// Cache 进程内缓存, lruCap > 0 时按LRU淘汰
type Cache struct {
	cache *gcache.Cache
}

func New(lruCap ...int) *Cache {
	return &Cache{
		cache: gcache.New(lruCap...),
	}
}

func (c *Cache) Set(ctx context.Context, key any, value any, duration time.Duration) error {
	return c.cache.Set(ctx, key, value, duration)
}

func (c *Cache) GetVal(ctx context.Context, key any) any {
	reply, err := c.cache.Get(ctx, key)
	if err != nil || reply == nil {
		return nil
	}
	return reply.Val()
}

// 获取并续期, 实现滑动过期
func (c *Cache) GetValAndExpire(ctx context.Context, key any, duration time.Duration) any {

	value := c.GetVal(ctx, key)
	if value == nil {
		return nil
	}

	_, _ = c.cache.UpdateExpire(ctx, key, duration)

	return value
}

func (c *Cache) Size(ctx context.Context) int {
	size, err := c.cache.Size(ctx)
	if err != nil {
		return 0
	}
	return size
}

func (c *Cache) Data(ctx context.Context) (map[any]any, error) {
	return c.cache.Data(ctx)
}

func (c *Cache) Remove(ctx context.Context, keys ...any) error {
	_, err := c.cache.Remove(ctx, keys...)
	return err
}
