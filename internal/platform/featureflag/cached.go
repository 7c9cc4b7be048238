package featureflag

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cached memoizes another gate's answers for ttl. A flag flip is observed by
// callers once the entry expires.
type Cached struct {
	inner Gate
	cache *expirable.LRU[string, bool]
}

func NewCached(inner Gate, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Cached{
		inner: inner,
		cache: expirable.NewLRU[string, bool](128, nil, ttl),
	}
}

func (c *Cached) IsEnabled(ctx context.Context, flag string) bool {
	key := normalize(flag)
	if v, ok := c.cache.Get(key); ok {
		return v
	}
	v := c.inner.IsEnabled(ctx, key)
	c.cache.Add(key, v)
	return v
}

// Invalidate drops every cached answer.
func (c *Cached) Invalidate() { c.cache.Purge() }
