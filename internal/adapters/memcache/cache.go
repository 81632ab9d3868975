// Package memcache is the in-process cache used when no Redis is configured.
package memcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"skillswap/internal/adapters/observability"
)

type entry struct {
	val []byte
	exp time.Time
}

// Cache keeps JSON-encoded values in a bounded LRU. Each entry carries its own
// expiry from the per-call ttl; maxTTL caps it and is used when ttl is 0.
type Cache struct {
	lru    *expirable.LRU[string, entry]
	maxTTL time.Duration
	now    func() time.Time
}

func New(size int, maxTTL time.Duration) *Cache {
	if size <= 0 {
		size = 1024
	}
	return &Cache{
		lru:    expirable.NewLRU[string, entry](size, nil, maxTTL),
		maxTTL: maxTTL,
		now:    time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	e, ok := c.lru.Get(key)
	if ok && !e.exp.IsZero() && !c.now().Before(e.exp) {
		c.lru.Remove(key)
		ok = false
	}
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(e.val, dst)
}

func (c *Cache) Set(_ context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ttl := time.Duration(ttlSec) * time.Second
	if ttl <= 0 || (c.maxTTL > 0 && ttl > c.maxTTL) {
		ttl = c.maxTTL
	}
	e := entry{val: b}
	if ttl > 0 {
		e.exp = c.now().Add(ttl)
	}
	observability.ObserveCache("memory", "set")
	c.lru.Add(key, e)
	return nil
}

func (c *Cache) Del(_ context.Context, key string) error {
	observability.ObserveCache("memory", "del")
	c.lru.Remove(key)
	return nil
}
