package cache

import (
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

type entry struct {
	v   any
	exp time.Time
}

// TTLCache is a small in-process cache with per-entry expiry. A
// background sweep reclaims entries that expire without ever being read
// again, so one-shot keys do not accumulate.
type TTLCache struct {
	mu     sync.RWMutex
	m      map[string]entry
	ticker *time.Ticker
}

func NewTTLCache() *TTLCache {
	c := &TTLCache{
		m:      make(map[string]entry),
		ticker: time.NewTicker(defaultSweepInterval),
	}
	go c.sweepLoop()
	return c
}

func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.v, true
}

func (c *TTLCache) Set(key string, v any, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = entry{v: v, exp: exp}
	c.mu.Unlock()
}

func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *TTLCache) sweepLoop() {
	for range c.ticker.C {
		c.sweep(time.Now())
	}
}

func (c *TTLCache) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(c.m, key)
		}
	}
}
