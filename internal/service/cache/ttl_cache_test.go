package cache

import (
	"testing"
	"time"
)

func TestGetEvictsExpiredEntry(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", "v", -time.Second)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry must not be returned")
	}
	c.mu.RLock()
	_, still := c.m["k"]
	c.mu.RUnlock()
	if still {
		t.Fatal("expired entry must be removed on read")
	}
}

func TestSweepReclaimsUnreadEntries(t *testing.T) {
	c := NewTTLCache()
	c.Set("stale", "v", time.Millisecond)
	c.Set("fresh", "v", time.Hour)
	c.Set("pinned", "v", 0)

	c.sweep(time.Now().Add(time.Second))

	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.m["stale"]; ok {
		t.Fatal("expired entry must be swept without a read")
	}
	if _, ok := c.m["fresh"]; !ok {
		t.Fatal("live entry must survive the sweep")
	}
	if _, ok := c.m["pinned"]; !ok {
		t.Fatal("entry without a TTL must survive the sweep")
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", 42, time.Hour)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("deleted entry must be gone")
	}
}
