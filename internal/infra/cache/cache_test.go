package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/networth-bfa-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_TouchSlidesExpiry(t *testing.T) {
	c := cache.New[string](100 * time.Millisecond)

	c.Set("key1", "value1")
	time.Sleep(60 * time.Millisecond)

	if !c.Touch("key1") {
		t.Fatal("expected touch to succeed on live entry")
	}
	time.Sleep(60 * time.Millisecond)

	// 120ms after Set, but only 60ms after Touch: still alive.
	if _, ok := c.Get("key1"); !ok {
		t.Fatal("expected touched entry to still be alive")
	}
}

func TestCache_TouchExpired(t *testing.T) {
	c := cache.New[string](30 * time.Millisecond)

	c.Set("key1", "value1")
	time.Sleep(60 * time.Millisecond)

	if c.Touch("key1") {
		t.Fatal("expected touch to fail on expired entry")
	}
}

func TestCache_StopKeepsCacheUsable(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Stop()
	c.Stop() // idempotent

	c.Set("key1", "value1")
	if _, ok := c.Get("key1"); !ok {
		t.Fatal("expected cache to stay usable after Stop")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}
