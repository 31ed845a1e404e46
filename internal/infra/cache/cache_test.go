package cache_test

import (
	"testing"
	"time"

	"github.com/shehrozeikram/ERP-sub003/internal/domain"
	"github.com/shehrozeikram/ERP-sub003/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[*domain.Invoice](5 * time.Minute)
	defer c.Close()

	c.Set("inv-1", &domain.Invoice{ID: "inv-1", InvoiceNumber: "INV-REN-2026-09-0001"})
	val, ok := c.Get("inv-1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val.InvoiceNumber != "INV-REN-2026-09-0001" {
		t.Errorf("unexpected invoice %+v", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)
	defer c.Close()

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_SweepRemovesExpired(t *testing.T) {
	c := cache.New[string](20 * time.Millisecond)
	defer c.Close()

	c.Set("key1", "value1")
	time.Sleep(150 * time.Millisecond)

	if n := c.Len(); n != 0 {
		t.Fatalf("expected sweep to empty the cache, got %d entries", n)
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_NonPositiveTTL(t *testing.T) {
	c := cache.New[string](0)
	defer c.Close()

	c.Set("key1", "value1")
	if _, ok := c.Get("key1"); !ok {
		t.Fatal("expected default TTL to keep the entry")
	}
}

func TestCache_CloseTwice(t *testing.T) {
	c := cache.New[string](time.Minute)
	c.Close()
	c.Close()
}
