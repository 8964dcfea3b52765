package util

import (
	"fmt"
	"sync"
	"testing"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	// "b" becomes the LRU entry.
	c.Get("a")
	c.Put("c", 3)

	if c.Len() != 2 {
		t.Fatalf("expected len 2, got %d", c.Len())
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %d %v", v, ok)
	}

	c.Put("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Fatalf("expected update to a=10, got %d", v)
	}
	c.Evict("a")
	c.Evict("missing")
	if c.Len() != 1 {
		t.Fatalf("expected len 1 after evict, got %d", c.Len())
	}
}

func TestLRU_ZeroCapacityAndConcurrency(t *testing.T) {
	c := NewLRU[string, int](0)
	c.Put("a", 1)
	c.Put("b", 2)
	if c.Len() != 1 {
		t.Fatalf("expected capacity 1, got len %d", c.Len())
	}

	c = NewLRU[string, int](16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("k%d", (n+j)%20)
				c.Put(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() > 16 {
		t.Fatalf("cache grew past capacity: %d", c.Len())
	}
}
