package cache

import (
	"testing"
	"time"

	"stocktracker/internal/quote"
)

func q(symbol string, price float64) quote.Quote {
	return quote.Quote{Symbol: symbol, Price: price}
}

func TestGetPut(t *testing.T) {
	c := New(time.Minute, 0)
	if _, ok := c.Get("600000"); ok {
		t.Fatal("empty cache returned a hit")
	}
	c.Put("600000", q("600000", 9.44))
	got, ok := c.Get("600000")
	if !ok || got.Price != 9.44 {
		t.Fatalf("hit: %v %+v", ok, got)
	}
}

func TestPutOverwrites(t *testing.T) {
	c := New(time.Minute, 0)
	c.Put("600000", q("600000", 9.44))
	c.Put("600000", q("600000", 9.50))
	got, _ := c.Get("600000")
	if got.Price != 9.50 {
		t.Fatalf("overwrite: %+v", got)
	}
	if c.Len() != 1 {
		t.Fatalf("len: %d", c.Len())
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(50*time.Millisecond, 0)
	c.Put("600000", q("600000", 9.44))
	if _, ok := c.Get("600000"); !ok {
		t.Fatal("fresh entry missing")
	}
	time.Sleep(120 * time.Millisecond)
	if _, ok := c.Get("600000"); ok {
		t.Fatal("stale entry returned after TTL")
	}
	// a second read must not resurrect it either
	if _, ok := c.Get("600000"); ok {
		t.Fatal("stale entry returned on repeated read")
	}
}

func TestInvalidateAll(t *testing.T) {
	c := New(time.Minute, 0)
	c.Put("600000", q("600000", 9.44))
	c.Put("AAPL", q("AAPL", 195.5))
	c.InvalidateAll()
	if _, ok := c.Get("600000"); ok {
		t.Fatal("600000 survived invalidation")
	}
	if _, ok := c.Get("AAPL"); ok {
		t.Fatal("AAPL survived invalidation")
	}
	if c.Len() != 0 {
		t.Fatalf("len after purge: %d", c.Len())
	}
}
