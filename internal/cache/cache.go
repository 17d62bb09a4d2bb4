package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"stocktracker/internal/quote"
)

// DefaultTTL is how long a cached quote stays readable.
const DefaultTTL = 5 * time.Minute

// Cache holds the latest quote per symbol with TTL expiry. An entry older
// than the TTL is treated as absent on read. Keys are bare symbols; the
// 6-digit/letters classification keeps the CN and US symbol spaces disjoint.
type Cache struct {
	lru *expirable.LRU[string, quote.Quote]
}

// New builds a cache with the given TTL; maxEntries <= 0 means unbounded.
func New(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Cache{lru: expirable.NewLRU[string, quote.Quote](maxEntries, nil, ttl)}
}

// Get returns the cached quote for symbol, or absent when the entry is
// missing or has outlived the TTL.
func (c *Cache) Get(symbol string) (quote.Quote, bool) {
	return c.lru.Get(symbol)
}

// Put stores the quote, overwriting any previous entry unconditionally.
func (c *Cache) Put(symbol string, q quote.Quote) {
	c.lru.Add(symbol, q)
}

// InvalidateAll clears every entry. Triggered when the watchlist itself
// changes; no partial invalidation is supported.
func (c *Cache) InvalidateAll() {
	c.lru.Purge()
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}
