package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrNoPrice marks a lookup whose fetch returned without error but with no
// usable price.
var ErrNoPrice = errors.New("no price available")

// FetchFunc resolves a ticker's live price from an external source.
type FetchFunc func(ctx context.Context, ticker string) (float64, error)

// PriceResult is the outcome of a price lookup. A result with a non-nil Err is
// a cached absence: the lookup happened and failed.
type PriceResult struct {
	Price float64
	Err   error
}

// Found reports whether the lookup produced a price.
func (r PriceResult) Found() bool { return r.Err == nil }

// Ptr returns the price as a pointer, nil for an absence.
func (r PriceResult) Ptr() *float64 {
	if !r.Found() {
		return nil
	}
	p := r.Price
	return &p
}

// PriceCache memoizes ticker prices, and lookup failures, for the lifetime of
// one pipeline run. Concurrent GetOrFetch calls for the same ticker share a
// single fetch. A PriceCache must not be shared between runs.
type PriceCache struct {
	mu      sync.RWMutex
	entries map[string]PriceResult
	group   singleflight.Group
}

// NewPriceCache returns an empty cache.
func NewPriceCache() *PriceCache {
	return &PriceCache{entries: make(map[string]PriceResult)}
}

// Get returns the cached result for ticker and whether one exists.
func (c *PriceCache) Get(ticker string) (PriceResult, bool) {
	c.mu.RLock()
	r, ok := c.entries[ticker]
	c.mu.RUnlock()
	return r, ok
}

// Len returns the number of tickers looked up so far.
func (c *PriceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrFetch returns the cached result for ticker, invoking fetch on a miss.
// Fetch errors are stored as absences and returned inside the result; they are
// never retried within this cache's lifetime.
func (c *PriceCache) GetOrFetch(ctx context.Context, ticker string, fetch FetchFunc) PriceResult {
	if r, ok := c.Get(ticker); ok {
		return r
	}

	v, _, _ := c.group.Do(ticker, func() (any, error) {
		// A caller that missed the map may arrive after the previous flight
		// for this key finished; the entry is already stored by then.
		if r, ok := c.Get(ticker); ok {
			return r, nil
		}
		r := c.fetch(ctx, ticker, fetch)
		c.mu.Lock()
		c.entries[ticker] = r
		c.mu.Unlock()
		return r, nil
	})
	return v.(PriceResult)
}

func (c *PriceCache) fetch(ctx context.Context, ticker string, fetch FetchFunc) (r PriceResult) {
	defer func() {
		if p := recover(); p != nil {
			r = PriceResult{Err: fmt.Errorf("price fetch %s panicked: %v", ticker, p)}
		}
	}()
	if fetch == nil {
		return PriceResult{Err: fmt.Errorf("price %s: %w", ticker, ErrNoPrice)}
	}
	price, err := fetch(ctx, ticker)
	if err != nil {
		return PriceResult{Err: fmt.Errorf("price %s: %w", ticker, err)}
	}
	if price <= 0 {
		return PriceResult{Err: fmt.Errorf("price %s: %w", ticker, ErrNoPrice)}
	}
	return PriceResult{Price: price}
}
