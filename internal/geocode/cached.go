package geocode

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Cache is the subset of cache.Redis used by Cached.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

// CacheTTL is how long a lookup stays cached.
const CacheTTL = 24 * time.Hour

// Cached serves repeated lookups from a cache. Cache failures fall
// through to the wrapped geocoder.
type Cached struct {
	next  Geocoder
	cache Cache
	ttl   time.Duration
}

// NewCached wraps next with cache.
func NewCached(next Geocoder, cache Cache) *Cached {
	return &Cached{next: next, cache: cache, ttl: CacheTTL}
}

// First returns the first candidate for address.
func (c *Cached) First(ctx context.Context, address string) (*Candidate, error) {
	return First(ctx, c, address)
}

// Lookup returns the candidates for address.
func (c *Cached) Lookup(ctx context.Context, address string) ([]Candidate, error) {
	key := "geocode:" + strings.ToLower(strings.TrimSpace(address))

	var cands []Candidate
	hit, err := c.cache.Get(ctx, key, &cands)
	if err != nil {
		slog.Warn("geocode cache read failed", "error", err)
	}
	if hit {
		return cands, nil
	}

	cands, err = c.next.Lookup(ctx, address)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, cands, c.ttl); err != nil {
		slog.Warn("geocode cache write failed", "error", err)
	}
	return cands, nil
}
