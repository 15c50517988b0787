// Package querycache is the shared client-side cache keyed by semantic query
// identifiers. It is an explicit, injected object: every hook that reads or
// writes cached state receives the same *Cache, and key ownership follows
// the convention "mutate the key you own, invalidate the keys you might
// affect".
package querycache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"stoop/internal/observability"
)

// Key identifies one cached query, e.g. {"posts", "neighborhood"} or
// {"follow-status", "u42"}. The first component is the resource namespace.
type Key []string

// String joins the key for storage. The separator never appears in key
// components.
func (k Key) String() string { return strings.Join(k, "|") }

// Prefix reports whether k falls under the given prefix key.
func (k Key) prefix() string {
	if len(k) == 0 {
		return "unknown"
	}
	return k[0]
}

// Entry is one cached value with its freshness metadata.
type Entry struct {
	Value      json.RawMessage `json:"value"`
	FetchedAt  time.Time       `json:"fetchedAt"`
	StaleAfter time.Duration   `json:"staleAfter"`
}

// Stale reports whether the entry has outlived its freshness window. A zero
// StaleAfter means the entry is stale immediately (always refetch).
func (e *Entry) Stale(now time.Time) bool {
	return now.After(e.FetchedAt.Add(e.StaleAfter))
}

// Store is the pluggable persistence behind the cache. The memory store
// serves single-process clients; the Redis store lets several SDK processes
// share one cache.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, e *Entry) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Cache binds a Store with metrics and the freshness rules.
type Cache struct {
	store Store
	now   func() time.Time
}

// New returns a Cache over the given store.
func New(store Store) *Cache {
	return &Cache{store: store, now: time.Now}
}

// State classifies a cache read.
type State int

const (
	// Miss means no entry exists.
	Miss State = iota
	// StaleHit means an entry exists but its freshness window has passed.
	StaleHit
	// FreshHit means the entry is within its freshness window.
	FreshHit
)

// Lookup reads the raw entry under key.
func (c *Cache) Lookup(ctx context.Context, key Key) (*Entry, State) {
	e, err := c.store.Get(ctx, key.String())
	if err != nil || e == nil {
		observability.CacheMisses.WithLabelValues(key.prefix()).Inc()
		return nil, Miss
	}
	observability.CacheHits.WithLabelValues(key.prefix()).Inc()
	if e.Stale(c.now()) {
		return e, StaleHit
	}
	return e, FreshHit
}

// Invalidate removes the given keys so the next read refetches.
func (c *Cache) Invalidate(ctx context.Context, keys ...Key) {
	for _, k := range keys {
		observability.CacheInvalidations.WithLabelValues(k.prefix()).Inc()
		_ = c.store.Delete(ctx, k.String())
	}
}

// InvalidatePrefix removes the key itself and every key under it, e.g. all
// pages of the "posts" namespace after a post is created. Matching stops at
// the component boundary so "post" never sweeps "posts".
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix Key) {
	observability.CacheInvalidations.WithLabelValues(prefix.prefix()).Inc()
	_ = c.store.Delete(ctx, prefix.String())
	_ = c.store.DeletePrefix(ctx, prefix.String()+"|")
}

// Get decodes the cached value under key into T.
func Get[T any](ctx context.Context, c *Cache, key Key) (T, State) {
	var zero T
	e, state := c.Lookup(ctx, key)
	if state == Miss {
		return zero, Miss
	}
	var v T
	if err := json.Unmarshal(e.Value, &v); err != nil {
		// A value we can no longer decode is as good as absent.
		_ = c.store.Delete(ctx, key.String())
		return zero, Miss
	}
	return v, state
}

// Set stores v under key with the given freshness window.
func Set[T any](ctx context.Context, c *Cache, key Key, v T, staleAfter time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key.String(), &Entry{
		Value:      raw,
		FetchedAt:  c.now(),
		StaleAfter: staleAfter,
	})
}

// Fetch returns the fresh cached value under key, or runs fn and caches its
// result. Stale entries trigger a refetch; a failed refetch propagates the
// error rather than serving stale data.
func Fetch[T any](ctx context.Context, c *Cache, key Key, staleAfter time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if v, state := Get[T](ctx, c, key); state == FreshHit {
		return v, nil
	}
	v, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := Set(ctx, c, key, v, staleAfter); err != nil {
		return v, err
	}
	return v, nil
}

// Patch applies fn to the cached value under key (zero value when absent)
// and writes the result back as freshly fetched. This is the optimistic
// direct-patch path: the caller has server acknowledgment and updates the
// one key it owns without a refetch.
func Patch[T any](ctx context.Context, c *Cache, key Key, staleAfter time.Duration, fn func(T) T) error {
	cur, _ := Get[T](ctx, c, key)
	return Set(ctx, c, key, fn(cur), staleAfter)
}
