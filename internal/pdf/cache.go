package pdf

import (
	"context"
	"sync"
	"time"

	"headwear_backend/platform/metrics"

	"github.com/google/uuid"
)

// DocumentRenderer renders a document and never fails.
type DocumentRenderer interface {
	Render(ctx context.Context, doc Document) []byte
}

type cacheKey struct {
	id      uuid.UUID
	updated int64
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

// CachedRenderer memoizes renders by quote id and last-update time for a
// short TTL. Any entry may be evicted at any time; a stale quote never hits
// because its updatedAt changes.
type CachedRenderer struct {
	inner DocumentRenderer
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

// NewCachedRenderer wraps inner with a memo cache. A non-positive ttl disables caching.
func NewCachedRenderer(inner DocumentRenderer, ttl time.Duration) *CachedRenderer {
	return &CachedRenderer{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[cacheKey]cacheEntry),
	}
}

// Render returns a cached PDF when a fresh one exists, otherwise renders and
// stores it. Empty renders are not cached.
func (c *CachedRenderer) Render(ctx context.Context, doc Document) []byte {
	if c.ttl <= 0 {
		return c.inner.Render(ctx, doc)
	}

	key := cacheKey{id: doc.QuoteOrderID, updated: doc.UpdatedAt.UnixNano()}
	now := c.now()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && now.Before(e.expires) {
		c.mu.Unlock()
		metrics.PDFCache.WithLabelValues("hit").Inc()
		return e.body
	}
	c.mu.Unlock()

	metrics.PDFCache.WithLabelValues("miss").Inc()
	body := c.inner.Render(ctx, doc)
	if len(body) == 0 {
		return body
	}

	c.mu.Lock()
	c.prune(now)
	c.entries[key] = cacheEntry{body: body, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return body
}

// Invalidate drops every cached render of the quote.
func (c *CachedRenderer) Invalidate(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.id == id {
			delete(c.entries, k)
		}
	}
}

// prune must be called with mu held.
func (c *CachedRenderer) prune(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
}
