package gate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/subsync/pkg/metrics"
)

const (
	DefaultCacheTTL  = 30 * time.Second
	DefaultCacheSize = 10_000
)

// CachedChecker keeps recent answers of another Checker in a bounded
// in-process LRU with per-entry expiry. Concurrent misses for the same user
// share one lookup. Errors are never cached. A lookup that overlaps an
// Invalidate for the same user does not populate the cache.
type CachedChecker struct {
	next    Checker
	cache   *expirable.LRU[string, bool]
	group   singleflight.Group
	metrics *metrics.Metrics

	mu       sync.Mutex
	inflight map[string]*lookup
}

// lookup marks one in-flight miss; stale is set when Invalidate overlaps it.
type lookup struct {
	stale bool
}

// CacheOption configures a CachedChecker.
type CacheOption func(*cacheSettings)

type cacheSettings struct {
	size    int
	ttl     time.Duration
	metrics *metrics.Metrics
}

// WithCacheSize bounds the number of cached users.
func WithCacheSize(n int) CacheOption {
	return func(s *cacheSettings) {
		if n > 0 {
			s.size = n
		}
	}
}

// WithCacheTTL sets how long an answer is trusted.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(s *cacheSettings) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithCacheMetrics counts hits and misses.
func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(s *cacheSettings) {
		s.metrics = m
	}
}

// NewCachedChecker wraps next. Panics if next is nil.
func NewCachedChecker(next Checker, opts ...CacheOption) *CachedChecker {
	if next == nil {
		panic("gate: checker is required")
	}
	s := &cacheSettings{size: DefaultCacheSize, ttl: DefaultCacheTTL}
	for _, opt := range opts {
		opt(s)
	}
	return &CachedChecker{
		next:     next,
		cache:    expirable.NewLRU[string, bool](s.size, nil, s.ttl),
		metrics:  s.metrics,
		inflight: make(map[string]*lookup),
	}
}

func (c *CachedChecker) Entitled(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, ErrMissingUserID
	}
	if v, ok := c.cache.Get(userID); ok {
		c.metrics.GateCacheLookup("hit")
		return v, nil
	}
	c.metrics.GateCacheLookup("miss")

	v, err, _ := c.group.Do(userID, func() (any, error) {
		l := &lookup{}
		c.mu.Lock()
		c.inflight[userID] = l
		c.mu.Unlock()

		entitled, err := c.next.Entitled(ctx, userID)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.inflight[userID] == l {
			delete(c.inflight, userID)
		}
		if err != nil {
			return false, err
		}
		if !l.stale {
			c.cache.Add(userID, entitled)
		}
		return entitled, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Invalidate drops the cached answer and detaches any in-flight lookup so
// the next call reads fresh state. The detached lookup still answers its
// callers but its result is not cached.
func (c *CachedChecker) Invalidate(ctx context.Context, userID string) error {
	c.mu.Lock()
	if l, ok := c.inflight[userID]; ok {
		l.stale = true
	}
	c.cache.Remove(userID)
	c.mu.Unlock()
	c.group.Forget(userID)
	if inv, ok := c.next.(Invalidator); ok {
		return inv.Invalidate(ctx, userID)
	}
	return nil
}

// Len reports the number of cached answers.
func (c *CachedChecker) Len() int {
	return c.cache.Len()
}
