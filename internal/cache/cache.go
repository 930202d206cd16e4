// Package cache is the shared symbol-data cache: TTL-bounded freshness
// with single-flight fetch deduplication and LRU eviction. Backed by
// golang.org/x/sync/singleflight (to collapse concurrent fetches for the
// same key into one broker call) and hashicorp/golang-lru/v2 (bounded
// capacity eviction).
package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/kstrading/scand/internal/models"
	"github.com/kstrading/scand/internal/scanerr"
)

// FetchFunc retrieves fresh SymbolData for key, respecting ctx's deadline.
type FetchFunc func(ctx context.Context, key models.SymbolKey) (models.SymbolData, error)

// Interface is the SymbolDataCache contract the rest of the scheduler
// depends on.
type Interface interface {
	// GetOrFetch returns cached data for key if fresh, otherwise calls fetch
	// at most once even under concurrent callers for the same key.
	GetOrFetch(ctx context.Context, key models.SymbolKey, fetch FetchFunc) (models.SymbolData, error)
	// Invalidate evicts key, forcing the next GetOrFetch to refetch.
	Invalidate(key models.SymbolKey)
	// Len returns the number of entries currently cached.
	Len() int
}

// Cache is the concrete SymbolDataCache.
type Cache struct {
	mu    sync.RWMutex
	lru   *lru.Cache[models.SymbolKey, models.SymbolData]
	group singleflight.Group
	clock func() time.Time
}

var _ Interface = (*Cache)(nil)

// New builds a Cache bounded to capacity entries. clock lets tests drive
// virtual time; pass time.Now for production.
func New(capacity int, clock func() time.Time) (*Cache, error) {
	if capacity <= 0 {
		capacity = 2048
	}
	backing, err := lru.New[models.SymbolKey, models.SymbolData](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: backing, clock: clock}, nil
}

// GetOrFetch returns the cached SymbolData for key if still fresh
// (SymbolData.Fresh), otherwise invokes fetch. Concurrent calls for the same
// key while a fetch is in flight share its result and its error
// (golang.org/x/sync/singleflight), so exactly one broker call is made per
// miss regardless of how many goroutines asked for it simultaneously.
//
// Each caller's own ctx governs only how long it personally waits: a
// waiter whose deadline elapses gets Timeout while the leader's fetch
// keeps running and is still stored if it later succeeds. A plain
// singleflight.Do would make every waiter share the leader's lifetime, so
// waiting is done on DoChan instead.
func (c *Cache) GetOrFetch(ctx context.Context, key models.SymbolKey, fetch FetchFunc) (models.SymbolData, error) {
	now := c.clock()

	c.mu.RLock()
	cached, ok := c.lru.Peek(key)
	c.mu.RUnlock()
	if ok && cached.Fresh(now) {
		return cached, nil
	}

	groupKey := key.Instrument + "|" + string(key.Interval)
	resultCh := c.group.DoChan(groupKey, func() (interface{}, error) {
		// Re-check under the singleflight leader: another goroutine may have
		// populated the entry while we were waiting to become leader.
		c.mu.RLock()
		cached, ok := c.lru.Peek(key)
		c.mu.RUnlock()
		if ok && cached.Fresh(c.clock()) {
			return cached, nil
		}

		data, err := fetch(ctx, key)
		if err != nil {
			return models.SymbolData{}, err
		}

		c.mu.Lock()
		c.lru.Add(key, data)
		c.mu.Unlock()
		return data, nil
	})

	select {
	case res := <-resultCh:
		if res.Err != nil {
			return models.SymbolData{}, res.Err
		}
		return res.Val.(models.SymbolData), nil
	case <-ctx.Done():
		return models.SymbolData{}, scanerr.Wrap(scanerr.KindTimeout, "cache: GetOrFetch deadline exceeded", ctx.Err())
	}
}

// Invalidate evicts key from the cache.
func (c *Cache) Invalidate(key models.SymbolKey) {
	c.mu.Lock()
	c.lru.Remove(key)
	c.mu.Unlock()
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}
