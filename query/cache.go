// Package query implements the configuration kernel's three-level Query
// Cache: a per-compiled-identity scope, each holding a bounded LRU of
// (view, params) results, with at-most-one-execution-per-key guaranteed by
// a single-flight group.
package query

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/aledsdavies/confkernel/stats"
	"github.com/aledsdavies/confkernel/view"
)

// Cache is the Query Cache: level one keys on compiled-identity (a scope
// shared by every CompiledConfig with that identity, reference-counted via
// Acquire/ReleaseScope), level two keys on view name, level three keys on
// params fingerprint.
type Cache struct {
	capacity int
	stats    *stats.Collector

	mu     sync.Mutex
	scopes map[string]*scope
}

type scope struct {
	lru   *lru.Cache[string, view.Result]
	group singleflight.Group
	refs  int
}

// New builds a Query Cache whose per-identity scopes each hold up to
// capacity entries. collector may be nil.
func New(capacity int, collector *stats.Collector) *Cache {
	return &Cache{capacity: capacity, stats: collector, scopes: make(map[string]*scope)}
}

// Get resolves (compiledIdentity, viewName, params) from cache, computing it
// via compute on a miss. Concurrent callers racing on the same key join a
// single in-flight compute instead of each running their own (single-
// flight); a compute failure is never memoized, so the next caller retries.
// ctx is checked for cancellation before a miss triggers compute; it is not
// threaded into an in-flight compute already owned by another caller.
func (c *Cache) Get(ctx context.Context, compiledIdentity, viewName string, params view.Params, compute func() (view.Result, error)) (view.Result, error) {
	c.mu.Lock()
	s := c.scopeForLocked(compiledIdentity)
	c.mu.Unlock()
	key := viewName + "\x00" + params.Fingerprint()

	if v, ok := s.lru.Get(key); ok {
		if c.stats != nil {
			c.stats.RecordCacheHit()
		}
		return v, nil
	}

	if c.stats != nil {
		c.stats.RecordCacheMiss()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ran := false
	resI, err, shared := s.group.Do(key, func() (any, error) {
		ran = true
		if v, ok := s.lru.Peek(key); ok {
			return v, nil
		}
		r, cerr := compute()
		if cerr != nil {
			return nil, cerr
		}
		if evicted := s.lru.Add(key, r); evicted && c.stats != nil {
			c.stats.RecordEviction()
		}
		return r, nil
	})
	if shared && !ran && c.stats != nil {
		c.stats.RecordSingleFlightWait()
	}
	if err != nil {
		return nil, err
	}

	c.updateEntryCount()
	return resI.(view.Result), nil
}

// Acquire registers one owner of compiledIdentity's scope, creating it if
// this is the first owner. Structurally equal CompiledConfigs share one
// compiled identity and therefore one scope; each must call Acquire once so
// the scope survives until every owner has released it, not just the first
// one GC collects.
func (c *Cache) Acquire(compiledIdentity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.scopeForLocked(compiledIdentity)
	s.refs++
}

// ReleaseScope releases one owner's claim on compiledIdentity's scope.
// Intended to be called (e.g. via a finalizer on the owning CompiledConfig)
// once that CompiledConfig is no longer reachable. The scope's cached
// entries and in-flight state are discarded only once every owner that
// called Acquire has released: a scope may outlive any single owning
// CompiledConfig, but not all of them.
func (c *Cache) ReleaseScope(compiledIdentity string) {
	c.mu.Lock()
	s, ok := c.scopes[compiledIdentity]
	if !ok {
		c.mu.Unlock()
		return
	}
	s.refs--
	if s.refs <= 0 {
		delete(c.scopes, compiledIdentity)
	}
	c.mu.Unlock()
	c.updateEntryCount()
}

// scopeForLocked returns compiledIdentity's scope, creating it with zero
// owners if absent. Callers must hold c.mu.
func (c *Cache) scopeForLocked(compiledIdentity string) *scope {
	s, ok := c.scopes[compiledIdentity]
	if ok {
		return s
	}
	capacity := c.capacity
	if capacity <= 0 {
		capacity = 1
	}
	newLRU, err := lru.New[string, view.Result](capacity)
	if err != nil {
		// Only returns an error for a non-positive size, which capacity
		// clamping above already rules out.
		panic("query: failed to build LRU cache: " + err.Error())
	}
	s = &scope{lru: newLRU}
	c.scopes[compiledIdentity] = s
	return s
}

func (c *Cache) updateEntryCount() {
	if c.stats == nil {
		return
	}
	c.mu.Lock()
	var total int64
	for _, s := range c.scopes {
		total += int64(s.lru.Len())
	}
	c.mu.Unlock()
	c.stats.SetCacheEntryCount(total)
}
