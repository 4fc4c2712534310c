// Package stats implements the configuration kernel's opt-in Statistics
// Collector: atomic counters that cost nothing when disabled and give a
// point-in-time snapshot when enabled.
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// InternSnapshot reports Intern Table activity.
type InternSnapshot struct {
	Requests        int64
	Hits            int64
	UniqueByVariant map[string]int64
}

// ExpansionSnapshot reports Pattern Expander activity.
type ExpansionSnapshot struct {
	PatternsProcessed  int64
	KeysEmitted        int64
	CollisionsDetected int64
}

// CacheSnapshot reports Query Cache activity.
type CacheSnapshot struct {
	Hits               int64
	Misses             int64
	Evictions          int64
	SingleFlightWaits  int64
	CurrentEntryCount  int64
}

// CompileSnapshot reports the most recent InternPass run.
type CompileSnapshot struct {
	LastDuration      time.Duration
	LastOriginalSize  int64
	LastOptimizedSize int64
}

// Snapshot is a consistent, point-in-time view over all collected counters.
type Snapshot struct {
	Intern    InternSnapshot
	Expansion ExpansionSnapshot
	Cache     CacheSnapshot
	Compile   CompileSnapshot
}

// Collector accumulates kernel activity counters. The zero value is a
// disabled collector: every Record* method is then a no-op, so call sites
// can unconditionally call into a *Collector even when nil (see the nil
// checks on each method) without branching on whether statistics are on.
type Collector struct {
	enabled bool

	internRequests atomic.Int64
	internHits     atomic.Int64

	variantMu sync.Mutex
	byVariant map[string]*atomic.Int64

	patternsProcessed  atomic.Int64
	keysEmitted        atomic.Int64
	collisionsDetected atomic.Int64

	cacheHits        atomic.Int64
	cacheMisses      atomic.Int64
	cacheEvictions   atomic.Int64
	singleFlightWait atomic.Int64
	cacheEntries     atomic.Int64

	compileMu     sync.Mutex
	lastCompile   CompileSnapshot
}

// New returns a Collector. When enabled is false every Record* call is a
// no-op and Snapshot always returns the zero Snapshot.
func New(enabled bool) *Collector {
	return &Collector{enabled: enabled, byVariant: make(map[string]*atomic.Int64)}
}

// Enabled reports whether this collector records anything.
func (c *Collector) Enabled() bool { return c != nil && c.enabled }

// RecordInternRequest records one intern table lookup for the given node
// variant ("scalar", "mapping", "sequence"), noting whether it was a
// structural-dedup hit.
func (c *Collector) RecordInternRequest(variant string, hit bool) {
	if !c.Enabled() {
		return
	}
	c.internRequests.Add(1)
	if hit {
		c.internHits.Add(1)
		return
	}
	c.variantMu.Lock()
	counter, ok := c.byVariant[variant]
	if !ok {
		counter = &atomic.Int64{}
		c.byVariant[variant] = counter
	}
	c.variantMu.Unlock()
	counter.Add(1)
}

// RecordExpansion records one pattern key's expansion, noting how many
// concrete keys it emitted.
func (c *Collector) RecordExpansion(keysEmitted int) {
	if !c.Enabled() {
		return
	}
	c.patternsProcessed.Add(1)
	c.keysEmitted.Add(int64(keysEmitted))
}

// RecordCollision records one detected pattern collision.
func (c *Collector) RecordCollision() {
	if !c.Enabled() {
		return
	}
	c.collisionsDetected.Add(1)
}

// RecordCacheHit records a Query Cache hit.
func (c *Collector) RecordCacheHit() {
	if !c.Enabled() {
		return
	}
	c.cacheHits.Add(1)
}

// RecordCacheMiss records a Query Cache miss (the view function ran, or the
// caller waited on an in-flight run for the same key).
func (c *Collector) RecordCacheMiss() {
	if !c.Enabled() {
		return
	}
	c.cacheMisses.Add(1)
}

// RecordEviction records a Query Cache LRU eviction.
func (c *Collector) RecordEviction() {
	if !c.Enabled() {
		return
	}
	c.cacheEvictions.Add(1)
}

// RecordSingleFlightWait records a caller that joined an already in-flight
// computation instead of triggering its own.
func (c *Collector) RecordSingleFlightWait() {
	if !c.Enabled() {
		return
	}
	c.singleFlightWait.Add(1)
}

// SetCacheEntryCount records the Query Cache's current total entry count
// across all compiled-identity scopes.
func (c *Collector) SetCacheEntryCount(n int64) {
	if !c.Enabled() {
		return
	}
	c.cacheEntries.Store(n)
}

// RecordCompile records the outcome of one InternPass run.
func (c *Collector) RecordCompile(dur time.Duration, originalSize, optimizedSize int) {
	if !c.Enabled() {
		return
	}
	c.compileMu.Lock()
	defer c.compileMu.Unlock()
	c.lastCompile = CompileSnapshot{
		LastDuration:      dur,
		LastOriginalSize:  int64(originalSize),
		LastOptimizedSize: int64(optimizedSize),
	}
}

// Snapshot returns a consistent point-in-time view of all counters. Returns
// the zero Snapshot when the collector is disabled.
func (c *Collector) Snapshot() Snapshot {
	if !c.Enabled() {
		return Snapshot{}
	}
	c.variantMu.Lock()
	byVariant := make(map[string]int64, len(c.byVariant))
	for k, v := range c.byVariant {
		byVariant[k] = v.Load()
	}
	c.variantMu.Unlock()

	c.compileMu.Lock()
	compile := c.lastCompile
	c.compileMu.Unlock()

	return Snapshot{
		Intern: InternSnapshot{
			Requests:        c.internRequests.Load(),
			Hits:            c.internHits.Load(),
			UniqueByVariant: byVariant,
		},
		Expansion: ExpansionSnapshot{
			PatternsProcessed:  c.patternsProcessed.Load(),
			KeysEmitted:        c.keysEmitted.Load(),
			CollisionsDetected: c.collisionsDetected.Load(),
		},
		Cache: CacheSnapshot{
			Hits:              c.cacheHits.Load(),
			Misses:            c.cacheMisses.Load(),
			Evictions:         c.cacheEvictions.Load(),
			SingleFlightWaits: c.singleFlightWait.Load(),
			CurrentEntryCount: c.cacheEntries.Load(),
		},
		Compile: compile,
	}
}
