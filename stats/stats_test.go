package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollector_DisabledIsNoOp(t *testing.T) {
	c := New(false)
	c.RecordInternRequest("scalar", false)
	c.RecordCacheHit()
	c.RecordCompile(time.Second, 10, 5)
	assert.Equal(t, Snapshot{}, c.Snapshot())
}

func TestCollector_NilIsNoOp(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordInternRequest("scalar", false)
		c.RecordCacheHit()
		c.RecordCacheMiss()
		c.RecordEviction()
		c.RecordSingleFlightWait()
		c.RecordExpansion(3)
		c.RecordCollision()
		c.SetCacheEntryCount(1)
		c.RecordCompile(time.Second, 1, 1)
	})
	assert.Equal(t, Snapshot{}, c.Snapshot())
}

func TestCollector_EnabledAccumulates(t *testing.T) {
	c := New(true)
	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheMiss()
	c.RecordEviction()
	c.RecordSingleFlightWait()
	c.RecordExpansion(3)
	c.RecordExpansion(2)
	c.RecordCollision()
	c.SetCacheEntryCount(42)
	c.RecordCompile(5*time.Millisecond, 100, 60)

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.Cache.Hits)
	assert.Equal(t, int64(1), snap.Cache.Misses)
	assert.Equal(t, int64(1), snap.Cache.Evictions)
	assert.Equal(t, int64(1), snap.Cache.SingleFlightWaits)
	assert.Equal(t, int64(42), snap.Cache.CurrentEntryCount)
	assert.Equal(t, int64(2), snap.Expansion.PatternsProcessed)
	assert.Equal(t, int64(5), snap.Expansion.KeysEmitted)
	assert.Equal(t, int64(1), snap.Expansion.CollisionsDetected)
	assert.Equal(t, int64(100), snap.Compile.LastOriginalSize)
	assert.Equal(t, int64(60), snap.Compile.LastOptimizedSize)
}
