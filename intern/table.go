// Package intern implements the configuration kernel's Intern Table: a
// concurrent structural-deduplication store. Structurally equal scalars,
// mappings, and sequences always resolve to the same *node.Node pointer,
// making Go pointer equality a valid, cheap proxy for deep structural
// equality everywhere downstream.
package intern

import (
	"sync"

	"github.com/aledsdavies/confkernel/node"
	"github.com/aledsdavies/confkernel/scalar"
	"github.com/aledsdavies/confkernel/stats"
)

const shardCount = 64

// Table is a process-local structural deduplication store. The zero value
// is not usable; construct with New.
type Table struct {
	shards [shardCount]*shard
	stats  *stats.Collector
}

type shard struct {
	mu        sync.RWMutex
	scalars   map[[32]byte]*node.ScalarNode
	mappings  map[[32]byte]*node.Mapping
	sequences map[[32]byte]*node.Sequence
}

// New builds an empty Intern Table. collector may be nil, in which case no
// statistics are recorded. capacityHint, if positive, presizes each shard's
// maps to capacityHint/shardCount entries per variant; it is advisory only —
// the table still grows beyond it as needed.
func New(collector *stats.Collector, capacityHint int) *Table {
	perShard := 0
	if capacityHint > 0 {
		perShard = capacityHint / shardCount
	}
	t := &Table{stats: collector}
	for i := range t.shards {
		t.shards[i] = &shard{
			scalars:   make(map[[32]byte]*node.ScalarNode, perShard),
			mappings:  make(map[[32]byte]*node.Mapping, perShard),
			sequences: make(map[[32]byte]*node.Sequence, perShard),
		}
	}
	return t
}

func (t *Table) shardFor(hash [32]byte) *shard {
	return t.shards[hash[0]%shardCount]
}

// InternScalar returns the canonical *node.ScalarNode for v, creating one if
// this is the first time this structural value has been seen. NaN-valued
// scalars are never deduplicated: each occurrence is distinct by
// construction (see scalar.Float), so it is always inserted fresh.
func (t *Table) InternScalar(v scalar.Scalar) *node.ScalarNode {
	candidate := node.NewScalarNode(v)
	if v.IsNaN() {
		t.record("scalar", false)
		return candidate
	}
	h := candidate.Hash()
	s := t.shardFor(h)

	s.mu.RLock()
	if existing, ok := s.scalars[h]; ok {
		s.mu.RUnlock()
		t.record("scalar", true)
		return existing
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.scalars[h]; ok {
		t.record("scalar", true)
		return existing
	}
	s.scalars[h] = candidate
	t.record("scalar", false)
	return candidate
}

// InternMapping returns the canonical *node.Mapping for the given entries.
// Entries must already hold interned children.
func (t *Table) InternMapping(entries []node.MappingEntry) *node.Mapping {
	candidate := node.NewMapping(entries)
	h := candidate.Hash()
	s := t.shardFor(h)

	s.mu.RLock()
	if existing, ok := s.mappings[h]; ok {
		s.mu.RUnlock()
		t.record("mapping", true)
		return existing
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.mappings[h]; ok {
		t.record("mapping", true)
		return existing
	}
	s.mappings[h] = candidate
	t.record("mapping", false)
	return candidate
}

// InternSequence returns the canonical *node.Sequence for the given items.
// Items must already hold interned children.
func (t *Table) InternSequence(items []node.Node) *node.Sequence {
	candidate := node.NewSequence(items)
	h := candidate.Hash()
	s := t.shardFor(h)

	s.mu.RLock()
	if existing, ok := s.sequences[h]; ok {
		s.mu.RUnlock()
		t.record("sequence", true)
		return existing
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sequences[h]; ok {
		t.record("sequence", true)
		return existing
	}
	s.sequences[h] = candidate
	t.record("sequence", false)
	return candidate
}

func (t *Table) record(variant string, hit bool) {
	if t.stats == nil {
		return
	}
	t.stats.RecordInternRequest(variant, hit)
}

// Size returns the total number of distinct nodes currently held, across all
// variants. Intended for diagnostics and tests, not the hot path.
func (t *Table) Size() int {
	n := 0
	for _, s := range t.shards {
		s.mu.RLock()
		n += len(s.scalars) + len(s.mappings) + len(s.sequences)
		s.mu.RUnlock()
	}
	return n
}
