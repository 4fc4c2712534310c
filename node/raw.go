package node

import "github.com/aledsdavies/confkernel/scalar"

// Raw is a pre-intern configuration tree as supplied by a host: it may
// still contain wildcard pattern keys and duplicate structure, and carries
// no hash. InternPass consumes a Raw tree and produces an interned Node
// tree.
type Raw interface {
	isRaw()
}

// RawScalar is a leaf value awaiting interning.
type RawScalar struct {
	Value scalar.Scalar
}

func (RawScalar) isRaw() {}

// RawEntry is a (key, child) pair of a RawMapping, in declaration order. Key
// may be a concrete key or contain one or more wildcard pattern tokens.
type RawEntry struct {
	Key   string
	Value Raw
}

// RawMapping is an ordered set of (key, child) pairs, not yet deduplicated
// or pattern-expanded.
type RawMapping struct {
	Entries []RawEntry
}

func (*RawMapping) isRaw() {}

// RawSequence is an ordered list of children awaiting interning.
type RawSequence struct {
	Items []Raw
}

func (*RawSequence) isRaw() {}
