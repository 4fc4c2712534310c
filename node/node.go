// Package node implements the interned, immutable configuration tree:
// scalar leaves, ordered mappings, and sequences, each carrying a
// precomputed structural hash over canonical CBOR encoding.
package node

import (
	"crypto/sha256"

	"github.com/fxamacker/cbor/v2"

	"github.com/aledsdavies/confkernel/scalar"
)

// Node is an immutable, structurally-hashed element of a compiled
// configuration tree. Every Node is produced by the intern table; two Nodes
// of equal structure are always the same pointer.
type Node interface {
	// Hash returns the precomputed structural hash of this node.
	Hash() [32]byte
	isNode()
}

var canonicalMode, _ = cbor.CanonicalEncOptions().EncMode()

// ScalarNode is a leaf value.
type ScalarNode struct {
	value scalar.Scalar
	hash  [32]byte
}

func (n *ScalarNode) isNode()        {}
func (n *ScalarNode) Hash() [32]byte { return n.hash }
func (n *ScalarNode) Value() scalar.Scalar { return n.value }

// NewScalarNode wraps a scalar and computes its structural hash. Exported so
// the intern table can build the candidate node before checking for an
// existing structurally-equal one; callers outside intern should use
// intern.Table.InternScalar instead of constructing nodes directly.
func NewScalarNode(v scalar.Scalar) *ScalarNode {
	return &ScalarNode{value: v, hash: hashCanonical(canonicalScalar{Tag: tagScalar, Scalar: v.ToCanonical()})}
}

// MappingEntry is a single (key, child) pair of a Mapping, in declaration
// order.
type MappingEntry struct {
	Key   string
	Value Node
}

// Mapping is an ordered set of uniquely-keyed (key, child) pairs.
type Mapping struct {
	entries []MappingEntry
	hash    [32]byte
}

func (n *Mapping) isNode()        {}
func (n *Mapping) Hash() [32]byte { return n.hash }

// Entries returns the mapping's entries in declaration order. The returned
// slice must not be mutated; Mapping is otherwise immutable.
func (n *Mapping) Entries() []MappingEntry { return n.entries }

// NewMapping builds a Mapping node from already-interned children and
// computes its structural hash from the children's own hashes plus the
// ordered key list, so the hash never depends on deep re-traversal.
func NewMapping(entries []MappingEntry) *Mapping {
	keys := make([]string, len(entries))
	childHashes := make([][32]byte, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
		childHashes[i] = e.Value.Hash()
	}
	return &Mapping{
		entries: entries,
		hash:    hashCanonical(canonicalComposite{Tag: tagMapping, Keys: keys, Children: childHashes}),
	}
}

// Sequence is an ordered list of children.
type Sequence struct {
	items []Node
	hash  [32]byte
}

func (n *Sequence) isNode()        {}
func (n *Sequence) Hash() [32]byte { return n.hash }

// Items returns the sequence's elements in order. The returned slice must
// not be mutated.
func (n *Sequence) Items() []Node { return n.items }

// NewSequence builds a Sequence node from already-interned children.
func NewSequence(items []Node) *Sequence {
	childHashes := make([][32]byte, len(items))
	for i, it := range items {
		childHashes[i] = it.Hash()
	}
	return &Sequence{
		items: items,
		hash:  hashCanonical(canonicalComposite{Tag: tagSequence, Children: childHashes}),
	}
}

const (
	tagScalar   = "scalar"
	tagMapping  = "mapping"
	tagSequence = "sequence"
)

// canonicalScalar and canonicalComposite are the flattened forms fed to the
// canonical CBOR encoder; a discriminant tag keeps a scalar, an empty
// mapping, and an empty sequence from ever encoding identically.
type canonicalScalar struct {
	Tag    string           `cbor:"t"`
	Scalar scalar.Canonical `cbor:"v"`
}

type canonicalComposite struct {
	Tag      string     `cbor:"t"`
	Keys     []string   `cbor:"k,omitempty"`
	Children [][32]byte `cbor:"c,omitempty"`
}

func hashCanonical(v any) [32]byte {
	b, err := canonicalMode.Marshal(v)
	if err != nil {
		// Canonical encoding of our own flattened, acyclic structs cannot
		// fail; a failure here is a programming error, not a user error.
		panic("node: canonical encoding failed: " + err.Error())
	}
	return sha256.Sum256(b)
}
