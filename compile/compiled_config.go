// Package compile implements InternPass (the recursive interning and
// pattern-expansion traversal) and CompiledConfig, the immutable artifact it
// produces.
package compile

import (
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/aledsdavies/confkernel/hierarchy"
	"github.com/aledsdavies/confkernel/intern"
	"github.com/aledsdavies/confkernel/invariant"
	"github.com/aledsdavies/confkernel/node"
	"github.com/aledsdavies/confkernel/stats"
)

// Metadata carries the non-structural facts about one compile: when it ran,
// a rough size estimate of the source tree, a snapshot of the statistics
// collector's cumulative counters taken when the run finished (the zero
// Snapshot when statistics are disabled), and the format version this
// CompiledConfig was produced under.
type Metadata struct {
	CompiledAt        time.Time
	SourceSizeEstimate int
	FormatVersion     string
	Stats             stats.Snapshot
}

// CompiledConfig is the immutable artifact InternPass produces: an interned
// root node plus an identity token derived from its structural hash, never
// from a process memory address.
type CompiledConfig struct {
	root     node.Node
	identity string
	metadata Metadata
}

// Root returns the compiled tree's root node.
func (c *CompiledConfig) Root() node.Node { return c.root }

// Identity returns a stable, content-derived token: two CompiledConfigs
// built from structurally equal input always share an Identity, and it
// never depends on process memory layout.
func (c *CompiledConfig) Identity() string { return c.identity }

// Metadata returns this compile's descriptive metadata.
func (c *CompiledConfig) Metadata() Metadata { return c.metadata }

// Precompile runs InternPass over raw and wraps the result in an immutable
// CompiledConfig. collector may be nil to disable statistics.
func Precompile(table *intern.Table, hier *hierarchy.Index, raw node.Raw, opts Options, collector *stats.Collector) (*CompiledConfig, error) {
	invariant.NotNil(table, "table")
	invariant.NotNil(hier, "hier")
	invariant.NotNil(raw, "raw")

	start := time.Now()
	root, sourceLen, err := runInternPass(table, hier, raw, opts, collector)
	if err != nil {
		return nil, err
	}
	duration := time.Since(start)

	identity, err := deriveIdentity(root.Hash())
	if err != nil {
		return nil, err
	}

	snapshot := stats.Snapshot{}
	if collector != nil {
		collector.RecordCompile(duration, sourceLen, table.Size())
		snapshot = collector.Snapshot()
	}

	return &CompiledConfig{
		root:     root,
		identity: identity,
		metadata: Metadata{
			CompiledAt:        start,
			SourceSizeEstimate: sourceLen,
			FormatVersion:     opts.FormatVersion,
			Stats:             snapshot,
		},
	}, nil
}

// deriveIdentityInfo namespaces the HKDF derivation so the kernel's
// CompiledConfig identities never collide with unrelated uses of the same
// root-hash-keyed derivation scheme.
const deriveIdentityInfo = "confkernel/compiledconfig/identity/v1"

// deriveIdentity derives a stable identity token from rootHash via HKDF over
// SHA3-256, the same technique the teacher package used to derive
// unlinkable, deterministic IDs from a content digest rather than a process
// address.
func deriveIdentity(rootHash [32]byte) (string, error) {
	kdf := hkdf.New(sha3.New256, rootHash[:], nil, []byte(deriveIdentityInfo))
	key := make([]byte, 32)
	if _, err := kdf.Read(key); err != nil {
		return "", fmt.Errorf("confkernel: failed to derive compiled config identity: %w", err)
	}
	return hex.EncodeToString(key), nil
}
