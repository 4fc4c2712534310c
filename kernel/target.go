package kernel

import (
	"github.com/aledsdavies/confkernel/compile"
	"github.com/aledsdavies/confkernel/node"
)

// Target selects what a Query runs against: an already-compiled config
// (the fast, intended path) or a raw tree that the kernel compiles on the
// caller's behalf (the legacy path, which emits a deprecation signal). This
// tagged union replaces using an error return, or a type switch on an
// interface{}, to distinguish the two cases.
type Target struct {
	compiled *compile.CompiledConfig
	raw      node.Raw
}

// FromCompiled targets an already-compiled configuration.
func FromCompiled(cc *compile.CompiledConfig) Target {
	return Target{compiled: cc}
}

// FromRaw targets a raw configuration tree, compiled on demand. Prefer
// Precompile once and FromCompiled for any view queried more than once;
// this path amortizes nothing across calls.
func FromRaw(raw node.Raw) Target {
	return Target{raw: raw}
}
