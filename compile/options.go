package compile

import "github.com/aledsdavies/confkernel/pattern"

// Options configures one InternPass run.
type Options struct {
	// MaxDepth bounds raw-tree nesting; exceeding it fails with
	// kernelerr.CodeDepthExceeded rather than overflowing the call stack.
	MaxDepth int
	// WildcardTokens names the path segments the Pattern Expander treats as
	// wildcards, e.g. {"*": true}.
	WildcardTokens pattern.Tokens
	// FormatVersion is stamped into CompiledConfig.Metadata, a semver string
	// for forward-compatible readers.
	FormatVersion string
}
