package kernel

import "github.com/aledsdavies/confkernel/pattern"

// Options configures a Kernel. Start from DefaultOptions and override only
// the fields that need to differ. New fills a zero QueryCacheCapacity,
// MaxDepth, WildcardTokens, or FormatVersion with its default, but leaves
// EmitDeprecationSignals as given, so a zero Options emits no deprecation
// signals.
type Options struct {
	// InternTableCapacityHint is an advisory hint for the Intern Table's
	// initial sizing; the table still grows beyond it as needed.
	InternTableCapacityHint int
	// QueryCacheCapacity bounds each compiled-identity scope's LRU entry
	// count.
	QueryCacheCapacity int
	// MaxDepth bounds raw-tree nesting before InternPass fails with
	// kernelerr.CodeDepthExceeded.
	MaxDepth int
	// CollectStatistics opts into the Statistics Collector; when false,
	// every counter update is skipped.
	CollectStatistics bool
	// WildcardTokens names the path segments the Pattern Expander treats as
	// wildcards.
	WildcardTokens []string
	// EmitDeprecationSignals gates calls to OnDeprecation.
	EmitDeprecationSignals bool
	// OnDeprecation, when non-nil and EmitDeprecationSignals is true, is
	// called with a human-readable message whenever a deprecated entry
	// point (Compile, or Query against a raw target) is used.
	OnDeprecation func(message string)
	// FormatVersion is stamped into every CompiledConfig's metadata.
	FormatVersion string
}

// DefaultOptions returns the kernel's documented defaults.
func DefaultOptions() Options {
	return Options{
		QueryCacheCapacity:     1024,
		MaxDepth:               256,
		CollectStatistics:      false,
		WildcardTokens:         []string{"*"},
		EmitDeprecationSignals: true,
		FormatVersion:          "v1.0.0",
	}
}

func (o Options) withDefaults() Options {
	if o.QueryCacheCapacity <= 0 {
		o.QueryCacheCapacity = 1024
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = 256
	}
	if len(o.WildcardTokens) == 0 {
		o.WildcardTokens = []string{"*"}
	}
	if o.FormatVersion == "" {
		o.FormatVersion = "v1.0.0"
	}
	return o
}

func (o Options) wildcardTokenSet() pattern.Tokens {
	set := make(pattern.Tokens, len(o.WildcardTokens))
	for _, t := range o.WildcardTokens {
		set[t] = true
	}
	return set
}
