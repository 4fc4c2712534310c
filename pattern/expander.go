// Package pattern implements the configuration kernel's Pattern Expander:
// wildcard leaf-key expansion against a Hierarchy Index, with concrete-key
// override precedence and collision detection.
package pattern

import (
	"strings"

	"github.com/aledsdavies/confkernel/hierarchy"
	"github.com/aledsdavies/confkernel/kernelerr"
	"github.com/aledsdavies/confkernel/node"
	"github.com/aledsdavies/confkernel/stats"
)

// Tokens is the set of wildcard tokens the expander recognizes as a whole
// path segment (matched against an entire "."-delimited segment, never a
// substring of one).
type Tokens map[string]bool

// IsPatternKey reports whether key contains at least one segment that is a
// configured wildcard token.
func IsPatternKey(key string, tokens Tokens) bool {
	for _, seg := range strings.Split(key, ".") {
		if tokens[seg] {
			return true
		}
	}
	return false
}

// Expander expands wildcard leaf keys within a single mapping's entries
// against a Hierarchy Index.
type Expander struct {
	hier   *hierarchy.Index
	tokens Tokens
	stats  *stats.Collector
}

// New builds an Expander bound to hier and the given wildcard tokens.
// collector may be nil.
func New(hier *hierarchy.Index, tokens Tokens, collector *stats.Collector) *Expander {
	return &Expander{hier: hier, tokens: tokens, stats: collector}
}

// Expand resolves every pattern key in entries against context, broadcasting
// each pattern's value to every name it resolves to. A concrete key
// explicitly present in entries always wins over a pattern-produced entry
// for the same concrete key, and that concrete key keeps the position its
// name occupies within the pattern's hierarchy-ordered expansion (not its
// own textual declaration position), per the worked examples this package
// was grounded on; when several patterns expand to the same overridden key,
// it is emitted once, at the first such pattern's position. Every other
// concrete key keeps its declaration position, and each pattern's expansions
// are emitted at that pattern's own declaration position. Two distinct
// pattern keys that would both emit an un-overridden entry for the same
// concrete key fail with kernelerr.CodePatternCollision.
func (ex *Expander) Expand(context string, entries []node.RawEntry) ([]node.RawEntry, error) {
	isPattern := make([]bool, len(entries))
	concreteValue := make(map[string]node.Raw, len(entries))
	for i, e := range entries {
		if IsPatternKey(e.Key, ex.tokens) {
			isPattern[i] = true
			continue
		}
		if _, dup := concreteValue[e.Key]; dup {
			return nil, kernelerr.New(kernelerr.CodeInvalidInput, "duplicate concrete key %q in mapping at %q", e.Key, context)
		}
		concreteValue[e.Key] = e.Value
	}

	consumed := make(map[string]bool, len(entries))
	combosAt := make([][]string, len(entries))
	for i, e := range entries {
		if !isPattern[i] {
			continue
		}
		combos, err := ex.combinations(context, e.Key)
		if err != nil {
			return nil, err
		}
		combosAt[i] = combos
		for _, concreteKey := range combos {
			if _, ok := concreteValue[concreteKey]; ok {
				consumed[concreteKey] = true
			}
		}
	}

	producedBy := make(map[string]string, len(entries))
	out := make([]node.RawEntry, 0, len(entries))

	for i, e := range entries {
		if !isPattern[i] {
			if !consumed[e.Key] {
				out = append(out, e)
			}
			continue
		}
		emitted := 0
		for _, concreteKey := range combosAt[i] {
			value := e.Value
			if override, ok := concreteValue[concreteKey]; ok {
				if _, seen := producedBy[concreteKey]; seen {
					continue
				}
				value = override
			} else if existing, seen := producedBy[concreteKey]; seen && existing != e.Key {
				if ex.stats != nil {
					ex.stats.RecordCollision()
				}
				return nil, kernelerr.New(kernelerr.CodePatternCollision,
					"pattern keys %q and %q both expand to concrete key %q", existing, e.Key, concreteKey)
			}
			producedBy[concreteKey] = e.Key
			out = append(out, node.RawEntry{Key: concreteKey, Value: value})
			emitted++
		}
		if ex.stats != nil {
			ex.stats.RecordExpansion(emitted)
		}
	}

	return out, nil
}

// combinations returns, in hierarchy order, every concrete key the pattern
// key expands to at context: the Cartesian product of each wildcard
// segment's expansion, with literal segments passed through unchanged.
func (ex *Expander) combinations(context, key string) ([]string, error) {
	segments := strings.Split(key, ".")
	perPosition := make([][]string, len(segments))
	for i, seg := range segments {
		if !ex.tokens[seg] {
			perPosition[i] = []string{seg}
			continue
		}
		names, ok := ex.hier.Expand(context, seg)
		if !ok {
			return nil, kernelerr.New(kernelerr.CodeUnknownWildcardContext,
				"no hierarchy entry for context %q token %q (from key %q)", context, seg, key)
		}
		if len(names) == 0 {
			return nil, kernelerr.New(kernelerr.CodeUnknownWildcardContext,
				"hierarchy entry for context %q token %q is empty (from key %q)", context, seg, key)
		}
		perPosition[i] = names
	}

	var combos []string
	var build func(pos int, prefix []string)
	build = func(pos int, prefix []string) {
		if pos == len(perPosition) {
			combos = append(combos, strings.Join(prefix, "."))
			return
		}
		for _, name := range perPosition[pos] {
			next := make([]string, len(prefix), len(prefix)+1)
			copy(next, prefix)
			build(pos+1, append(next, name))
		}
	}
	build(0, nil)
	return combos, nil
}
