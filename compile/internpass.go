package compile

import (
	"fmt"
	"strconv"

	"github.com/aledsdavies/confkernel/hierarchy"
	"github.com/aledsdavies/confkernel/intern"
	"github.com/aledsdavies/confkernel/kernelerr"
	"github.com/aledsdavies/confkernel/node"
	"github.com/aledsdavies/confkernel/pattern"
	"github.com/aledsdavies/confkernel/stats"
)

// internPass carries the state of a single InternPass run: the intern table
// and hierarchy it compiles against, and the in-progress visiting set used
// to reject reference cycles in the raw input.
type internPass struct {
	table     *intern.Table
	expander  *pattern.Expander
	opts      Options
	stats     *stats.Collector
	visiting  map[node.Raw]bool
	sourceLen int
}

// runInternPass recursively interns raw into a deduplicated, pattern-
// expanded Node tree, depth-first and bottom-up: children are resolved and
// interned before the mapping that holds them applies pattern expansion to
// its own keys, and before the mapping itself is interned.
func runInternPass(table *intern.Table, hier *hierarchy.Index, raw node.Raw, opts Options, collector *stats.Collector) (node.Node, int, error) {
	p := &internPass{
		table:    table,
		expander: pattern.New(hier, opts.WildcardTokens, collector),
		opts:     opts,
		stats:    collector,
		visiting: make(map[node.Raw]bool),
	}
	result, err := p.visit(raw, 0, "")
	if err != nil {
		return nil, 0, err
	}
	return result, p.sourceLen, nil
}

func (p *internPass) visit(raw node.Raw, depth int, context string) (node.Node, error) {
	if depth > p.opts.MaxDepth {
		return nil, kernelerr.New(kernelerr.CodeDepthExceeded, "configuration tree exceeds max depth %d at %q", p.opts.MaxDepth, context)
	}
	p.sourceLen++

	switch v := raw.(type) {
	case node.RawScalar:
		return p.table.InternScalar(v.Value), nil

	case *node.RawMapping:
		if p.visiting[v] {
			return nil, kernelerr.New(kernelerr.CodeCyclicExpansion, "reference cycle detected in raw input at %q", context)
		}
		p.visiting[v] = true
		defer delete(p.visiting, v)

		seenKeys := make(map[string]bool, len(v.Entries))
		resolved := make([]node.RawEntry, 0, len(v.Entries))
		for _, e := range v.Entries {
			if seenKeys[e.Key] {
				return nil, kernelerr.New(kernelerr.CodeInvalidInput, "duplicate raw key %q in mapping at %q", e.Key, context)
			}
			seenKeys[e.Key] = true

			childContext := joinContext(context, e.Key)
			child, err := p.visit(e.Value, depth+1, childContext)
			if err != nil {
				return nil, err
			}
			resolved = append(resolved, node.RawEntry{Key: e.Key, Value: rawWrap(child)})
		}

		expanded, err := p.expander.Expand(context, resolved)
		if err != nil {
			return nil, err
		}

		entries := make([]node.MappingEntry, len(expanded))
		for i, e := range expanded {
			entries[i] = node.MappingEntry{Key: e.Key, Value: e.Value.(alreadyInterned).node}
		}
		return p.table.InternMapping(entries), nil

	case *node.RawSequence:
		if p.visiting[v] {
			return nil, kernelerr.New(kernelerr.CodeCyclicExpansion, "reference cycle detected in raw input at %q", context)
		}
		p.visiting[v] = true
		defer delete(p.visiting, v)

		items := make([]node.Node, len(v.Items))
		for i, it := range v.Items {
			childContext := joinContext(context, strconv.Itoa(i))
			child, err := p.visit(it, depth+1, childContext)
			if err != nil {
				return nil, err
			}
			items[i] = child
		}
		return p.table.InternSequence(items), nil

	default:
		return nil, kernelerr.New(kernelerr.CodeInvalidInput, "unsupported raw node type %T at %q", raw, context)
	}
}

// alreadyInterned wraps an already-interned node.Node so it can travel
// through the pattern.Expander's node.Raw-typed entries without being
// re-visited; the expander only ever rearranges and broadcasts these
// values, it does not recurse into them.
type alreadyInterned struct {
	node node.Node
}

func (alreadyInterned) isRaw() {}

func rawWrap(n node.Node) node.Raw { return alreadyInterned{node: n} }

func joinContext(context, segment string) string {
	if context == "" {
		return segment
	}
	return fmt.Sprintf("%s.%s", context, segment)
}
