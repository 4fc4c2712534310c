// Package hierarchy implements the configuration kernel's Hierarchy Index: a
// read-only, deterministic lookup from (context path, wildcard token) to an
// ordered list of concrete names, built once and never mutated.
package hierarchy

import (
	"encoding/json"
	"sort"

	"github.com/aledsdavies/confkernel/kernelerr"
	"github.com/aledsdavies/confkernel/schema"
)

// Entry declares the ordered names a wildcard token expands to at a given
// context path.
type Entry struct {
	// Context is the dot-joined path to the mapping whose keys this entry's
	// names can expand, e.g. "services" or "services.*.backends". The empty
	// string is the root mapping.
	Context string
	// Token is the wildcard token this entry resolves, e.g. "*".
	Token string
	// Names is the ordered, deduplicated list of concrete names the token
	// expands to at Context.
	Names []string
}

// Description is the full, ordered set of hierarchy entries used to build
// an Index.
type Description struct {
	Entries []Entry
}

// Index is an immutable, read-only wildcard expansion table. Once built by
// New or NewFromJSON, it is safe for unsynchronized concurrent reads.
type Index struct {
	byContext map[string]map[string][]string
}

// New builds an Index from a Description. Entry order within a (context,
// token) pair is preserved in the Names slice exactly as given; determinism
// comes from never depending on map iteration order for a single lookup.
func New(desc Description) (*Index, error) {
	idx := &Index{byContext: make(map[string]map[string][]string)}
	for _, e := range desc.Entries {
		if e.Token == "" {
			return nil, kernelerr.New(kernelerr.CodeInvalidInput, "hierarchy entry requires a token")
		}
		byToken, ok := idx.byContext[e.Context]
		if !ok {
			byToken = make(map[string][]string)
			idx.byContext[e.Context] = byToken
		}
		if _, dup := byToken[e.Token]; dup {
			return nil, kernelerr.New(kernelerr.CodeInvalidInput, "duplicate hierarchy entry for context %q token %q", e.Context, e.Token)
		}
		names := make([]string, len(e.Names))
		copy(names, e.Names)
		byToken[e.Token] = names
	}
	return idx, nil
}

// jsonDescription mirrors Description for hosts that source their hierarchy
// from a JSON document rather than building Go structs by hand.
type jsonDescription struct {
	Entries []struct {
		Context string   `json:"context"`
		Token   string   `json:"token"`
		Names   []string `json:"names"`
	} `json:"entries"`
}

// HierarchySchema is the JSON Schema a hierarchy description document must
// satisfy before NewFromJSON trusts its shape.
var HierarchySchema = schema.JSONSchema{
	"type": "object",
	"properties": map[string]any{
		"entries": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"context", "token", "names"},
				"properties": map[string]any{
					"context": map[string]any{"type": "string", "minLength": 1},
					"token":   map[string]any{"type": "string", "minLength": 1},
					"names": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
			},
		},
	},
	"required": []any{"entries"},
}

// NewFromJSON validates data against sch (or HierarchySchema when sch is
// nil) and, if valid, builds an Index from it. When validator is nil the
// schema check is skipped and data is only required to be valid JSON.
func NewFromJSON(data []byte, validator *schema.Validator, sch schema.JSONSchema) (*Index, error) {
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, kernelerr.Wrap(err, kernelerr.CodeInvalidInput, "hierarchy description is not valid JSON")
	}
	if sch == nil {
		sch = HierarchySchema
	}
	if validator != nil {
		if err := validator.Validate(sch, generic); err != nil {
			return nil, kernelerr.Wrap(err, kernelerr.CodeInvalidInput, "hierarchy description failed schema validation")
		}
	}

	var parsed jsonDescription
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, kernelerr.Wrap(err, kernelerr.CodeInvalidInput, "hierarchy description is not valid JSON")
	}
	desc := Description{Entries: make([]Entry, len(parsed.Entries))}
	for i, e := range parsed.Entries {
		desc.Entries[i] = Entry{Context: e.Context, Token: e.Token, Names: e.Names}
	}
	return New(desc)
}

// Expand returns the ordered names token expands to at context, and whether
// such an entry exists.
func (idx *Index) Expand(context, token string) ([]string, bool) {
	byToken, ok := idx.byContext[context]
	if !ok {
		return nil, false
	}
	names, ok := byToken[token]
	return names, ok
}

// Members returns the full, deduplicated set of names declared for context
// across every wildcard token registered there. Tokens are visited in sorted
// token order, not in the order their entries were declared; within one
// token, names keep their declared order.
func (idx *Index) Members(context string) []string {
	byToken, ok := idx.byContext[context]
	if !ok {
		return nil
	}
	tokens := make([]string, 0, len(byToken))
	for tok := range byToken {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	seen := make(map[string]bool)
	var out []string
	for _, tok := range tokens {
		for _, n := range byToken[tok] {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}
