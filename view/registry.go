// Package view implements the configuration kernel's View Registry: a
// name-addressed table of pure functions from a CompiledConfig and
// parameters to a query result.
package view

import (
	"reflect"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/aledsdavies/confkernel/compile"
	"github.com/aledsdavies/confkernel/kernelerr"
	"github.com/aledsdavies/confkernel/scalar"
	"github.com/aledsdavies/confkernel/schema"
)

var canonicalMode, _ = cbor.CanonicalEncOptions().EncMode()

// Result is the value a View produces. Views decide their own concrete
// result shape; the kernel treats it opaquely.
type Result any

// Params is a string-keyed mapping of scalar values passed to a View at
// query time. As a Go map it carries no key order; Fingerprint sorts keys.
type Params map[string]scalar.Scalar

// Fingerprint returns a deterministic string identifying this parameter set,
// independent of Go map iteration order: keys are sorted before folding them
// into the fingerprint, so two Params built in different insertion orders
// but with the same key/value pairs always fingerprint identically.
func (p Params) Fingerprint() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b []byte
	for _, k := range keys {
		b = append(b, k...)
		b = append(b, '=')
		c := p[k].ToCanonical()
		b = appendCanonical(b, c)
		b = append(b, ';')
	}
	return string(b)
}

// appendCanonical folds the whole Canonical representation (kind, bool, int,
// float bits, and string) into the fingerprint via the same canonical CBOR
// encoding the node package hashes with, so two values differing only in
// Bool, Int, or FloatBits never collide.
func appendCanonical(b []byte, c scalar.Canonical) []byte {
	enc, err := canonicalMode.Marshal(c)
	if err != nil {
		// Canonical encoding of a flattened, acyclic scalar cannot fail.
		panic("view: canonical encoding failed: " + err.Error())
	}
	return append(b, enc...)
}

// View is a pure function from a compiled configuration and parameters to a
// result. Views must not mutate the CompiledConfig or Params they receive,
// and must return the same Result for the same (CompiledConfig identity,
// params) pair every time they're called — the Query Cache's single-flight
// and memoization guarantees depend on that purity.
type View func(cc *compile.CompiledConfig, params Params) (Result, error)

type registeredView struct {
	fn     View
	schema schema.JSONSchema
}

// Registry is a concurrency-safe name -> View table.
type Registry struct {
	mu    sync.RWMutex
	views map[string]registeredView
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string]registeredView)}
}

// Register adds a view under name. Re-registering the same name with the
// same function is a no-op; re-registering with a different function fails
// with kernelerr.CodeDuplicateView (the name is already taken by a different
// view).
func (r *Registry) Register(name string, fn View) error {
	return r.register(name, fn, nil)
}

// RegisterWithSchema is like Register, additionally declaring a JSON Schema
// that Params must satisfy before this view runs.
func (r *Registry) RegisterWithSchema(name string, fn View, paramsSchema schema.JSONSchema) error {
	return r.register(name, fn, paramsSchema)
}

func (r *Registry) register(name string, fn View, paramsSchema schema.JSONSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.views[name]; ok {
		if reflect.ValueOf(existing.fn).Pointer() == reflect.ValueOf(fn).Pointer() {
			return nil
		}
		return kernelerr.New(kernelerr.CodeDuplicateView, "view %q already registered with a different function", name)
	}
	r.views[name] = registeredView{fn: fn, schema: paramsSchema}
	return nil
}

// Get returns the named view's function and declared params schema (nil if
// none was declared), and whether name is registered.
func (r *Registry) Get(name string) (View, schema.JSONSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rv, ok := r.views[name]
	if !ok {
		return nil, nil, false
	}
	return rv.fn, rv.schema, true
}
