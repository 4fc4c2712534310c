// Package kernel is the configuration compilation and query kernel's public
// façade: precompile a raw tree once, then query it through named,
// registered views with an at-most-one-execution-per-key cache guarantee.
package kernel

import (
	"context"
	"runtime"

	"github.com/aledsdavies/confkernel/compile"
	"github.com/aledsdavies/confkernel/hierarchy"
	"github.com/aledsdavies/confkernel/intern"
	"github.com/aledsdavies/confkernel/invariant"
	"github.com/aledsdavies/confkernel/kernelerr"
	"github.com/aledsdavies/confkernel/node"
	"github.com/aledsdavies/confkernel/query"
	"github.com/aledsdavies/confkernel/scalar"
	"github.com/aledsdavies/confkernel/schema"
	"github.com/aledsdavies/confkernel/stats"
	"github.com/aledsdavies/confkernel/view"
)

// Kernel is the configuration kernel's public façade. Build one with New,
// register views with RegisterView, and serve queries with Query.
type Kernel struct {
	hier  *hierarchy.Index
	opts  Options
	table *intern.Table
	stats *stats.Collector

	views     *view.Registry
	cache     *query.Cache
	validator *schema.Validator
}

// New builds a Kernel bound to a fixed Hierarchy Index. h must not be
// mutated afterward; hierarchy.Index has no mutating methods, so this holds
// automatically for any h returned by hierarchy.New or hierarchy.NewFromJSON.
func New(h *hierarchy.Index, opts Options) (*Kernel, error) {
	invariant.NotNil(h, "h")
	opts = opts.withDefaults()

	collector := stats.New(opts.CollectStatistics)
	return &Kernel{
		hier:      h,
		opts:      opts,
		table:     intern.New(collector, opts.InternTableCapacityHint),
		stats:     collector,
		views:     view.NewRegistry(),
		cache:     query.New(opts.QueryCacheCapacity, collector),
		validator: schema.NewValidator(nil),
	}, nil
}

// RegisterView adds a view under name. Errors are kernelerr.CodeDuplicateView
// when name is already bound to a different function.
func (k *Kernel) RegisterView(name string, v view.View) error {
	return k.views.Register(name, v)
}

// RegisterViewWithSchema is like RegisterView, additionally declaring a JSON
// Schema that Params must satisfy before this view runs.
func (k *Kernel) RegisterViewWithSchema(name string, v view.View, paramsSchema schema.JSONSchema) error {
	return k.views.RegisterWithSchema(name, v, paramsSchema)
}

// Precompile runs InternPass over raw and returns an immutable
// CompiledConfig. Its Query Cache scope is acquired here and released once
// the returned CompiledConfig becomes unreachable. Structurally equal raw
// trees compile to CompiledConfigs sharing one Identity and therefore one
// scope; each such CompiledConfig acquires it independently, so the scope
// survives until every one of them has been released, not just the first
// one the garbage collector happens to reach.
func (k *Kernel) Precompile(raw node.Raw) (*compile.CompiledConfig, error) {
	cc, err := compile.Precompile(k.table, k.hier, raw, compile.Options{
		MaxDepth:       k.opts.MaxDepth,
		WildcardTokens: k.opts.wildcardTokenSet(),
		FormatVersion:  k.opts.FormatVersion,
	}, k.stats)
	if err != nil {
		return nil, err
	}

	identity := cc.Identity()
	cache := k.cache
	cache.Acquire(identity)
	runtime.SetFinalizer(cc, func(*compile.CompiledConfig) {
		cache.ReleaseScope(identity)
	})
	return cc, nil
}

// Compile is a deprecated alias for Precompile, kept for hosts migrating
// from an older entry point name. It emits a deprecation signal every call.
func (k *Kernel) Compile(raw node.Raw) (*compile.CompiledConfig, error) {
	k.emitDeprecation("kernel.Compile is deprecated; call Precompile instead")
	return k.Precompile(raw)
}

// Query runs viewName against target, going through the three-level Query
// Cache. Querying with a kernel.FromRaw target compiles the tree first (and
// emits a deprecation signal); prefer precompiling once and reusing the
// CompiledConfig across Query calls.
func (k *Kernel) Query(ctx context.Context, viewName string, params view.Params, target Target) (view.Result, error) {
	invariant.NotNil(ctx, "ctx")

	v, paramsSchema, ok := k.views.Get(viewName)
	if !ok {
		return nil, kernelerr.New(kernelerr.CodeViewNotFound, "view %q is not registered", viewName)
	}
	if paramsSchema != nil {
		if err := k.validator.Validate(paramsSchema, paramsToGeneric(params)); err != nil {
			return nil, kernelerr.Wrap(err, kernelerr.CodeInvalidInput, "params failed schema validation for view %q", viewName)
		}
	}

	cc := target.compiled
	if cc == nil {
		k.emitDeprecation("kernel.Query called against a raw target; precompile once and query the CompiledConfig instead")
		var err error
		cc, err = k.Precompile(target.raw)
		if err != nil {
			return nil, err
		}
	}

	result, err := k.cache.Get(ctx, cc.Identity(), viewName, params, func() (view.Result, error) {
		r, verr := v(cc, params)
		if verr != nil {
			return nil, kernelerr.Wrap(verr, kernelerr.CodeViewError, "view %q failed", viewName)
		}
		return r, nil
	})
	return result, err
}

// Stats returns a point-in-time snapshot of kernel-wide activity counters.
// The snapshot is the zero Snapshot when Options.CollectStatistics is
// false.
func (k *Kernel) Stats() stats.Snapshot {
	return k.stats.Snapshot()
}

func (k *Kernel) emitDeprecation(message string) {
	if k.opts.EmitDeprecationSignals && k.opts.OnDeprecation != nil {
		k.opts.OnDeprecation(message)
	}
}

func paramsToGeneric(p view.Params) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		switch v.Kind() {
		case scalar.KindString:
			out[k], _ = v.StringValue()
		case scalar.KindInt:
			out[k], _ = v.IntValue()
		case scalar.KindFloat:
			out[k], _ = v.FloatValue()
		case scalar.KindBool:
			out[k], _ = v.BoolValue()
		default:
			out[k] = nil
		}
	}
	return out
}
