package kernel

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/confkernel/compile"
	"github.com/aledsdavies/confkernel/hierarchy"
	"github.com/aledsdavies/confkernel/kernelerr"
	"github.com/aledsdavies/confkernel/node"
	"github.com/aledsdavies/confkernel/scalar"
	"github.com/aledsdavies/confkernel/view"
)

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	hier, err := hierarchy.New(hierarchy.Description{})
	require.NoError(t, err)
	k, err := New(hier, DefaultOptions())
	require.NoError(t, err)
	return k
}

func sampleRaw() node.Raw {
	return &node.RawMapping{Entries: []node.RawEntry{
		{Key: "host", Value: node.RawScalar{Value: scalar.String("localhost")}},
		{Key: "port", Value: node.RawScalar{Value: scalar.Int(8080)}},
	}}
}

func portView(calls *int32) view.View {
	return func(cc *compile.CompiledConfig, params view.Params) (view.Result, error) {
		atomic.AddInt32(calls, 1)
		mapping := cc.Root().(*node.Mapping)
		for _, e := range mapping.Entries() {
			if e.Key == "port" {
				v := e.Value.(*node.ScalarNode).Value()
				port, _ := v.IntValue()
				return port, nil
			}
		}
		return nil, nil
	}
}

func TestKernel_PrecompileAndQuery(t *testing.T) {
	k := newTestKernel(t)
	var calls int32
	require.NoError(t, k.RegisterView("port", portView(&calls)))

	cc, err := k.Precompile(sampleRaw())
	require.NoError(t, err)

	result, err := k.Query(context.Background(), "port", view.Params{}, FromCompiled(cc))
	require.NoError(t, err)
	assert.Equal(t, int64(8080), result)

	result2, err := k.Query(context.Background(), "port", view.Params{}, FromCompiled(cc))
	require.NoError(t, err)
	assert.Equal(t, int64(8080), result2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second query must hit the cache")
}

func TestKernel_Query_UnknownView(t *testing.T) {
	k := newTestKernel(t)
	cc, err := k.Precompile(sampleRaw())
	require.NoError(t, err)

	_, err = k.Query(context.Background(), "missing", view.Params{}, FromCompiled(cc))
	require.Error(t, err)
	assert.True(t, kernelerr.HasCode(err, kernelerr.CodeViewNotFound))
}

func TestKernel_Query_RawTargetEmitsDeprecation(t *testing.T) {
	k := newTestKernel(t)
	var calls int32
	require.NoError(t, k.RegisterView("port", portView(&calls)))

	var deprecations []string
	k.opts.OnDeprecation = func(msg string) { deprecations = append(deprecations, msg) }

	_, err := k.Query(context.Background(), "port", view.Params{}, FromRaw(sampleRaw()))
	require.NoError(t, err)
	assert.NotEmpty(t, deprecations)
}

func TestKernel_Compile_IsDeprecatedAliasForPrecompile(t *testing.T) {
	k := newTestKernel(t)
	var deprecations []string
	k.opts.OnDeprecation = func(msg string) { deprecations = append(deprecations, msg) }

	cc, err := k.Compile(sampleRaw())
	require.NoError(t, err)
	assert.NotEmpty(t, cc.Identity())
	assert.NotEmpty(t, deprecations)
}

func TestKernel_ViewErrorWrapped(t *testing.T) {
	k := newTestKernel(t)
	require.NoError(t, k.RegisterView("fails", func(cc *compile.CompiledConfig, params view.Params) (view.Result, error) {
		return nil, assertError{}
	}))
	cc, err := k.Precompile(sampleRaw())
	require.NoError(t, err)

	_, err = k.Query(context.Background(), "fails", view.Params{}, FromCompiled(cc))
	require.Error(t, err)
	assert.True(t, kernelerr.HasCode(err, kernelerr.CodeViewError))
}

type assertError struct{}

func (assertError) Error() string { return "view failed" }

func TestKernel_ConcurrentQueriesSingleFlight(t *testing.T) {
	k := newTestKernel(t)
	var calls int32
	require.NoError(t, k.RegisterView("port", portView(&calls)))
	cc, err := k.Precompile(sampleRaw())
	require.NoError(t, err)

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := k.Query(context.Background(), "port", view.Params{}, FromCompiled(cc))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestKernel_Stats_DisabledByDefault(t *testing.T) {
	k := newTestKernel(t)
	var calls int32
	require.NoError(t, k.RegisterView("port", portView(&calls)))
	cc, err := k.Precompile(sampleRaw())
	require.NoError(t, err)
	_, err = k.Query(context.Background(), "port", view.Params{}, FromCompiled(cc))
	require.NoError(t, err)

	assert.Equal(t, int64(0), k.Stats().Cache.Hits)
}

func TestKernel_Stats_EnabledTracksCache(t *testing.T) {
	hier, err := hierarchy.New(hierarchy.Description{})
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.CollectStatistics = true
	k, err := New(hier, opts)
	require.NoError(t, err)

	var calls int32
	require.NoError(t, k.RegisterView("port", portView(&calls)))
	cc, err := k.Precompile(sampleRaw())
	require.NoError(t, err)

	_, err = k.Query(context.Background(), "port", view.Params{}, FromCompiled(cc))
	require.NoError(t, err)
	_, err = k.Query(context.Background(), "port", view.Params{}, FromCompiled(cc))
	require.NoError(t, err)

	snap := k.Stats()
	assert.Equal(t, int64(1), snap.Cache.Hits)
	assert.Equal(t, int64(1), snap.Cache.Misses)
}
