package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbhands/internal/errors"
	"cbhands/internal/event"
)

func TestResolveOrderSortsDependenciesFirst(t *testing.T) {
	dependent := newTestPlugin("monitor", "service_manager")
	dep := newTestPlugin("service_manager")

	// Discovery found the dependent before its dependency.
	ordered, err := ResolveOrder([]Plugin{dependent, dep})
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, "service_manager", ordered[0].Metadata().Name)
	assert.Equal(t, "monitor", ordered[1].Metadata().Name)
}

func TestResolveOrderKeepsDiscoveryOrderForIndependents(t *testing.T) {
	a := newTestPlugin("alpha")
	b := newTestPlugin("beta")
	c := newTestPlugin("gamma")

	ordered, err := ResolveOrder([]Plugin{a, b, c})
	require.NoError(t, err)
	assert.Equal(t, "alpha", ordered[0].Metadata().Name)
	assert.Equal(t, "beta", ordered[1].Metadata().Name)
	assert.Equal(t, "gamma", ordered[2].Metadata().Name)
}

func TestResolveOrderDetectsCycle(t *testing.T) {
	a := newTestPlugin("alpha", "beta")
	b := newTestPlugin("beta", "alpha")
	standalone := newTestPlugin("gamma")

	_, err := ResolveOrder([]Plugin{a, b, standalone})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrDependencyCycle))

	cbErr, ok := err.(*errors.CbhandsError)
	require.True(t, ok)
	assert.Contains(t, cbErr.Details, "alpha")
	assert.Contains(t, cbErr.Details, "beta")
}

func TestResolveOrderIgnoresUnknownDependencies(t *testing.T) {
	// A dependency outside the discovered set does not affect ordering;
	// registration rejects it later.
	p := newTestPlugin("monitor", "not_discovered")

	ordered, err := ResolveOrder([]Plugin{p})
	require.NoError(t, err)
	assert.Len(t, ordered, 1)
}

func TestLoadAllSkipsFailingPlugins(t *testing.T) {
	registry := NewRegistry(event.NewBus())
	loader := NewLoader(registry)

	loader.Add(func() Plugin { return newTestPlugin("alpha") })
	loader.Add(func() Plugin { return newTestPlugin("alpha") }) // duplicate
	loader.Add(func() Plugin { return newTestPlugin("beta") })

	require.NoError(t, loader.LoadAll(nil))

	plugins := registry.ListPlugins()
	require.Len(t, plugins, 2)
	assert.Equal(t, "alpha", plugins[0].Name)
	assert.Equal(t, "beta", plugins[1].Name)
}

func TestLoadAllRegistersInDependencyOrder(t *testing.T) {
	registry := NewRegistry(event.NewBus())
	loader := NewLoader(registry)

	// Contributed out of order; the loader must still register the
	// dependency first so the dependent passes its check.
	loader.Add(func() Plugin { return newTestPlugin("monitor", "service_manager") })
	loader.Add(func() Plugin { return newTestPlugin("service_manager") })

	require.NoError(t, loader.LoadAll(nil))
	assert.Len(t, registry.ListPlugins(), 2)
}

func TestLoadAllPassesPluginConfig(t *testing.T) {
	registry := NewRegistry(event.NewBus())
	loader := NewLoader(registry)
	loader.Add(func() Plugin { return newTestPlugin("alpha") })

	cfg := map[string]interface{}{"log_lines": 25}
	require.NoError(t, loader.LoadAll(func(name string) map[string]interface{} {
		if name == "alpha" {
			return cfg
		}
		return nil
	}))

	reg, ok := registry.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, cfg, reg.Config)
}

func TestLoadAllFailsOnCycle(t *testing.T) {
	registry := NewRegistry(event.NewBus())
	loader := NewLoader(registry)
	loader.Add(func() Plugin { return newTestPlugin("alpha", "beta") })
	loader.Add(func() Plugin { return newTestPlugin("beta", "alpha") })

	err := loader.LoadAll(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrDependencyCycle))
	assert.Empty(t, registry.ListPlugins())
}
