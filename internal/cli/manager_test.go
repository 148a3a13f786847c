package cli

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbhands/internal/command"
	"cbhands/internal/errors"
	"cbhands/internal/event"
	"cbhands/internal/plugin"
	"cbhands/internal/testutil"
)

func newManager(t *testing.T, plugins ...*testutil.FakePlugin) *Manager {
	t.Helper()
	bus := event.NewBus()
	registry := plugin.NewRegistry(bus)
	for _, p := range plugins {
		require.NoError(t, registry.Register(p, nil))
	}
	return New(registry, command.NewDispatcher(registry, bus))
}

func TestGroupedCommandReachesHandler(t *testing.T) {
	var gotService string
	p := testutil.NewFakePlugin("service_manager").WithCommand(&command.Definition{
		Name:  "start",
		Group: []string{"service"},
		Options: []command.OptionDefinition{
			{Name: "service", Type: command.OptionString, Required: true},
		},
		Handler: func(ctx *command.Context, opts command.Options) (*command.Result, error) {
			gotService = opts.String("service")
			return command.Success("started"), nil
		},
	})

	m := newManager(t, p)
	err := m.ExecuteWithContext(context.Background(), []string{"service", "start", "--service", "dealer"})

	require.NoError(t, err)
	assert.Equal(t, "dealer", gotService)
}

func TestOmittedFlagsUseDeclaredDefaults(t *testing.T) {
	var gotLines int
	var gotFollow bool
	p := testutil.NewFakePlugin("service_manager").WithCommand(&command.Definition{
		Name:  "logs",
		Group: []string{"service"},
		Options: []command.OptionDefinition{
			{Name: "lines", Type: command.OptionInt, Default: 100},
			{Name: "follow", Type: command.OptionFlag},
		},
		Handler: func(ctx *command.Context, opts command.Options) (*command.Result, error) {
			gotLines = opts.Int("lines")
			gotFollow = opts.Bool("follow")
			return command.Success(""), nil
		},
	})

	m := newManager(t, p)
	require.NoError(t, m.ExecuteWithContext(context.Background(), []string{"service", "logs"}))
	assert.Equal(t, 100, gotLines)
	assert.False(t, gotFollow)

	require.NoError(t, m.ExecuteWithContext(context.Background(),
		[]string{"service", "logs", "--lines", "5", "--follow"}))
	assert.Equal(t, 5, gotLines)
	assert.True(t, gotFollow)
}

func TestMissingRequiredFlagFailsWithOptionError(t *testing.T) {
	invoked := 0
	p := testutil.NewFakePlugin("service_manager").WithCommand(&command.Definition{
		Name:  "start",
		Group: []string{"service"},
		Options: []command.OptionDefinition{
			{Name: "service", Type: command.OptionString, Required: true},
		},
		Handler: func(ctx *command.Context, opts command.Options) (*command.Result, error) {
			invoked++
			return command.Success(""), nil
		},
	})

	m := newManager(t, p)
	err := m.ExecuteWithContext(context.Background(), []string{"service", "start"})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrMissingOption))
	assert.Equal(t, 0, invoked)
}

func TestFailedCommandPropagatesError(t *testing.T) {
	p := testutil.NewFakePlugin("service_manager").WithCommand(&command.Definition{
		Name:  "start",
		Group: []string{"service"},
		Handler: func(ctx *command.Context, opts command.Options) (*command.Result, error) {
			return nil, fmt.Errorf("backend unreachable")
		},
	})

	m := newManager(t, p)
	err := m.ExecuteWithContext(context.Background(), []string{"service", "start"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unreachable")
}

func TestTopLevelCommandMountsAtRoot(t *testing.T) {
	invoked := 0
	p := testutil.NewFakePlugin("misc").WithCommand(&command.Definition{
		Name: "ping",
		Handler: func(ctx *command.Context, opts command.Options) (*command.Result, error) {
			invoked++
			return command.Success("pong"), nil
		},
	})

	m := newManager(t, p)
	require.NoError(t, m.ExecuteWithContext(context.Background(), []string{"ping"}))
	assert.Equal(t, 1, invoked)
}

func TestNestedGroupsShareParentCommands(t *testing.T) {
	called := map[string]int{}
	handler := func(name string) command.Handler {
		return func(ctx *command.Context, opts command.Options) (*command.Result, error) {
			called[name]++
			return command.Success(""), nil
		}
	}

	p := testutil.NewFakePlugin("tools").
		WithCommand(&command.Definition{Name: "list", Group: []string{"deck", "cards"}, Handler: handler("list")}).
		WithCommand(&command.Definition{Name: "shuffle", Group: []string{"deck", "cards"}, Handler: handler("shuffle")})

	m := newManager(t, p)
	require.NoError(t, m.ExecuteWithContext(context.Background(), []string{"deck", "cards", "list"}))
	require.NoError(t, m.ExecuteWithContext(context.Background(), []string{"deck", "cards", "shuffle"}))
	assert.Equal(t, 1, called["list"])
	assert.Equal(t, 1, called["shuffle"])
}

func TestPluginListAndInfo(t *testing.T) {
	p := testutil.NewFakePlugin("service_manager").WithCommand(&command.Definition{
		Name:        "start",
		Group:       []string{"service"},
		Description: "Start a service",
		Options: []command.OptionDefinition{
			{Name: "service", Type: command.OptionString, Required: true},
		},
		Handler: testutil.NoopHandler(""),
	})

	m := newManager(t, p)
	require.NoError(t, m.ExecuteWithContext(context.Background(), []string{"plugin", "list"}))
	require.NoError(t, m.ExecuteWithContext(context.Background(), []string{"plugin", "info", "service_manager"}))

	err := m.ExecuteWithContext(context.Background(), []string{"plugin", "info", "nope"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCommandNotFound))
}
