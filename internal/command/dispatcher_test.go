package command

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbhands/internal/errors"
	"cbhands/internal/event"
)

// mapResolver resolves invocations against a fixed definition set.
type mapResolver struct {
	defs map[string]*Definition
}

func (r *mapResolver) Resolve(inv Invocation) (*Resolved, error) {
	key := inv.Command
	for i := len(inv.Group) - 1; i >= 0; i-- {
		key = inv.Group[i] + "/" + key
	}
	def, ok := r.defs[key]
	if !ok {
		return nil, errors.CommandNotFound(key)
	}
	return &Resolved{Plugin: "test_plugin", Definition: def, Config: nil}, nil
}

func newDispatcher(defs ...*Definition) *Dispatcher {
	resolver := &mapResolver{defs: make(map[string]*Definition)}
	for _, def := range defs {
		key := def.Name
		for i := len(def.Group) - 1; i >= 0; i-- {
			key = def.Group[i] + "/" + key
		}
		resolver.defs[key] = def
	}
	return NewDispatcher(resolver, event.NewBus())
}

func TestExecuteRunsHandlerWithCoercedOptions(t *testing.T) {
	var seen Options
	def := &Definition{
		Name:  "start",
		Group: []string{"service"},
		Options: []OptionDefinition{
			{Name: "service", Type: OptionString, Required: true},
			{Name: "verbose", Type: OptionFlag},
		},
		Handler: func(ctx *Context, opts Options) (*Result, error) {
			seen = opts
			return Success("started " + opts.String("service")), nil
		},
	}

	d := newDispatcher(def)
	result := d.Execute(context.Background(), Invocation{
		Group:   []string{"service"},
		Command: "start",
		Options: map[string]string{"service": "dealer"},
	})

	require.True(t, result.Success)
	assert.Equal(t, "started dealer", result.Message)
	assert.Equal(t, "dealer", seen.String("service"))
	assert.False(t, seen.Bool("verbose"))
}

func TestExecuteUnknownCommand(t *testing.T) {
	d := newDispatcher()

	result := d.Execute(context.Background(), Invocation{Command: "nope"})

	require.False(t, result.Success)
	assert.True(t, errors.HasCode(result.Err, errors.ErrCommandNotFound))
}

func TestExecuteMissingOptionNeverInvokesHandler(t *testing.T) {
	invoked := 0
	def := &Definition{
		Name: "start",
		Options: []OptionDefinition{
			{Name: "service", Type: OptionString, Required: true},
		},
		Handler: func(ctx *Context, opts Options) (*Result, error) {
			invoked++
			return Success(""), nil
		},
	}

	d := newDispatcher(def)
	result := d.Execute(context.Background(), Invocation{Command: "start"})

	require.False(t, result.Success)
	assert.True(t, errors.HasCode(result.Err, errors.ErrMissingOption))
	assert.Equal(t, 0, invoked)
}

func TestExecuteUnknownOption(t *testing.T) {
	def := &Definition{
		Name:    "status",
		Handler: func(*Context, Options) (*Result, error) { return Success(""), nil },
	}

	d := newDispatcher(def)
	result := d.Execute(context.Background(), Invocation{
		Command: "status",
		Options: map[string]string{"bogus": "1"},
	})

	require.False(t, result.Success)
	assert.True(t, errors.HasCode(result.Err, errors.ErrUnknownOption))
}

func TestExecuteHandlerErrorBecomesFailedResult(t *testing.T) {
	def := &Definition{
		Name: "start",
		Handler: func(*Context, Options) (*Result, error) {
			return nil, fmt.Errorf("backend unreachable")
		},
	}

	d := newDispatcher(def)
	result := d.Execute(context.Background(), Invocation{Command: "start"})

	require.False(t, result.Success)
	assert.Contains(t, result.Message, "backend unreachable")
}

func TestExecuteHandlerPanicBecomesFailedResult(t *testing.T) {
	def := &Definition{
		Name: "explode",
		Handler: func(*Context, Options) (*Result, error) {
			panic("boom")
		},
	}

	d := newDispatcher(def)
	result := d.Execute(context.Background(), Invocation{Command: "explode"})

	require.False(t, result.Success)
	assert.Contains(t, result.Message, "boom")
}

func TestExecuteNilResultBecomesSuccess(t *testing.T) {
	def := &Definition{
		Name: "quiet",
		Handler: func(*Context, Options) (*Result, error) {
			return nil, nil
		},
	}

	d := newDispatcher(def)
	result := d.Execute(context.Background(), Invocation{Command: "quiet"})
	assert.True(t, result.Success)
}

func TestBeforeMiddlewareCanAbort(t *testing.T) {
	invoked := 0
	def := &Definition{
		Name: "start",
		Handler: func(*Context, Options) (*Result, error) {
			invoked++
			return Success(""), nil
		},
	}

	d := newDispatcher(def)
	d.Before(func(ctx *Context, def *Definition, opts Options) *Result {
		return Failure(fmt.Errorf("blocked by policy"))
	})

	result := d.Execute(context.Background(), Invocation{Command: "start"})

	require.False(t, result.Success)
	assert.Contains(t, result.Message, "blocked by policy")
	assert.Equal(t, 0, invoked)
}

func TestAfterMiddlewareCanReplaceResult(t *testing.T) {
	def := &Definition{
		Name: "start",
		Handler: func(*Context, Options) (*Result, error) {
			return Success("original"), nil
		},
	}

	d := newDispatcher(def)
	d.After(func(ctx *Context, def *Definition, opts Options, result *Result) *Result {
		return Success("replaced")
	})

	result := d.Execute(context.Background(), Invocation{Command: "start"})

	require.True(t, result.Success)
	assert.Equal(t, "replaced", result.Message)
}

func TestMiddlewarePanicIsContained(t *testing.T) {
	def := &Definition{
		Name: "start",
		Handler: func(*Context, Options) (*Result, error) {
			return Success("ok"), nil
		},
	}

	d := newDispatcher(def)
	d.Before(func(*Context, *Definition, Options) *Result { panic("before broke") })
	d.After(func(*Context, *Definition, Options, *Result) *Result { panic("after broke") })

	result := d.Execute(context.Background(), Invocation{Command: "start"})

	require.True(t, result.Success)
	assert.Equal(t, "ok", result.Message)
}

func TestTimingMiddlewareAttachesDuration(t *testing.T) {
	def := &Definition{
		Name: "start",
		Handler: func(*Context, Options) (*Result, error) {
			return Success("done"), nil
		},
	}

	d := newDispatcher(def)
	before, after := TimingMiddleware()
	d.Before(before)
	d.After(after)

	result := d.Execute(context.Background(), Invocation{Command: "start"})

	require.True(t, result.Success)
	require.NotNil(t, result.Data)
	assert.Contains(t, result.Data, "execution_time")
}

func TestContextCarriesInvocationIdentity(t *testing.T) {
	var got *Context
	def := &Definition{
		Name: "whoami",
		Handler: func(ctx *Context, opts Options) (*Result, error) {
			got = ctx
			return Success(""), nil
		},
	}

	d := newDispatcher(def)
	d.Execute(context.Background(), Invocation{Command: "whoami"})

	require.NotNil(t, got)
	assert.NotEmpty(t, got.InvocationID)
	assert.Equal(t, "test_plugin", got.Plugin)
	assert.NotNil(t, got.Events)
}
