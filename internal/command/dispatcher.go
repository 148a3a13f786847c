package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cbhands/internal/event"
	"cbhands/internal/logger"
)

// Invocation identifies the command a CLI call resolved to, plus its raw
// option values as supplied on the command line.
type Invocation struct {
	Plugin  string
	Group   []string
	Command string
	Options map[string]string
}

// Resolved is what a Resolver returns for an invocation: the matched
// definition plus the owning plugin's name and validated configuration.
type Resolved struct {
	Plugin     string
	Definition *Definition
	Config     map[string]interface{}
}

// Resolver looks an invocation up in the plugin registry.
type Resolver interface {
	Resolve(inv Invocation) (*Resolved, error)
}

// BeforeFunc runs before the handler. Returning a non-nil Result aborts the
// invocation and yields that result without running the handler.
type BeforeFunc func(ctx *Context, def *Definition, opts Options) *Result

// AfterFunc runs after the handler and may replace the result by returning a
// non-nil one. Errors inside after middleware are logged, never propagated.
type AfterFunc func(ctx *Context, def *Definition, opts Options, result *Result) *Result

// Dispatcher resolves invocations to handlers and runs them inside the
// registered middleware chain. It always produces exactly one Result and
// never lets a handler error escape.
type Dispatcher struct {
	resolver Resolver
	events   *event.Bus
	before   []BeforeFunc
	after    []AfterFunc
}

// NewDispatcher creates a dispatcher over a resolver and event bus.
func NewDispatcher(resolver Resolver, events *event.Bus) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		events:   events,
	}
}

// Before appends a before-middleware. Middleware run in registration order.
func (d *Dispatcher) Before(fn BeforeFunc) {
	d.before = append(d.before, fn)
}

// After appends an after-middleware. Middleware run in registration order.
func (d *Dispatcher) After(fn AfterFunc) {
	d.after = append(d.after, fn)
}

// Execute runs an invocation to completion and returns its Result. The call
// blocks until the handler is done; there is no partial-result contract.
func (d *Dispatcher) Execute(ctx context.Context, inv Invocation) *Result {
	resolved, err := d.resolver.Resolve(inv)
	if err != nil {
		return Failure(err)
	}
	def := resolved.Definition

	opts, err := ValidateOptions(def, inv.Options)
	if err != nil {
		return Failure(err)
	}

	cmdCtx := &Context{
		Ctx:          ctx,
		InvocationID: uuid.NewString(),
		Plugin:       resolved.Plugin,
		Events:       d.events,
		Config:       resolved.Config,
	}

	log := logger.WithFields(logger.Fields{
		"invocation": cmdCtx.InvocationID,
		"plugin":     resolved.Plugin,
		"command":    def.Path(),
	})
	log.Debug("Dispatching command")

	for _, fn := range d.before {
		if result := d.runBefore(fn, cmdCtx, def, opts); result != nil {
			log.WithField("aborted", true).Debug("Before middleware short-circuited")
			return result
		}
	}

	result := d.invoke(cmdCtx, def, opts)

	for _, fn := range d.after {
		if replaced := d.runAfter(fn, cmdCtx, def, opts, result); replaced != nil {
			result = replaced
		}
	}

	return result
}

// invoke runs the handler under panic capture so a faulty plugin cannot
// crash the process.
func (d *Dispatcher) invoke(ctx *Context, def *Definition, opts Options) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logger.Fields{
				"command": def.Path(),
				"panic":   r,
			}).Error("Command handler panicked")
			result = Failure(fmt.Errorf("command %s failed: %v", def.Path(), r))
		}
	}()

	res, err := def.Handler(ctx, opts)
	if err != nil {
		return Failure(err)
	}
	if res == nil {
		return Success("")
	}
	return res
}

func (d *Dispatcher) runBefore(fn BeforeFunc, ctx *Context, def *Definition, opts Options) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logger.Fields{
				"command": def.Path(),
				"panic":   r,
			}).Warn("Before middleware panicked")
			result = nil
		}
	}()
	return fn(ctx, def, opts)
}

func (d *Dispatcher) runAfter(fn AfterFunc, ctx *Context, def *Definition, opts Options, in *Result) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logger.Fields{
				"command": def.Path(),
				"panic":   r,
			}).Warn("After middleware panicked")
			result = nil
		}
	}()
	return fn(ctx, def, opts, in)
}
