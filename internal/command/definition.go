// Package command defines the plugin command model and the dispatcher that
// executes invocations against it.
package command

import (
	"context"
	"strings"

	"cbhands/internal/event"
)

// OptionType enumerates the supported option value types.
type OptionType string

const (
	OptionString OptionType = "string"
	OptionInt    OptionType = "int"
	OptionBool   OptionType = "bool"
	// OptionFlag is a presence-only boolean: supplying it means true,
	// omitting it means false.
	OptionFlag OptionType = "flag"
)

// OptionDefinition describes one command option.
type OptionDefinition struct {
	Name        string      `json:"name"`
	Type        OptionType  `json:"type"`
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
	Required    bool        `json:"required"`
}

// Handler executes a command's logic with validated options. A returned
// error (or a panic) is converted by the dispatcher into a failed Result;
// handlers never crash the host process.
type Handler func(ctx *Context, opts Options) (*Result, error)

// Definition describes a command contributed by a plugin.
type Definition struct {
	Name        string             `json:"name"`
	Group       []string           `json:"group,omitempty"`
	Description string             `json:"description"`
	Options     []OptionDefinition `json:"options,omitempty"`
	Handler     Handler            `json:"-"`
}

// Path renders the group path plus command name for display and lookup keys.
func (d *Definition) Path() string {
	if len(d.Group) == 0 {
		return d.Name
	}
	return strings.Join(d.Group, " ") + " " + d.Name
}

// Result is the uniform outcome of a command invocation. Every dispatch
// produces exactly one Result.
type Result struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Err     error                  `json:"-"`
}

// Success creates a successful result with a message.
func Success(message string) *Result {
	return &Result{Success: true, Message: message}
}

// SuccessWithData creates a successful result carrying a structured payload.
func SuccessWithData(message string, data map[string]interface{}) *Result {
	return &Result{Success: true, Message: message, Data: data}
}

// Failure creates a failed result from an error.
func Failure(err error) *Result {
	return &Result{Success: false, Message: err.Error(), Err: err}
}

// Context carries per-invocation state into handlers: the cancellation
// context, the event bus, and the invoking plugin's validated configuration.
type Context struct {
	Ctx          context.Context
	InvocationID string
	Plugin       string
	Events       *event.Bus
	Config       map[string]interface{}
}
