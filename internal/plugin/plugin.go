// Package plugin defines the plugin capability contract, the registry that
// owns loaded plugins, and the loader that discovers and orders them.
package plugin

import (
	"cbhands/internal/command"
	"cbhands/internal/event"
)

// Metadata identifies a plugin. Name is the unique key across the registry.
type Metadata struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Plugin is the capability contract every plugin satisfies. Any type
// providing metadata and commands qualifies; the registry depends on nothing
// beyond this interface.
type Plugin interface {
	Metadata() Metadata
	Commands() []*command.Definition
}

// ConfigValidator is an optional capability for plugins that accept
// configuration. ValidateConfig returns human-readable problems; an empty
// slice means the configuration is valid.
type ConfigValidator interface {
	ConfigSchema() map[string]interface{}
	ValidateConfig(cfg map[string]interface{}) []string
}

// Activator is an optional capability for plugins that attach to the event
// bus. Activate runs only after the plugin registered successfully, so a
// rejected plugin never observes events; Deactivate runs on unregister.
type Activator interface {
	Activate(bus *event.Bus)
	Deactivate(bus *event.Bus)
}
