// Package testutil provides test fixtures shared across packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"cbhands/internal/command"
	"cbhands/internal/plugin"
)

// FakePlugin is a configurable plugin implementation for registry, loader,
// and dispatcher tests.
type FakePlugin struct {
	Meta         plugin.Metadata
	CommandDefs  []*command.Definition
	ConfigErrors []string
}

// NewFakePlugin creates a fake plugin with the given name and dependencies.
func NewFakePlugin(name string, deps ...string) *FakePlugin {
	return &FakePlugin{
		Meta: plugin.Metadata{
			Name:         name,
			Version:      "0.0.1",
			Description:  "test plugin " + name,
			Dependencies: deps,
		},
	}
}

// WithCommand adds a command definition and returns the plugin for chaining.
func (p *FakePlugin) WithCommand(def *command.Definition) *FakePlugin {
	p.CommandDefs = append(p.CommandDefs, def)
	return p
}

// Metadata implements plugin.Plugin.
func (p *FakePlugin) Metadata() plugin.Metadata {
	return p.Meta
}

// Commands implements plugin.Plugin.
func (p *FakePlugin) Commands() []*command.Definition {
	return p.CommandDefs
}

// ConfigSchema implements plugin.ConfigValidator.
func (p *FakePlugin) ConfigSchema() map[string]interface{} {
	return map[string]interface{}{}
}

// ValidateConfig implements plugin.ConfigValidator. It reports the problems
// configured on the fake, regardless of input.
func (p *FakePlugin) ValidateConfig(cfg map[string]interface{}) []string {
	return p.ConfigErrors
}

// NoopHandler returns a handler that succeeds with the given message.
func NoopHandler(message string) command.Handler {
	return func(ctx *command.Context, opts command.Options) (*command.Result, error) {
		return command.Success(message), nil
	}
}

// WriteFile writes contents under dir, creating parents, and fails the test
// on error.
func WriteFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}
