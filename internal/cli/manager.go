// Package cli projects the commands registered by plugins into a cobra
// command tree. The tree is rebuilt on every process start from whatever
// the registry holds, so adding a plugin never touches this package.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"cbhands/internal/command"
	"cbhands/internal/plugin"
)

// Manager handles CLI operations
type Manager struct {
	registry   *plugin.Registry
	dispatcher *command.Dispatcher
	rootCmd    *cobra.Command
}

// New creates a new CLI manager over a populated registry.
func New(registry *plugin.Registry, dispatcher *command.Dispatcher) *Manager {
	m := &Manager{
		registry:   registry,
		dispatcher: dispatcher,
	}

	m.rootCmd = createRootCommand()
	m.setupCommands()

	return m
}

// Execute executes the CLI with the given arguments
func (m *Manager) Execute(args []string) error {
	return m.ExecuteWithContext(context.Background(), args)
}

// ExecuteWithContext executes the CLI with the given arguments and context
func (m *Manager) ExecuteWithContext(ctx context.Context, args []string) error {
	m.rootCmd.SetArgs(args)
	return m.rootCmd.ExecuteContext(ctx)
}

// setupCommands mounts every registered command under its group path and
// adds the built-in plugin inspection commands.
func (m *Manager) setupCommands() {
	groups := make(map[string]*cobra.Command)

	for _, def := range m.registry.ListCommands() {
		parent := m.rootCmd
		for i := range def.Group {
			parent = m.groupCommand(groups, def.Group[:i+1], parent)
		}
		parent.AddCommand(m.mountCommand(def))
	}

	pluginCmd := &cobra.Command{
		Use:   "plugin",
		Short: "Plugin inspection commands",
	}
	for _, cmd := range pluginCommands(m.registry) {
		pluginCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(pluginCmd)
}

// groupCommand returns the cobra command for a group path, creating it
// under parent on first use.
func (m *Manager) groupCommand(groups map[string]*cobra.Command, path []string, parent *cobra.Command) *cobra.Command {
	key := joinGroup(path)
	if cmd, ok := groups[key]; ok {
		return cmd
	}

	cmd := &cobra.Command{
		Use:   path[len(path)-1],
		Short: path[len(path)-1] + " commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	groups[key] = cmd
	parent.AddCommand(cmd)
	return cmd
}

func joinGroup(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "/"
		}
		out += p
	}
	return out
}
