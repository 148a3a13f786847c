// Package app wires configuration, the event bus, the plugin registry, and
// the CLI together into a runnable application.
package app

import (
	"context"
	"fmt"

	"cbhands/internal/cli"
	"cbhands/internal/command"
	"cbhands/internal/config"
	"cbhands/internal/db"
	"cbhands/internal/event"
	"cbhands/internal/logger"
	"cbhands/internal/plugin"
	"cbhands/internal/plugins/monitor"
	"cbhands/internal/plugins/servicemgr"
	"cbhands/internal/supervisor"
)

// App represents the main application
type App struct {
	Config     *config.Manager
	Events     *event.Bus
	Registry   *plugin.Registry
	Supervisor *supervisor.Supervisor
	DB         *db.DB
	CLI        *cli.Manager
}

// New creates a new application instance
func New() *App {
	return &App{}
}

// Run starts the application with the given CLI arguments.
func (a *App) Run(args []string) error {
	return a.RunWithContext(context.Background(), args)
}

// RunWithContext starts the application with a context for cancellation
func (a *App) RunWithContext(ctx context.Context, args []string) error {
	cfg := config.New()
	if err := cfg.Load(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.Config = cfg

	logger.SetLevel(cfg.Global.Log.Level)

	a.Events = event.NewBus()
	a.Registry = plugin.NewRegistry(a.Events)
	a.Supervisor = supervisor.New(cfg, a.Events)

	// The lifecycle journal is optional; without it the monitor plugin
	// still loads but reports the journal as disabled.
	if cfg.Global.JournalEnabled() {
		database, err := db.New(db.DefaultConfig(cfg.Global.Journal.Path))
		if err != nil {
			return fmt.Errorf("failed to open journal database: %w", err)
		}
		if err := database.Migrate(); err != nil {
			database.Close()
			return fmt.Errorf("failed to run journal migrations: %w", err)
		}
		a.DB = database
		defer database.Close()
	}

	loader := plugin.NewLoader(a.Registry)
	loader.Add(func() plugin.Plugin {
		return servicemgr.New(cfg, a.Supervisor, a.DB)
	})
	loader.Add(func() plugin.Plugin {
		return monitor.New(a.DB)
	})
	if err := loader.LoadAll(cfg.Global.PluginConfig); err != nil {
		return err
	}

	dispatcher := command.NewDispatcher(a.Registry, a.Events)
	before, after := command.LoggingMiddleware()
	dispatcher.Before(before)
	dispatcher.After(after)
	timingBefore, timingAfter := command.TimingMiddleware()
	dispatcher.Before(timingBefore)
	dispatcher.After(timingAfter)

	a.CLI = cli.New(a.Registry, dispatcher)

	if len(args) == 0 {
		return a.CLI.ExecuteWithContext(ctx, []string{"--help"})
	}
	return a.CLI.ExecuteWithContext(ctx, args)
}
