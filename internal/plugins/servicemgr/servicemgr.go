// Package servicemgr is the built-in plugin exposing service lifecycle
// commands: start, stop, restart, status, logs, and history.
package servicemgr

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"cbhands/internal/command"
	"cbhands/internal/config"
	"cbhands/internal/constants"
	"cbhands/internal/db"
	"cbhands/internal/errors"
	"cbhands/internal/operations"
	"cbhands/internal/plugin"
	"cbhands/internal/supervisor"
)

// PluginName is the registry key for this plugin.
const PluginName = "service_manager"

// Plugin manages the configured game backend services.
type Plugin struct {
	cfg     *config.Manager
	sup     *supervisor.Supervisor
	journal *db.DB // nil when the journal is disabled
}

// New creates the service manager plugin.
func New(cfg *config.Manager, sup *supervisor.Supervisor, journal *db.DB) *Plugin {
	return &Plugin{cfg: cfg, sup: sup, journal: journal}
}

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        PluginName,
		Version:     "3.0.0",
		Description: "Lifecycle management for the configured backend services",
	}
}

// ConfigSchema implements plugin.ConfigValidator.
func (p *Plugin) ConfigSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"log_lines": map[string]interface{}{
				"type":        "integer",
				"description": "default number of log lines shown by the logs command",
			},
		},
	}
}

// ValidateConfig implements plugin.ConfigValidator.
func (p *Plugin) ValidateConfig(cfg map[string]interface{}) []string {
	var problems []string
	if raw, ok := cfg["log_lines"]; ok {
		switch v := raw.(type) {
		case int:
			if v <= 0 {
				problems = append(problems, "log_lines must be positive")
			}
		case int64:
			if v <= 0 {
				problems = append(problems, "log_lines must be positive")
			}
		default:
			problems = append(problems, "log_lines must be an integer")
		}
	}
	return problems
}

// Commands implements plugin.Plugin.
func (p *Plugin) Commands() []*command.Definition {
	serviceOpt := command.OptionDefinition{
		Name:        "service",
		Type:        command.OptionString,
		Description: "Name of the service",
		Required:    true,
	}

	return []*command.Definition{
		{
			Name:        "start",
			Group:       []string{"service"},
			Description: "Start a service and wait for it to become healthy",
			Options:     []command.OptionDefinition{serviceOpt},
			Handler:     p.start,
		},
		{
			Name:        "stop",
			Group:       []string{"service"},
			Description: "Stop a service, escalating to SIGKILL after the grace period",
			Options:     []command.OptionDefinition{serviceOpt},
			Handler:     p.stop,
		},
		{
			Name:        "restart",
			Group:       []string{"service"},
			Description: "Restart a service",
			Options:     []command.OptionDefinition{serviceOpt},
			Handler:     p.restart,
		},
		{
			Name:        "status",
			Group:       []string{"service"},
			Description: "Show status for one or all services",
			Options: []command.OptionDefinition{
				{
					Name:        "service",
					Type:        command.OptionString,
					Description: "Name of the service (all services when omitted)",
				},
			},
			Handler: p.status,
		},
		{
			Name:        "logs",
			Group:       []string{"service"},
			Description: "Show recent service log output",
			Options: []command.OptionDefinition{
				serviceOpt,
				{
					Name:        "lines",
					Type:        command.OptionInt,
					Description: "Number of lines to show from the end of the log",
					Default:     constants.DefaultLogTailLines,
				},
				{
					Name:        "follow",
					Type:        command.OptionFlag,
					Description: "Keep streaming new log output",
				},
			},
			Handler: p.logs,
		},
		{
			Name:        "history",
			Group:       []string{"service"},
			Description: "Show recorded lifecycle transitions",
			Options: []command.OptionDefinition{
				{
					Name:        "service",
					Type:        command.OptionString,
					Description: "Name of the service (all services when omitted)",
				},
				{
					Name:        "limit",
					Type:        command.OptionInt,
					Description: "Maximum number of entries to show",
					Default:     constants.DefaultHistoryLimit,
				},
			},
			Handler: p.history,
		},
	}
}

func (p *Plugin) start(ctx *command.Context, opts command.Options) (*command.Result, error) {
	name := opts.String("service")
	state, err := p.sup.Start(ctx.Ctx, name)
	if err != nil {
		return nil, err
	}
	return command.SuccessWithData(
		fmt.Sprintf("Service '%s' started successfully (PID: %d)", name, state.PID),
		map[string]interface{}{
			"service": name,
			"pid":     state.PID,
			"status":  string(state.Status),
		}), nil
}

func (p *Plugin) stop(ctx *command.Context, opts command.Options) (*command.Result, error) {
	name := opts.String("service")
	state, err := p.sup.Stop(ctx.Ctx, name)
	if err != nil {
		return nil, err
	}
	return command.SuccessWithData(
		fmt.Sprintf("Service '%s' stopped", name),
		map[string]interface{}{
			"service": name,
			"status":  string(state.Status),
		}), nil
}

func (p *Plugin) restart(ctx *command.Context, opts command.Options) (*command.Result, error) {
	name := opts.String("service")
	state, err := p.sup.Restart(ctx.Ctx, name)
	if err != nil {
		return nil, err
	}
	return command.SuccessWithData(
		fmt.Sprintf("Service '%s' restarted successfully (PID: %d)", name, state.PID),
		map[string]interface{}{
			"service": name,
			"pid":     state.PID,
			"status":  string(state.Status),
		}), nil
}

func (p *Plugin) status(ctx *command.Context, opts command.Options) (*command.Result, error) {
	name := opts.String("service")

	var states []*supervisor.RuntimeState
	if name != "" {
		state, err := p.sup.Status(name)
		if err != nil {
			return nil, err
		}
		states = []*supervisor.RuntimeState{state}
	} else {
		states = p.sup.StatusAll()
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tPID\tPORT\tUPTIME\tDESCRIPTION")
	for _, st := range states {
		pid := "-"
		if st.PID != 0 {
			pid = fmt.Sprintf("%d", st.PID)
		}
		port := "-"
		if st.Port != 0 {
			port = fmt.Sprintf("%d", st.Port)
		}
		uptime := "-"
		if d := st.Uptime(); d > 0 {
			uptime = formatDuration(d)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			st.Name, st.Status, pid, port, uptime, st.Description)
	}
	w.Flush()

	data := make(map[string]interface{}, len(states))
	for _, st := range states {
		data[st.Name] = st
	}
	return command.SuccessWithData(strings.TrimRight(sb.String(), "\n"), data), nil
}

func (p *Plugin) logs(ctx *command.Context, opts command.Options) (*command.Result, error) {
	name := opts.String("service")
	lines := opts.Int("lines")
	// Plugin configuration may override the default tail length; an
	// explicit --lines always wins.
	if override, ok := ctx.Config["log_lines"]; ok && lines == constants.DefaultLogTailLines {
		switch v := override.(type) {
		case int:
			lines = v
		case int64:
			lines = int(v)
		}
	}

	if _, ok := p.cfg.Service(name); !ok {
		return nil, errors.UnknownService(name)
	}
	logPath := p.cfg.Services.Settings.LogFile(name)

	if opts.Bool("follow") {
		// Follow streams directly; the uniform result is produced once the
		// stream ends (Ctrl-C cancels the context).
		if err := operations.FollowFile(ctx.Ctx, logPath, lines, os.Stdout); err != nil {
			return nil, err
		}
		return command.Success(""), nil
	}

	content, err := operations.TailFile(logPath, lines)
	if err != nil {
		return nil, err
	}
	return command.Success(strings.Join(content, "\n")), nil
}

func (p *Plugin) history(ctx *command.Context, opts command.Options) (*command.Result, error) {
	if p.journal == nil {
		return command.Failure(fmt.Errorf("lifecycle journal is disabled in configuration")), nil
	}

	name := opts.String("service")
	limit := opts.Int("limit")

	var (
		entries []db.JournalEntry
		err     error
	)
	if name != "" {
		entries, err = p.journal.JournalForService(ctx.Ctx, name, limit)
	} else {
		entries, err = p.journal.RecentJournal(ctx.Ctx, limit)
	}
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSERVICE\tEVENT\tSTATUS\tPID\tEXIT")
	for _, e := range entries {
		pid := "-"
		if e.PID != nil {
			pid = fmt.Sprintf("%d", *e.PID)
		}
		exit := "-"
		if e.ExitCode != nil {
			exit = fmt.Sprintf("%d", *e.ExitCode)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.RecordedAt.Format(time.RFC3339), e.Service, e.Event, e.Status, pid, exit)
	}
	w.Flush()

	return command.Success(strings.TrimRight(sb.String(), "\n")), nil
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd%dh", days, hours)
}
