// Package monitor is the built-in plugin that records supervisor lifecycle
// events into the journal and exposes them for inspection. It depends on
// the service_manager plugin, whose commands produce the events it records.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"cbhands/internal/command"
	"cbhands/internal/constants"
	"cbhands/internal/db"
	"cbhands/internal/event"
	"cbhands/internal/logger"
	"cbhands/internal/plugin"
	"cbhands/internal/plugins/servicemgr"
)

// PluginName is the registry key for this plugin.
const PluginName = "monitor"

// Plugin records service lifecycle transitions.
type Plugin struct {
	journal *db.DB // nil when the journal is disabled
	tokens  []event.Token
}

// New creates the monitor plugin. It observes nothing until the registry
// activates it.
func New(journal *db.DB) *Plugin {
	return &Plugin{journal: journal}
}

// Activate implements plugin.Activator. The registry calls it after a
// successful registration; a rejected monitor never records anything.
func (p *Plugin) Activate(bus *event.Bus) {
	for _, name := range []string{event.ServiceStarted, event.ServiceStopped, event.ServiceFailed} {
		p.tokens = append(p.tokens, bus.Subscribe(name, p.record))
	}
}

// Deactivate implements plugin.Activator.
func (p *Plugin) Deactivate(bus *event.Bus) {
	for _, token := range p.tokens {
		bus.Unsubscribe(token)
	}
	p.tokens = nil
}

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:         PluginName,
		Version:      "1.0.0",
		Description:  "Records service lifecycle transitions for auditing",
		Dependencies: []string{servicemgr.PluginName},
	}
}

// Commands implements plugin.Plugin.
func (p *Plugin) Commands() []*command.Definition {
	return []*command.Definition{
		{
			Name:        "events",
			Group:       []string{"monitor"},
			Description: "Show recently recorded lifecycle events",
			Options: []command.OptionDefinition{
				{
					Name:        "limit",
					Type:        command.OptionInt,
					Description: "Maximum number of events to show",
					Default:     constants.DefaultHistoryLimit,
				},
			},
			Handler: p.events,
		},
	}
}

// record is the event-bus subscriber. Journal failures are logged and
// swallowed so a broken journal never disturbs the command that published
// the event.
func (p *Plugin) record(evt event.Event) error {
	if p.journal == nil {
		return nil
	}

	entry := &db.JournalEntry{
		EventID:    evt.ID,
		Event:      evt.Name,
		RecordedAt: evt.Timestamp,
	}
	if name, ok := evt.Payload["name"].(string); ok {
		entry.Service = name
	}
	if status, ok := evt.Payload["status"].(string); ok {
		entry.Status = status
	}
	if pid, ok := evt.Payload["pid"].(int); ok {
		entry.PID = &pid
	}
	if code, ok := evt.Payload["exit_code"].(int); ok {
		entry.ExitCode = &code
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.journal.AppendJournal(ctx, entry); err != nil {
		logger.WithError(err).Warn("Failed to record lifecycle event")
	}
	return nil
}

func (p *Plugin) events(ctx *command.Context, opts command.Options) (*command.Result, error) {
	if p.journal == nil {
		return command.Failure(fmt.Errorf("lifecycle journal is disabled in configuration")), nil
	}

	entries, err := p.journal.RecentJournal(ctx.Ctx, opts.Int("limit"))
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSERVICE\tEVENT\tSTATUS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.RecordedAt.Format(time.RFC3339), e.Service, e.Event, e.Status)
	}
	w.Flush()

	return command.Success(strings.TrimRight(sb.String(), "\n")), nil
}
