package plugin

import (
	"strings"

	"cbhands/internal/command"
	"cbhands/internal/errors"
	"cbhands/internal/event"
)

// Registered is a registry entry: one plugin, its metadata, its flattened
// command set, and its validated configuration. Entries are never mutated
// after registration except by explicit unload.
type Registered struct {
	Meta     Metadata
	Plugin   Plugin
	Commands []*command.Definition
	Config   map[string]interface{}
}

// Registry owns the set of loaded plugins. It is constructed once per
// process invocation and passed explicitly; there is no process-wide
// singleton.
type Registry struct {
	events  *event.Bus
	plugins map[string]*Registered
	order   []string // registration order, drives deterministic listings
}

// NewRegistry creates an empty registry publishing onto the given bus.
func NewRegistry(events *event.Bus) *Registry {
	return &Registry{
		events:  events,
		plugins: make(map[string]*Registered),
	}
}

// Register adds a plugin with its raw configuration section. It fails
// without side effects when the name is taken, a declared dependency is not
// yet registered, the configuration does not validate, or the flattened
// command set collides within a group, whether with the candidate's own
// commands or with a command some registered plugin already holds. Silent
// shadowing is never allowed: a command either registers visibly or its
// whole plugin is rejected. A failure affects only the candidate plugin;
// everything already registered stays usable.
func (r *Registry) Register(p Plugin, rawConfig map[string]interface{}) error {
	meta := p.Metadata()

	if _, exists := r.plugins[meta.Name]; exists {
		return errors.DuplicatePlugin(meta.Name)
	}

	for _, dep := range meta.Dependencies {
		if _, ok := r.plugins[dep]; !ok {
			return errors.MissingDependency(meta.Name, dep)
		}
	}

	cfg := rawConfig
	if validator, ok := p.(ConfigValidator); ok {
		if problems := validator.ValidateConfig(rawConfig); len(problems) > 0 {
			return errors.NewWithDetails(errors.ErrConfigInvalid,
				"plugin configuration invalid",
				meta.Name+": "+strings.Join(problems, "; "))
		}
	}

	commands := p.Commands()
	seen := make(map[string]bool, len(commands))
	for _, def := range commands {
		key := commandKey(def.Group, def.Name)
		if seen[key] {
			return errors.NewWithDetails(errors.ErrDuplicateCommand,
				"duplicate command within plugin group",
				meta.Name+": "+def.Path())
		}
		seen[key] = true

		for _, holder := range r.order {
			if findCommand(r.plugins[holder], key) != nil {
				return errors.NewWithDetails(errors.ErrDuplicateCommand,
					"command already registered by another plugin",
					meta.Name+": "+def.Path()+" (held by "+holder+")")
			}
		}
	}

	r.plugins[meta.Name] = &Registered{
		Meta:     meta,
		Plugin:   p,
		Commands: commands,
		Config:   cfg,
	}
	r.order = append(r.order, meta.Name)

	if activator, ok := p.(Activator); ok {
		activator.Activate(r.events)
	}

	r.events.Publish("plugin.registered", event.Payload{
		"plugin":  meta.Name,
		"version": meta.Version,
	})
	return nil
}

// Unregister removes a plugin. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	reg, ok := r.plugins[name]
	if !ok {
		return
	}
	if activator, ok := reg.Plugin.(Activator); ok {
		activator.Deactivate(r.events)
	}
	delete(r.plugins, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.events.Publish("plugin.unregistered", event.Payload{"plugin": name})
}

// Lookup finds a command by plugin (optional), group path, and name. An
// empty plugin name searches all plugins in registration order.
func (r *Registry) Lookup(pluginName string, group []string, name string) (*Registered, *command.Definition, error) {
	key := commandKey(group, name)

	if pluginName != "" {
		reg, ok := r.plugins[pluginName]
		if !ok {
			return nil, nil, errors.CommandNotFound(pluginName + " " + displayPath(group, name))
		}
		if def := findCommand(reg, key); def != nil {
			return reg, def, nil
		}
		return nil, nil, errors.CommandNotFound(pluginName + " " + displayPath(group, name))
	}

	for _, n := range r.order {
		reg := r.plugins[n]
		if def := findCommand(reg, key); def != nil {
			return reg, def, nil
		}
	}
	return nil, nil, errors.CommandNotFound(displayPath(group, name))
}

// Resolve implements command.Resolver.
func (r *Registry) Resolve(inv command.Invocation) (*command.Resolved, error) {
	reg, def, err := r.Lookup(inv.Plugin, inv.Group, inv.Command)
	if err != nil {
		return nil, err
	}
	return &command.Resolved{
		Plugin:     reg.Meta.Name,
		Definition: def,
		Config:     reg.Config,
	}, nil
}

// ListPlugins returns metadata for all plugins in registration order.
func (r *Registry) ListPlugins() []Metadata {
	out := make([]Metadata, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.plugins[name].Meta)
	}
	return out
}

// Get returns the registry entry for a plugin name.
func (r *Registry) Get(name string) (*Registered, bool) {
	reg, ok := r.plugins[name]
	return reg, ok
}

// ListGroups returns all group paths in first-registered order. Top-level
// commands do not contribute a group.
func (r *Registry) ListGroups() []string {
	var groups []string
	seen := make(map[string]bool)
	for _, name := range r.order {
		for _, def := range r.plugins[name].Commands {
			if len(def.Group) == 0 {
				continue
			}
			g := strings.Join(def.Group, " ")
			if !seen[g] {
				seen[g] = true
				groups = append(groups, g)
			}
		}
	}
	return groups
}

// ListCommands returns every command of every plugin, in registration order
// then declaration order. Listings are deterministic so commands cannot
// silently disappear between runs.
func (r *Registry) ListCommands() []*command.Definition {
	var out []*command.Definition
	for _, name := range r.order {
		out = append(out, r.plugins[name].Commands...)
	}
	return out
}

func findCommand(reg *Registered, key string) *command.Definition {
	for _, def := range reg.Commands {
		if commandKey(def.Group, def.Name) == key {
			return def
		}
	}
	return nil
}

func commandKey(group []string, name string) string {
	if len(group) == 0 {
		return name
	}
	return strings.Join(group, "/") + "/" + name
}

func displayPath(group []string, name string) string {
	if len(group) == 0 {
		return name
	}
	return strings.Join(group, " ") + " " + name
}
