package plugin

import (
	"cbhands/internal/errors"
	"cbhands/internal/logger"
)

// Factory produces a plugin instance at discovery time. Built-in plugins
// register a factory; external discovery mechanisms can contribute more.
type Factory func() Plugin

// Loader discovers plugins and feeds them into a registry in dependency
// order. The discovery mechanism itself stays behind the Factory boundary.
type Loader struct {
	registry  *Registry
	factories []Factory
}

// NewLoader creates a loader over the given registry.
func NewLoader(registry *Registry) *Loader {
	return &Loader{registry: registry}
}

// Add contributes a plugin factory. Factories run lazily, at Discover time.
func (l *Loader) Add(factory Factory) {
	l.factories = append(l.factories, factory)
}

// Discover instantiates all contributed plugins in contribution order.
func (l *Loader) Discover() []Plugin {
	plugins := make([]Plugin, 0, len(l.factories))
	for _, factory := range l.factories {
		plugins = append(plugins, factory())
	}
	return plugins
}

// ResolveOrder topologically sorts plugins by their declared dependencies so
// that every plugin follows the plugins it depends on. Dependencies naming
// plugins outside the given set are left for Register to reject. A
// dependency cycle fails the whole resolution; none of its members load.
func ResolveOrder(plugins []Plugin) ([]Plugin, error) {
	byName := make(map[string]Plugin, len(plugins))
	names := make([]string, 0, len(plugins))
	for _, p := range plugins {
		name := p.Metadata().Name
		byName[name] = p
		names = append(names, name)
	}

	// Kahn's algorithm, visiting in discovery order for determinism.
	inDegree := make(map[string]int, len(names))
	dependents := make(map[string][]string)
	for _, name := range names {
		inDegree[name] = 0
	}
	for _, name := range names {
		for _, dep := range byName[name].Metadata().Dependencies {
			if _, known := byName[dep]; !known {
				continue
			}
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var queue []string
	for _, name := range names {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	ordered := make([]Plugin, 0, len(plugins))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		ordered = append(ordered, byName[name])

		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(ordered) != len(plugins) {
		var cycle []string
		for _, name := range names {
			if inDegree[name] > 0 {
				cycle = append(cycle, name)
			}
		}
		return nil, errors.DependencyCycle(cycle)
	}
	return ordered, nil
}

// LoadAll discovers, orders, and registers every plugin. A plugin that fails
// to register is logged and skipped; it never blocks the others.
func (l *Loader) LoadAll(pluginConfig func(name string) map[string]interface{}) error {
	ordered, err := ResolveOrder(l.Discover())
	if err != nil {
		return err
	}

	for _, p := range ordered {
		name := p.Metadata().Name
		var cfg map[string]interface{}
		if pluginConfig != nil {
			cfg = pluginConfig(name)
		}
		if err := l.registry.Register(p, cfg); err != nil {
			logger.WithFields(logger.Fields{
				"plugin": name,
			}).WithError(err).Warn("Skipping plugin that failed to register")
		}
	}
	return nil
}
