package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"cbhands/internal/errors"
	"cbhands/internal/xdg"
)

// GlobalConfig represents the global cbhands configuration (config.toml)
type GlobalConfig struct {
	Log      LogConfig            `toml:"log"`
	Services GlobalServicesConfig `toml:"services"`
	Journal  JournalConfig        `toml:"journal"`
	Plugins  PluginsConfig        `toml:"plugins"`
}

type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

type GlobalServicesConfig struct {
	ConfigPath string `toml:"config_path"` // Location of services.yaml
}

type JournalConfig struct {
	Path    string `toml:"path"`    // Location of the sqlite journal
	Enabled *bool  `toml:"enabled"` // nil defaults to true
}

// PluginsConfig carries per-plugin configuration blobs keyed by plugin name.
// Each plugin validates its own section at load time.
type PluginsConfig struct {
	Config map[string]map[string]interface{} `toml:"config"`
}

// DefaultGlobalConfig returns the default global configuration
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Log: LogConfig{
			Level: "info",
		},
		Services: GlobalServicesConfig{
			ConfigPath: "", // Will use XDG default
		},
		Journal: JournalConfig{
			Path: "", // Will use XDG default
		},
	}
}

// JournalEnabled reports whether the lifecycle journal should be written.
func (c *GlobalConfig) JournalEnabled() bool {
	return c.Journal.Enabled == nil || *c.Journal.Enabled
}

// PluginConfig returns the raw configuration section for a plugin, which may
// be nil when the operator configured nothing.
func (c *GlobalConfig) PluginConfig(name string) map[string]interface{} {
	if c.Plugins.Config == nil {
		return nil
	}
	return c.Plugins.Config[name]
}

// LoadGlobalConfig loads the global configuration from the XDG config directory
func LoadGlobalConfig() (*GlobalConfig, error) {
	configDir, err := xdg.ConfigDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, "config.toml")

	// If config doesn't exist, return defaults with expanded paths
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultGlobalConfig()
		applyGlobalDefaults(cfg, configDir)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrFileRead, "failed to read global configuration", err)
	}

	var cfg GlobalConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, "failed to parse global configuration", err)
	}

	applyGlobalDefaults(&cfg, configDir)
	return &cfg, nil
}

func applyGlobalDefaults(cfg *GlobalConfig, configDir string) {
	defaults := DefaultGlobalConfig()
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Services.ConfigPath == "" {
		cfg.Services.ConfigPath = filepath.Join(configDir, "services.yaml")
	}
	if cfg.Journal.Path == "" {
		dataDir, err := xdg.DataDir()
		if err == nil {
			cfg.Journal.Path = filepath.Join(dataDir, "journal.db")
		} else {
			cfg.Journal.Path = filepath.Join(os.TempDir(), "cbhands_journal.db")
		}
	}
}
