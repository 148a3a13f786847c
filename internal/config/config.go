package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cbhands/internal/constants"
	"cbhands/internal/errors"
	"cbhands/internal/xdg"
)

// Manager handles configuration loading and validation
type Manager struct {
	Global   *GlobalConfig
	Services *ServicesConfig
}

// ServiceConfig describes one managed service. Immutable after load.
type ServiceConfig struct {
	Command     string            `yaml:"command"`
	WorkingDir  string            `yaml:"working_directory"`
	Port        int               `yaml:"port"`
	HealthPath  string            `yaml:"health_path,omitempty"`
	Description string            `yaml:"description,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
}

// Settings holds supervisor-wide tunables from the services file.
type Settings struct {
	LogDir          string `yaml:"log_dir,omitempty"`
	PidDir          string `yaml:"pid_dir,omitempty"`
	StateFile       string `yaml:"state_file,omitempty"`
	TimeoutSecs     int    `yaml:"timeout,omitempty"`
	StopGraceSecs   int    `yaml:"stop_grace_period,omitempty"`
	RestartWaitSecs int    `yaml:"restart_wait,omitempty"`
}

// ServicesConfig is the parsed services.yaml.
type ServicesConfig struct {
	Services map[string]ServiceConfig `yaml:"services"`
	Settings Settings                 `yaml:"settings"`
}

// New creates an empty configuration manager
func New() *Manager {
	return &Manager{}
}

// Load reads the global config and the services file it points at.
func (m *Manager) Load() error {
	global, err := LoadGlobalConfig()
	if err != nil {
		return err
	}
	m.Global = global

	services, err := LoadServicesConfig(global.Services.ConfigPath)
	if err != nil {
		return err
	}
	m.Services = services
	return nil
}

// Service returns the definition for name, if configured.
func (m *Manager) Service(name string) (ServiceConfig, bool) {
	if m.Services == nil {
		return ServiceConfig{}, false
	}
	svc, ok := m.Services.Services[name]
	return svc, ok
}

// ServiceNames returns all configured service names, sorted for stable output.
func (m *Manager) ServiceNames() []string {
	if m.Services == nil {
		return nil
	}
	names := make([]string, 0, len(m.Services.Services))
	for name := range m.Services.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadServicesConfig parses and validates a services.yaml file.
// Malformed entries are rejected here so the supervisor never sees them.
func LoadServicesConfig(path string) (*ServicesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewWithDetails(errors.ErrConfigNotFound,
				"services configuration file not found", path)
		}
		return nil, errors.Wrap(errors.ErrFileRead, "failed to read services configuration", err)
	}

	var cfg ServicesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, "failed to parse services configuration", err)
	}
	if cfg.Services == nil {
		cfg.Services = map[string]ServiceConfig{}
	}

	for name, svc := range cfg.Services {
		if err := ValidateServiceConfig(name, &svc); err != nil {
			return nil, err
		}
	}

	cfg.Settings.applyDefaults()
	return &cfg, nil
}

// ValidateServiceConfig checks a single service entry.
func ValidateServiceConfig(name string, svc *ServiceConfig) error {
	if strings.TrimSpace(name) == "" {
		return errors.New(errors.ErrConfigInvalid, "service name must not be empty")
	}
	if strings.TrimSpace(svc.Command) == "" {
		return errors.NewWithDetails(errors.ErrConfigInvalid,
			"service command is required", name)
	}
	if svc.WorkingDir == "" {
		return errors.NewWithDetails(errors.ErrConfigInvalid,
			"service working_directory is required", name)
	}
	if svc.Port != 0 && (svc.Port < constants.MinPortNumber || svc.Port > constants.MaxPortNumber) {
		return errors.NewWithDetails(errors.ErrConfigInvalid,
			"service port out of range", fmt.Sprintf("%s: %d", name, svc.Port))
	}
	if svc.HealthPath != "" && !strings.HasPrefix(svc.HealthPath, "/") {
		return errors.NewWithDetails(errors.ErrConfigInvalid,
			"service health_path must start with /", name)
	}
	return nil
}

func (s *Settings) applyDefaults() {
	if s.LogDir == "" {
		s.LogDir = xdg.LogsDir()
	}
	if s.PidDir == "" {
		s.PidDir = xdg.PidsDir()
	}
	if s.StateFile == "" {
		stateDir, err := xdg.StateDir()
		if err == nil {
			s.StateFile = filepath.Join(stateDir, "state.yaml")
		} else {
			s.StateFile = filepath.Join(os.TempDir(), "cbhands_state.yaml")
		}
	}
	if s.TimeoutSecs <= 0 {
		s.TimeoutSecs = int(constants.DefaultStartupTimeout / time.Second)
	}
	if s.StopGraceSecs <= 0 {
		s.StopGraceSecs = int(constants.DefaultStopGracePeriod / time.Second)
	}
	if s.RestartWaitSecs <= 0 {
		s.RestartWaitSecs = int(constants.DefaultRestartDelay / time.Second)
	}
}

// StartupTimeout returns the bounded health-probe window for start.
func (s Settings) StartupTimeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// StopGracePeriod returns the window between SIGTERM and SIGKILL.
func (s Settings) StopGracePeriod() time.Duration {
	return time.Duration(s.StopGraceSecs) * time.Second
}

// RestartWait returns the pause between stop and start during restart.
func (s Settings) RestartWait() time.Duration {
	return time.Duration(s.RestartWaitSecs) * time.Second
}

// LogFile returns the log path for a service.
func (s Settings) LogFile(name string) string {
	return filepath.Join(s.LogDir, name+".log")
}

// PidFile returns the PID file path for a service.
func (s Settings) PidFile(name string) string {
	return filepath.Join(s.PidDir, name+".pid")
}
