// Package supervisor owns OS-process lifecycle for configured services:
// spawning, signal-based stop with kill escalation, health probing, and
// PID/port/uptime bookkeeping. No state is held in memory across CLI
// invocations; everything is re-derived from PID files, the state file, and
// the OS process table on each call.
package supervisor

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"cbhands/internal/constants"
	"cbhands/internal/errors"
)

// Status is a service lifecycle status.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusFailed   Status = "failed"
)

// live reports whether this status implies an owned OS process.
func (s Status) live() bool {
	return s == StatusStarting || s == StatusRunning || s == StatusStopping
}

// RuntimeState is a point-in-time snapshot of one service. PID is non-zero
// exactly when the status is a live one; ExitCode is set only for Failed or
// just-stopped services.
type RuntimeState struct {
	Name        string     `json:"name"`
	Status      Status     `json:"status"`
	PID         int        `json:"pid,omitempty"`
	Port        int        `json:"port,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	ExitCode    *int       `json:"exit_code,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Uptime returns how long a running service has been up, or zero.
func (r RuntimeState) Uptime() time.Duration {
	if r.Status != StatusRunning || r.StartedAt == nil {
		return 0
	}
	return time.Since(*r.StartedAt)
}

// stateEntry is the on-disk record per service in the state file.
type stateEntry struct {
	PID       int        `yaml:"pid,omitempty"`
	Status    Status     `yaml:"status"`
	StartedAt *time.Time `yaml:"started_at,omitempty"`
	StoppedAt *time.Time `yaml:"stopped_at,omitempty"`
	ExitCode  *int       `yaml:"exit_code,omitempty"`
}

// stateFile mirrors the whole state file.
type stateFile struct {
	Services map[string]stateEntry `yaml:"services"`
}

// loadState reads the state file; a missing file yields an empty state.
func loadState(path string) (*stateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &stateFile{Services: map[string]stateEntry{}}, nil
		}
		return nil, errors.Wrap(errors.ErrFileRead, "failed to read state file", err)
	}

	var sf stateFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, "failed to parse state file", err)
	}
	if sf.Services == nil {
		sf.Services = map[string]stateEntry{}
	}
	return &sf, nil
}

// saveState writes the state file atomically so a crashed writer never
// leaves a half-written file behind.
func saveState(path string, sf *stateFile) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.Wrap(errors.ErrFileWrite, "failed to create state directory", err)
	}

	data, err := yaml.Marshal(sf)
	if err != nil {
		return errors.Wrap(errors.ErrFileWrite, "failed to encode state file", err)
	}
	if err := renameio.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.Wrap(errors.ErrFileWrite, "failed to write state file", err)
	}
	return nil
}
