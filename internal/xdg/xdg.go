// Package xdg provides XDG Base Directory Specification compliant paths
package xdg

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigDir returns the XDG config directory for cbhands
// Priority: XDG_CONFIG_HOME > ~/.config/cbhands
func ConfigDir() (string, error) {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "cbhands"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "cbhands"), nil
}

// DataDir returns the XDG data directory for cbhands
// Priority: XDG_DATA_HOME > ~/.local/share/cbhands
func DataDir() (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "cbhands"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "share", "cbhands"), nil
}

// StateDir returns the XDG state directory for cbhands
// Priority: XDG_STATE_HOME > ~/.local/state/cbhands
func StateDir() (string, error) {
	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return filepath.Join(xdgState, "cbhands"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "state", "cbhands"), nil
}

// RuntimeDir returns the XDG runtime directory for cbhands
// Priority: XDG_RUNTIME_DIR > /tmp/cbhands-$UID
func RuntimeDir() (string, error) {
	if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
		return filepath.Join(xdgRuntime, "cbhands"), nil
	}

	uid := os.Getuid()
	return filepath.Join("/tmp", fmt.Sprintf("cbhands-%d", uid)), nil
}

// LogsDir returns the directory for storing service log files
// Uses state directory as the base
func LogsDir() string {
	stateDir, err := StateDir()
	if err != nil {
		dataDir, _ := DataDir()
		return filepath.Join(dataDir, "logs")
	}
	return filepath.Join(stateDir, "logs")
}

// PidsDir returns the directory for storing service PID files
// Uses state directory as the base
func PidsDir() string {
	stateDir, err := StateDir()
	if err != nil {
		dataDir, _ := DataDir()
		return filepath.Join(dataDir, "pids")
	}
	return filepath.Join(stateDir, "pids")
}
