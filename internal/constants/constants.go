// Package constants defines application-wide constants to avoid magic numbers
package constants

import "time"

// File System Permissions
const (
	// DirPermissions is the standard directory permissions for cbhands directories
	DirPermissions = 0755

	// FilePermissions is the standard file permissions for cbhands config files
	FilePermissions = 0644
)

// Service Supervision
const (
	// DefaultStartupTimeout bounds the health-probe polling window during start
	DefaultStartupTimeout = 30 * time.Second

	// DefaultStopGracePeriod is how long a service gets to exit after SIGTERM
	// before it is killed
	DefaultStopGracePeriod = 5 * time.Second

	// DefaultKillWait is how long to wait for the process table to settle
	// after an escalated SIGKILL
	DefaultKillWait = 2 * time.Second

	// DefaultProbeInterval is the initial delay between health-probe attempts
	DefaultProbeInterval = 250 * time.Millisecond

	// MaxProbeInterval caps the backoff between health-probe attempts
	MaxProbeInterval = 2 * time.Second

	// DefaultRestartDelay is the pause between stop and start during restart
	DefaultRestartDelay = 1 * time.Second
)

// HTTP Configuration
const (
	// DefaultProbeHTTPTimeout is the per-request timeout for HTTP health probes
	DefaultProbeHTTPTimeout = 2 * time.Second
)

// Database Configuration
const (
	// DefaultMaxOpenConnections is the default maximum number of database connections
	DefaultMaxOpenConnections = 5

	// DefaultMaxIdleConnections is the default maximum number of idle database connections
	DefaultMaxIdleConnections = 2
)

// Logging and Output Limits
const (
	// DefaultLogTailLines is the default number of service log lines to display
	DefaultLogTailLines = 100

	// DefaultHistoryLimit is the default number of journal entries to display
	DefaultHistoryLimit = 50
)

// Network Port Validation
const (
	// MinPortNumber is the minimum valid TCP port number
	MinPortNumber = 1

	// MaxPortNumber is the maximum valid TCP port number
	MaxPortNumber = 65535
)
