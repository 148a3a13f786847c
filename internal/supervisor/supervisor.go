package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"cbhands/internal/config"
	"cbhands/internal/constants"
	"cbhands/internal/errors"
	"cbhands/internal/event"
	"cbhands/internal/logger"
)

// Supervisor performs start/stop/restart/status against configured services.
// Construct one per invocation; it carries no cross-invocation memory.
type Supervisor struct {
	cfg    *config.Manager
	events *event.Bus
}

// New creates a supervisor over the loaded configuration.
func New(cfg *config.Manager, events *event.Bus) *Supervisor {
	return &Supervisor{cfg: cfg, events: events}
}

// Start spawns a configured service and blocks until it is healthy, the
// process dies, or the startup window elapses.
func (s *Supervisor) Start(ctx context.Context, name string) (*RuntimeState, error) {
	svc, ok := s.cfg.Service(name)
	if !ok {
		return nil, errors.UnknownService(name)
	}
	settings := s.cfg.Services.Settings

	// The PID file is the cross-invocation source of truth; re-read it
	// immediately before acting.
	current := s.snapshot(name, svc)
	if current.Status.live() {
		return nil, errors.AlreadyRunning(name, current.PID)
	}

	if portInUse(svc.Port) {
		return nil, errors.NewWithDetails(errors.ErrPortInUse,
			"service port is already in use",
			fmt.Sprintf("%s: port %d", name, svc.Port))
	}

	logFile, err := openLogFile(settings.LogFile(name))
	if err != nil {
		return nil, err
	}
	defer logFile.Close()

	cmd := buildCommand(svc, logFile)
	if err := cmd.Start(); err != nil {
		s.recordFailure(name, nil)
		return nil, errors.Wrap(errors.ErrProcessExitedEarly, "failed to spawn service process", err).
			WithContext("service", name)
	}
	pid := cmd.Process.Pid

	started := time.Now()
	if err := writePidFile(settings.PidFile(name), pid); err != nil {
		// Without a PID file the child is invisible to every later
		// invocation; tear it down rather than orphan it.
		s.failStartup(name, pid, nil)
		return nil, err
	}
	s.record(name, stateEntry{PID: pid, Status: StatusStarting, StartedAt: &started})

	logger.WithFields(logger.Fields{
		"service": name,
		"pid":     pid,
	}).Info("Started service process, waiting for it to become healthy")

	if err := s.awaitHealthy(ctx, name, svc, cmd); err != nil {
		return nil, err
	}

	s.record(name, stateEntry{PID: pid, Status: StatusRunning, StartedAt: &started})
	s.events.Publish(event.ServiceStarted, event.Payload{
		"name":   name,
		"status": string(StatusRunning),
		"pid":    pid,
	})

	state := s.snapshot(name, svc)
	return &state, nil
}

// Stop terminates a running service, escalating from SIGTERM to SIGKILL
// after the grace period. Stopping an already-stopped service is a no-op.
func (s *Supervisor) Stop(ctx context.Context, name string) (*RuntimeState, error) {
	svc, ok := s.cfg.Service(name)
	if !ok {
		return nil, errors.UnknownService(name)
	}
	settings := s.cfg.Services.Settings

	pid := readPidFile(settings.PidFile(name))
	if pid == 0 || !pidAlive(pid) {
		// Already at rest; clear any stale bookkeeping.
		removePidFile(settings.PidFile(name))
		now := time.Now()
		s.record(name, stateEntry{Status: StatusStopped, StoppedAt: &now})
		state := s.snapshot(name, svc)
		return &state, nil
	}

	s.record(name, stateEntry{PID: pid, Status: StatusStopping})
	signalProcess(pid, syscall.SIGTERM)

	if !waitForExit(ctx, pid, settings.StopGracePeriod()) {
		logger.WithFields(logger.Fields{
			"service": name,
			"pid":     pid,
		}).Warn("Service did not exit within grace period, killing")
		signalProcess(pid, syscall.SIGKILL)
		waitForExit(ctx, pid, constants.DefaultKillWait)
	}

	removePidFile(settings.PidFile(name))
	now := time.Now()
	s.record(name, stateEntry{Status: StatusStopped, StoppedAt: &now})
	s.events.Publish(event.ServiceStopped, event.Payload{
		"name":   name,
		"status": string(StatusStopped),
		"pid":    pid,
	})

	logger.WithFields(logger.Fields{
		"service": name,
		"pid":     pid,
	}).Info("Stopped service")

	state := s.snapshot(name, svc)
	return &state, nil
}

// Restart stops then starts a service. A failed stop aborts the restart
// without attempting the start.
func (s *Supervisor) Restart(ctx context.Context, name string) (*RuntimeState, error) {
	if _, err := s.Stop(ctx, name); err != nil {
		return nil, errors.Wrap(errors.ErrStopFailed, "restart aborted, stop failed", err).
			WithContext("service", name)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.cfg.Services.Settings.RestartWait()):
	}

	return s.Start(ctx, name)
}

// Status returns the current snapshot for one service, re-validating actual
// process liveness first so a dead process is never reported as Running.
func (s *Supervisor) Status(name string) (*RuntimeState, error) {
	svc, ok := s.cfg.Service(name)
	if !ok {
		return nil, errors.UnknownService(name)
	}
	state := s.snapshot(name, svc)
	return &state, nil
}

// StatusAll returns snapshots for every configured service, including ones
// never started, in stable name order.
func (s *Supervisor) StatusAll() []*RuntimeState {
	names := s.cfg.ServiceNames()
	out := make([]*RuntimeState, 0, len(names))
	for _, name := range names {
		svc, _ := s.cfg.Service(name)
		state := s.snapshot(name, svc)
		out = append(out, &state)
	}
	return out
}

// snapshot re-derives a service's runtime state from the PID file, the state
// file, and the live process table. A recorded PID whose process is gone is
// downgraded to Failed and its stale PID file removed.
func (s *Supervisor) snapshot(name string, svc config.ServiceConfig) RuntimeState {
	settings := s.cfg.Services.Settings
	state := RuntimeState{
		Name:        name,
		Status:      StatusStopped,
		Port:        svc.Port,
		Description: svc.Description,
	}

	var entry stateEntry
	if sf, err := loadState(settings.StateFile); err == nil {
		entry = sf.Services[name]
	}

	pid := readPidFile(settings.PidFile(name))
	switch {
	case pid != 0 && pidAlive(pid):
		state.PID = pid
		state.Status = StatusRunning
		if entry.Status.live() {
			state.Status = entry.Status
		}
		state.StartedAt = entry.StartedAt
	case pid != 0:
		// Externally-killed process. The exit code is unknowable here.
		removePidFile(settings.PidFile(name))
		state.Status = StatusFailed
		s.record(name, stateEntry{Status: StatusFailed})
	default:
		if entry.Status == StatusFailed {
			state.Status = StatusFailed
			state.ExitCode = entry.ExitCode
		}
	}
	return state
}

// awaitHealthy polls the service's health probe with backoff until it
// passes, the child exits, the context is cancelled, or the startup window
// elapses.
func (s *Supervisor) awaitHealthy(ctx context.Context, name string, svc config.ServiceConfig, cmd *exec.Cmd) error {
	settings := s.cfg.Services.Settings
	pid := cmd.Process.Pid

	exited := make(chan int, 1)
	go func() {
		_ = cmd.Wait()
		exited <- cmd.ProcessState.ExitCode()
	}()

	probe := healthProbe(svc, pid)
	deadline := time.Now().Add(settings.StartupTimeout())
	interval := constants.DefaultProbeInterval

	for {
		select {
		case <-ctx.Done():
			s.failStartup(name, pid, nil)
			return ctx.Err()
		case code := <-exited:
			removePidFile(settings.PidFile(name))
			s.record(name, stateEntry{Status: StatusFailed, ExitCode: &code})
			s.events.Publish(event.ServiceFailed, event.Payload{
				"name":      name,
				"status":    string(StatusFailed),
				"exit_code": code,
			})
			return errors.ProcessExitedEarly(name, code)
		case <-time.After(interval):
		}

		if err := probe(); err == nil {
			return nil
		} else {
			logger.WithFields(logger.Fields{
				"service": name,
			}).WithError(err).Debug("Health probe not ready")
		}

		if time.Now().After(deadline) {
			s.failStartup(name, pid, nil)
			return errors.StartupTimeout(name)
		}

		interval *= 2
		if interval > constants.MaxProbeInterval {
			interval = constants.MaxProbeInterval
		}
	}
}

// failStartup tears down a child that never became healthy so the PID
// invariant holds: Failed services own no process.
func (s *Supervisor) failStartup(name string, pid int, exitCode *int) {
	signalProcess(pid, syscall.SIGKILL)
	removePidFile(s.cfg.Services.Settings.PidFile(name))
	s.recordFailure(name, exitCode)
	s.events.Publish(event.ServiceFailed, event.Payload{
		"name":   name,
		"status": string(StatusFailed),
	})
}

func (s *Supervisor) recordFailure(name string, exitCode *int) {
	s.record(name, stateEntry{Status: StatusFailed, ExitCode: exitCode})
}

// record merges one service's entry into the state file. State-file write
// failures are logged, not fatal: the PID file and process table stay
// authoritative.
func (s *Supervisor) record(name string, entry stateEntry) {
	path := s.cfg.Services.Settings.StateFile
	sf, err := loadState(path)
	if err != nil {
		logger.WithError(err).Warn("Failed to load state file, recreating")
		sf = &stateFile{Services: map[string]stateEntry{}}
	}
	sf.Services[name] = entry
	if err := saveState(path, sf); err != nil {
		logger.WithError(err).Warn("Failed to save state file")
	}
}

// buildCommand prepares the child process. Commands with shell operators run
// through sh -c; plain commands are split and exec'd directly. The child
// gets its own process group so stop can signal the whole tree.
func buildCommand(svc config.ServiceConfig, logFile *os.File) *exec.Cmd {
	var cmd *exec.Cmd
	if strings.ContainsAny(svc.Command, "&|;") {
		cmd = exec.Command("sh", "-c", svc.Command)
	} else {
		parts := strings.Fields(svc.Command)
		cmd = exec.Command(parts[0], parts[1:]...)
	}

	cmd.Dir = svc.WorkingDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	env := os.Environ()
	for key, value := range svc.Environment {
		env = append(env, key+"="+value)
	}
	cmd.Env = env
	return cmd
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, errors.Wrap(errors.ErrFileWrite, "failed to create log directory", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, constants.FilePermissions)
	if err != nil {
		return nil, errors.Wrap(errors.ErrFileWrite, "failed to open service log file", err)
	}
	return f, nil
}

// signalProcess signals the process group when possible, falling back to
// the single process.
func signalProcess(pid int, sig syscall.Signal) {
	if pid <= 0 {
		return
	}
	if err := syscall.Kill(-pid, sig); err != nil {
		_ = syscall.Kill(pid, sig)
	}
}

// waitForExit polls until the PID disappears or the window elapses.
func waitForExit(ctx context.Context, pid int, window time.Duration) bool {
	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		if !pidAlive(pid) {
			return true
		}
		select {
		case <-ctx.Done():
			return !pidAlive(pid)
		case <-time.After(100 * time.Millisecond):
		}
	}
	return !pidAlive(pid)
}
