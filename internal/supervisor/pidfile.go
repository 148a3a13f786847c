package supervisor

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/renameio/v2"

	"cbhands/internal/constants"
	"cbhands/internal/errors"
)

// readPidFile returns the PID recorded for the file, or 0 if the file is
// absent or unreadable. The PID file is the cross-invocation source of truth
// for whether we own a process.
func readPidFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

// writePidFile records a PID atomically.
func writePidFile(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.Wrap(errors.ErrFileWrite, "failed to create pid directory", err)
	}
	data := []byte(strconv.Itoa(pid) + "\n")
	if err := renameio.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.Wrap(errors.ErrFileWrite, "failed to write pid file", err)
	}
	return nil
}

// removePidFile deletes a PID file, ignoring a file that is already gone.
func removePidFile(path string) {
	_ = os.Remove(path)
}

// pidAlive reports whether a process with the given PID exists. Signal 0
// performs the existence check without delivering anything.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to someone else.
	return err == syscall.EPERM
}
