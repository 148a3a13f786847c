package supervisor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPidFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pids", "dealer.pid")

	require.NoError(t, writePidFile(path, 12345))
	assert.Equal(t, 12345, readPidFile(path))

	removePidFile(path)
	assert.Equal(t, 0, readPidFile(path))

	// Removing twice is fine.
	removePidFile(path)
}

func TestReadPidFileGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dealer.pid")
	require.NoError(t, os.WriteFile(path, []byte("not a pid\n"), 0644))
	assert.Equal(t, 0, readPidFile(path))

	require.NoError(t, os.WriteFile(path, []byte("-4\n"), 0644))
	assert.Equal(t, 0, readPidFile(path))
}

func TestPidAlive(t *testing.T) {
	assert.True(t, pidAlive(os.Getpid()))
	assert.False(t, pidAlive(0))
	assert.False(t, pidAlive(-1))
	assert.False(t, pidAlive(4194000))
}

func TestStateFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "state.yaml")

	started := time.Now().Truncate(time.Second)
	exitCode := 3
	sf := &stateFile{Services: map[string]stateEntry{
		"dealer": {PID: 42, Status: StatusRunning, StartedAt: &started},
		"lobby":  {Status: StatusFailed, ExitCode: &exitCode},
	}}
	require.NoError(t, saveState(path, sf))

	loaded, err := loadState(path)
	require.NoError(t, err)

	dealer := loaded.Services["dealer"]
	assert.Equal(t, 42, dealer.PID)
	assert.Equal(t, StatusRunning, dealer.Status)
	require.NotNil(t, dealer.StartedAt)
	assert.True(t, dealer.StartedAt.Equal(started))

	lobby := loaded.Services["lobby"]
	assert.Equal(t, StatusFailed, lobby.Status)
	require.NotNil(t, lobby.ExitCode)
	assert.Equal(t, 3, *lobby.ExitCode)
}

func TestLoadStateMissingFileIsEmpty(t *testing.T) {
	sf, err := loadState(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, sf.Services)
}

func TestStatusLiveness(t *testing.T) {
	assert.True(t, StatusStarting.live())
	assert.True(t, StatusRunning.live())
	assert.True(t, StatusStopping.live())
	assert.False(t, StatusStopped.live())
	assert.False(t, StatusFailed.live())
}

func TestRuntimeStateUptime(t *testing.T) {
	past := time.Now().Add(-time.Minute)

	running := RuntimeState{Status: StatusRunning, StartedAt: &past}
	assert.InDelta(t, time.Minute.Seconds(), running.Uptime().Seconds(), 1)

	stopped := RuntimeState{Status: StatusStopped, StartedAt: &past}
	assert.Zero(t, stopped.Uptime())

	noStart := RuntimeState{Status: StatusRunning}
	assert.Zero(t, noStart.Uptime())
}
