package servicemgr

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbhands/internal/command"
	"cbhands/internal/config"
	"cbhands/internal/db"
	"cbhands/internal/errors"
	"cbhands/internal/event"
	"cbhands/internal/supervisor"
	"cbhands/internal/testutil"
)

func testPlugin(t *testing.T, services map[string]config.ServiceConfig, journal *db.DB) *Plugin {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Manager{
		Services: &config.ServicesConfig{
			Services: services,
			Settings: config.Settings{
				LogDir:        filepath.Join(dir, "logs"),
				PidDir:        filepath.Join(dir, "pids"),
				StateFile:     filepath.Join(dir, "state.yaml"),
				TimeoutSecs:   3,
				StopGraceSecs: 2,
			},
		},
	}
	sup := supervisor.New(cfg, event.NewBus())
	return New(cfg, sup, journal)
}

func findCommand(t *testing.T, p *Plugin, name string) *command.Definition {
	t.Helper()
	for _, def := range p.Commands() {
		if def.Name == name {
			return def
		}
	}
	t.Fatalf("command %s not found", name)
	return nil
}

func run(t *testing.T, p *Plugin, name string, raw map[string]string) (*command.Result, error) {
	t.Helper()
	def := findCommand(t, p, name)
	opts, err := command.ValidateOptions(def, raw)
	require.NoError(t, err)
	return def.Handler(&command.Context{Ctx: context.Background()}, opts)
}

func TestMetadata(t *testing.T) {
	p := testPlugin(t, nil, nil)
	meta := p.Metadata()

	assert.Equal(t, PluginName, meta.Name)
	assert.Empty(t, meta.Dependencies)
}

func TestCommandsDeclareServiceGroup(t *testing.T) {
	p := testPlugin(t, nil, nil)

	names := make([]string, 0)
	for _, def := range p.Commands() {
		assert.Equal(t, []string{"service"}, def.Group)
		names = append(names, def.Name)
	}
	assert.ElementsMatch(t, []string{"start", "stop", "restart", "status", "logs", "history"}, names)
}

func TestValidateConfigLogLines(t *testing.T) {
	p := testPlugin(t, nil, nil)

	assert.Empty(t, p.ValidateConfig(nil))
	assert.Empty(t, p.ValidateConfig(map[string]interface{}{"log_lines": 20}))
	assert.Empty(t, p.ValidateConfig(map[string]interface{}{"log_lines": int64(20)}))
	assert.NotEmpty(t, p.ValidateConfig(map[string]interface{}{"log_lines": 0}))
	assert.NotEmpty(t, p.ValidateConfig(map[string]interface{}{"log_lines": -5}))
	assert.NotEmpty(t, p.ValidateConfig(map[string]interface{}{"log_lines": "twenty"}))
}

func TestStatusListsAllConfiguredServices(t *testing.T) {
	p := testPlugin(t, map[string]config.ServiceConfig{
		"dealer": {Command: "sleep 30", WorkingDir: "/tmp", Port: 8765, Description: "Card dealing service"},
		"lobby":  {Command: "sleep 30", WorkingDir: "/tmp"},
	}, nil)

	result, err := run(t, p, "status", nil)
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Contains(t, result.Message, "NAME")
	assert.Contains(t, result.Message, "dealer")
	assert.Contains(t, result.Message, "lobby")
	assert.Contains(t, result.Message, "stopped")
	assert.Contains(t, result.Message, "Card dealing service")

	assert.Contains(t, result.Data, "dealer")
	assert.Contains(t, result.Data, "lobby")
}

func TestStatusUnknownService(t *testing.T) {
	p := testPlugin(t, nil, nil)

	_, err := run(t, p, "status", map[string]string{"service": "ghost"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrUnknownService))
}

func TestStartUnknownService(t *testing.T) {
	p := testPlugin(t, nil, nil)

	_, err := run(t, p, "start", map[string]string{"service": "ghost"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrUnknownService))
}

func TestLogsUnknownService(t *testing.T) {
	p := testPlugin(t, nil, nil)

	_, err := run(t, p, "logs", map[string]string{"service": "ghost"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrUnknownService))
}

func TestLogsTailsServiceLog(t *testing.T) {
	p := testPlugin(t, map[string]config.ServiceConfig{
		"dealer": {Command: "sleep 30", WorkingDir: "/tmp"},
	}, nil)

	logPath := p.cfg.Services.Settings.LogFile("dealer")
	require.NoError(t, os.MkdirAll(filepath.Dir(logPath), 0755))
	require.NoError(t, os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0644))

	result, err := run(t, p, "logs", map[string]string{"service": "dealer", "lines": "2"})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "second\nthird", result.Message)
}

func TestLogsConfigOverridesDefaultLines(t *testing.T) {
	p := testPlugin(t, map[string]config.ServiceConfig{
		"dealer": {Command: "sleep 30", WorkingDir: "/tmp"},
	}, nil)

	logPath := p.cfg.Services.Settings.LogFile("dealer")
	require.NoError(t, os.MkdirAll(filepath.Dir(logPath), 0755))
	require.NoError(t, os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0644))

	def := findCommand(t, p, "logs")
	opts, err := command.ValidateOptions(def, map[string]string{"service": "dealer"})
	require.NoError(t, err)

	ctx := &command.Context{
		Ctx:    context.Background(),
		Config: map[string]interface{}{"log_lines": 1},
	}
	result, err := def.Handler(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, "third", result.Message)
}

func TestHistoryWithoutJournal(t *testing.T) {
	p := testPlugin(t, nil, nil)

	result, err := run(t, p, "history", nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "journal")
}

func TestHistoryListsJournalEntries(t *testing.T) {
	journal := testutil.SetupTestDB(t)
	p := testPlugin(t, nil, journal)

	pid := 4242
	require.NoError(t, journal.AppendJournal(context.Background(), &db.JournalEntry{
		EventID: "evt-1",
		Service: "dealer",
		Event:   "service.started",
		Status:  "running",
		PID:     &pid,
	}))

	result, err := run(t, p, "history", map[string]string{"service": "dealer"})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Contains(t, result.Message, "dealer")
	assert.Contains(t, result.Message, "service.started")
	assert.Contains(t, result.Message, "4242")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", formatDuration(45*time.Second))
	assert.Equal(t, "2m5s", formatDuration(2*time.Minute+5*time.Second))
	assert.Equal(t, "3h20m", formatDuration(3*time.Hour+20*time.Minute))
	assert.Equal(t, "2d6h", formatDuration(54*time.Hour))
}
