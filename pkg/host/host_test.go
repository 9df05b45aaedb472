package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xact-systems/xact/internal/testutil"
	"github.com/xact-systems/xact/pkg/config"
	"github.com/xact-systems/xact/pkg/settings"
)

func TestLogParamsFallsBackToSettings(t *testing.T) {
	user := &settings.Settings{LogLevel: "debug", DirpathLog: "/var/log/xact"}

	level, dirpath := logParams(&config.HostConfig{}, user)
	require.Equal(t, "debug", level)
	require.Equal(t, "/var/log/xact", dirpath)

	// Host config wins over user settings.
	hostCfg := &config.HostConfig{LogLevel: "warn", DirpathLog: "/srv/log"}
	level, dirpath = logParams(hostCfg, user)
	require.Equal(t, "warn", level)
	require.Equal(t, "/srv/log", dirpath)

	level, dirpath = logParams(&config.HostConfig{}, &settings.Settings{})
	require.Equal(t, "", level)
	require.Equal(t, "", dirpath)
}

func TestPidfileRoundTrip(t *testing.T) {
	rundir := t.TempDir()
	require.NoError(t, writePidfile(rundir, "main", 12345))
	require.NoError(t, writePidfile(rundir, "host_localhost", 12346))

	pids, err := readPidfiles(rundir)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"main": 12345, "host_localhost": 12346}, pids)

	removePidfile(rundir, "main")
	pids, err = readPidfiles(rundir)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"host_localhost": 12346}, pids)
}

func TestReadPidfilesIgnoresJunk(t *testing.T) {
	rundir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rundir, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(rundir, "bad.pid"), []byte("not a pid"), 0o644))
	require.NoError(t, writePidfile(rundir, "good", 99))

	pids, err := readPidfiles(rundir)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"good": 99}, pids)
}

func TestReadPidfilesMissingDir(t *testing.T) {
	pids, err := readPidfiles(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	require.Empty(t, pids)
}

func TestStartProcRunsScheduler(t *testing.T) {
	cfg, err := testutil.Prepare(testutil.CounterSystem(5))
	require.NoError(t, err)

	code, err := StartProc(cfg, "main")
	require.NoError(t, err)
	require.Equal(t, 0, code)
}

func TestStartProcUnknownProcess(t *testing.T) {
	cfg, err := testutil.Prepare(testutil.CounterSystem(5))
	require.NoError(t, err)

	_, err = StartProc(cfg, "phantom")
	require.Error(t, err)
}

func TestStartRejectsUnknownHost(t *testing.T) {
	cfg, err := testutil.Prepare(testutil.CounterSystem(5))
	require.NoError(t, err)

	code, err := Start(cfg, "phantom_host")
	require.Error(t, err)
	require.Equal(t, 1, code)
}
