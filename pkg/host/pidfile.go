package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// How long a terminated process gets to shut down before it is killed.
const termGrace = 10 * time.Second

func pidfilePath(rundir, name string) string {
	return filepath.Join(rundir, name+".pid")
}

func writePidfile(rundir, name string, pid int) error {
	if err := os.MkdirAll(rundir, 0o755); err != nil {
		return fmt.Errorf("create rundir: %w", err)
	}
	return os.WriteFile(pidfilePath(rundir, name), []byte(strconv.Itoa(pid)+"\n"), 0o644)
}

func removePidfile(rundir, name string) {
	os.Remove(pidfilePath(rundir, name))
}

// readPidfiles returns the pids recorded in the rundir, keyed by
// pidfile name.
func readPidfiles(rundir string) (map[string]int, error) {
	entries, err := os.ReadDir(rundir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rundir: %w", err)
	}
	pids := make(map[string]int)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pid") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(rundir, entry.Name()))
		if err != nil {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil {
			continue
		}
		pids[strings.TrimSuffix(entry.Name(), ".pid")] = pid
	}
	return pids, nil
}

// terminateGroup sends SIGTERM to the process group, waits out the
// grace period, and falls back to SIGKILL for stragglers.
func terminateGroup(pid int) {
	syscall.Kill(-pid, syscall.SIGTERM)
	deadline := time.Now().Add(termGrace)
	for time.Now().Before(deadline) {
		// Signal 0 probes for existence without delivering anything.
		if err := syscall.Kill(-pid, 0); err != nil {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	syscall.Kill(-pid, syscall.SIGKILL)
}
