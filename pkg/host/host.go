// Package host implements the per-host agent. It spawns one child OS
// process per configured data-flow process, tracks them through
// pidfiles, and reaps them on shutdown.
package host

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/xact-systems/xact/pkg/config"
	"github.com/xact-systems/xact/pkg/proc"
	"github.com/xact-systems/xact/pkg/queue"
	"github.com/xact-systems/xact/pkg/settings"
	"github.com/xact-systems/xact/pkg/util"
)

// logParams resolves the log level and directory for an agent on this
// machine: host config first, the local user settings as fallback.
func logParams(hostCfg *config.HostConfig, user *settings.Settings) (level, dirpath string) {
	level = util.CoalesceString(hostCfg.LogLevel, user.LogLevel)
	dirpath = util.CoalesceString(hostCfg.DirpathLog, user.DirpathLog)
	return level, dirpath
}

func loadUserSettings() *settings.Settings {
	user, err := settings.Load()
	if err != nil {
		return &settings.Settings{}
	}
	return user
}

// Start runs the host agent for idHost until every child process has
// exited. The aggregate return code is zero only when all children
// halted cleanly.
func Start(cfg *config.Config, idHost string) (int, error) {
	if err := config.Denormalize(cfg); err != nil {
		return 1, err
	}
	hostCfg, ok := cfg.Host[idHost]
	if !ok {
		return 1, config.NewCfgError("unknown host %q", idHost)
	}
	level, dirpathLog := logParams(hostCfg, loadUserSettings())
	if err := util.SetupProcessLog(
		level, dirpathLog, cfg.System.IDSystem, "host_"+idHost); err != nil {
		return 1, err
	}
	log := util.WithFields(map[string]any{
		"id_system": cfg.System.IDSystem,
		"id_host":   idHost,
	})

	processIDs := cfg.ProcessIDsOnHost(idHost)
	if len(processIDs) == 0 {
		return 1, config.NewCfgError("host %q has no processes", idHost)
	}

	self, err := os.Executable()
	if err != nil {
		return 1, fmt.Errorf("locate own executable: %w", err)
	}
	token, err := config.Serialize(cfg)
	if err != nil {
		return 1, err
	}

	rundir := queue.RundirPath(cfg.System.IDSystem)
	if err := writePidfile(rundir, "host_"+idHost, os.Getpid()); err != nil {
		return 1, err
	}
	defer removePidfile(rundir, "host_"+idHost)

	// Each child runs one scheduler and gets its own process group so a
	// stop can take down anything the child itself spawned.
	children := make(map[string]*exec.Cmd, len(processIDs))
	for _, idProcess := range processIDs {
		child := exec.Command(self, "host", "start-proc", token, idProcess)
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr
		child.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		if err := child.Start(); err != nil {
			stopChildren(children)
			return 1, fmt.Errorf("spawn process %s: %w", idProcess, err)
		}
		children[idProcess] = child
		if err := writePidfile(rundir, idProcess, child.Process.Pid); err != nil {
			log.Warnf("cannot record pidfile for %s: %v", idProcess, err)
		}
		log.WithField("id_process", idProcess).
			WithField("pid", child.Process.Pid).Info("process spawned")
	}

	forwardSignals(children)

	returnCode := 0
	for _, idProcess := range processIDs {
		err := children[idProcess].Wait()
		removePidfile(rundir, idProcess)
		if err == nil {
			continue
		}
		code := 1
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		log.WithField("id_process", idProcess).
			Warnf("process exited with code %d", code)
		if code != 0 && returnCode == 0 {
			returnCode = code
		}
	}
	log.WithField("return_code", returnCode).Info("host agent done")
	return returnCode, nil
}

// StartProc is the child entry point: one scheduler in one OS process.
func StartProc(cfg *config.Config, idProcess string) (int, error) {
	if err := config.Denormalize(cfg); err != nil {
		return 1, err
	}
	procCfg, ok := cfg.Process[idProcess]
	if !ok {
		return 1, config.NewCfgError("unknown process %q", idProcess)
	}
	hostCfg := cfg.Host[procCfg.Host]
	if hostCfg != nil {
		level, dirpathLog := logParams(hostCfg, loadUserSettings())
		if err := util.SetupProcessLog(
			level, dirpathLog, cfg.System.IDSystem, idProcess); err != nil {
			return 1, err
		}
	}
	return proc.Start(cfg, procCfg.Host, idProcess)
}

// Stop terminates a previously started system on this host: every
// process group recorded in the rundir gets SIGTERM, a grace period,
// then SIGKILL.
func Stop(cfg *config.Config, idHost string) error {
	rundir := queue.RundirPath(cfg.System.IDSystem)
	pids, err := readPidfiles(rundir)
	if err != nil {
		return err
	}
	selfName := "host_" + idHost
	for name, pid := range pids {
		if name == selfName && pid == os.Getpid() {
			continue
		}
		util.WithField("pid", pid).Infof("stopping %s", name)
		terminateGroup(pid)
		removePidfile(rundir, name)
	}
	os.RemoveAll(rundir)
	return nil
}

// Pause records a pause request. Scheduler-level pause is not supported
// yet, so the request is logged and otherwise ignored.
func Pause(cfg *config.Config, idHost string) error {
	util.WithField("id_host", idHost).Warn("pause requested; not supported, ignoring")
	return nil
}

// SingleStep records a single-step request. Like Pause, it is accepted
// but not yet acted on.
func SingleStep(cfg *config.Config, idHost string) error {
	util.WithField("id_host", idHost).Warn("single step requested; not supported, ignoring")
	return nil
}

// forwardSignals relays termination signals to every child process
// group so an interrupted host agent does not orphan its schedulers.
func forwardSignals(children map[string]*exec.Cmd) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		stopChildren(children)
	}()
}

func stopChildren(children map[string]*exec.Cmd) {
	for _, idProcess := range util.SortedKeys(children) {
		child := children[idProcess]
		if child.Process != nil {
			syscall.Kill(-child.Process.Pid, syscall.SIGTERM)
		}
	}
}
