// Package orch implements the orchestrator: it stamps run identity into
// a prepared config and starts, stops, pauses, or steps the system
// across its hosts.
package orch

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/xact-systems/xact/pkg/config"
	"github.com/xact-systems/xact/pkg/host"
	"github.com/xact-systems/xact/pkg/proc"
	"github.com/xact-systems/xact/pkg/util"
)

// Start launches a prepared system.
//
// In local mode the whole graph is collapsed onto one synthetic process
// and Start blocks until it halts, returning its return code. In
// distributed mode Start hands each host its own config and returns
// once every host agent has been launched.
func Start(cfg *config.Config) (int, error) {
	stampRun(cfg)
	log := util.WithFields(map[string]any{
		"id_system": cfg.System.IDSystem,
		"id_run":    cfg.Runtime.ID.IDRun,
	})

	if cfg.Runtime.Opt.DoMakeReady {
		if err := ensureReady(cfg); err != nil {
			return 1, err
		}
	}

	if !cfg.Runtime.Opt.IsDistributed {
		log.Info("starting system in local mode")
		return startLocal(cfg)
	}

	log.Info("starting system in distributed mode")
	for _, idHost := range cfg.HostIDs() {
		if err := startHost(cfg, idHost); err != nil {
			return 1, err
		}
	}
	return 0, nil
}

// stampRun writes the run identity into the runtime block. This is the
// only mutation the orchestrator makes to a prepared config.
func stampRun(cfg *config.Config) {
	if cfg.Runtime == nil {
		cfg.Runtime = &config.RuntimeConfig{}
	}
	cfg.Runtime.ID.IDSystem = cfg.System.IDSystem
	cfg.Runtime.ID.IDRun = strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	cfg.Runtime.ID.TsRun = time.Now().UTC().Format("20060102150405")
}

// localProcessID is the synthetic process every node runs in under
// local mode.
const localProcessID = "mainprocess"

// startLocal collapses the whole graph onto one synthetic process and
// runs its scheduler in the calling process. With every node in the
// same process every edge becomes an aliased in-memory buffer; no
// sockets or child processes are involved.
func startLocal(cfg *config.Config) (int, error) {
	local, idHost, err := collapseLocal(cfg)
	if err != nil {
		return 1, err
	}
	return proc.Start(local, idHost, localProcessID)
}

// collapseLocal clones the config and rewrites it so every node lives
// in one process on localhost. The caller's config is untouched.
func collapseLocal(cfg *config.Config) (*config.Config, string, error) {
	token, err := config.Serialize(cfg)
	if err != nil {
		return nil, "", err
	}
	clone, err := config.Deserialize(token)
	if err != nil {
		return nil, "", err
	}
	hostIDs := clone.HostIDs()
	if len(hostIDs) == 0 {
		return nil, "", config.NewCfgError("system has no processes to run")
	}
	idHost := hostIDs[0]
	hostCfg := clone.Host[idHost]
	hostCfg.Hostname = "localhost"
	clone.Host = map[string]*config.HostConfig{idHost: hostCfg}
	clone.Process = map[string]*config.ProcessConfig{localProcessID: {Host: idHost}}
	for _, nodeCfg := range clone.Node {
		nodeCfg.Process = localProcessID
	}
	clone.Runtime.ID.IDHost = idHost
	if err := config.Denormalize(clone); err != nil {
		return nil, "", err
	}
	return clone, idHost, nil
}

// startHost launches the host agent for one host, locally or over ssh.
func startHost(cfg *config.Config, idHost string) error {
	hostCfg, ok := cfg.Host[idHost]
	if !ok {
		return config.NewCfgError("unknown host %q", idHost)
	}
	token, err := hostToken(cfg, idHost)
	if err != nil {
		return err
	}
	if isLocalHost(hostCfg.Hostname) {
		return spawnLocalAgent(token)
	}
	return Dispatch(hostCfg, agentCommand(hostCfg, "start-host", token))
}

// hostToken serializes the config with the host identity filled in, so
// the receiving agent knows which host it is without any further
// handshake.
func hostToken(cfg *config.Config, idHost string) (string, error) {
	token, err := config.Serialize(cfg)
	if err != nil {
		return "", err
	}
	clone, err := config.Deserialize(token)
	if err != nil {
		return "", err
	}
	clone.Runtime.ID.IDHost = idHost
	return config.Serialize(clone)
}

// spawnLocalAgent starts a detached host agent on this machine.
func spawnLocalAgent(token string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate own executable: %w", err)
	}
	agent := exec.Command(self, "host", "start-host", token)
	agent.Stdout = os.Stdout
	agent.Stderr = os.Stderr
	agent.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := agent.Start(); err != nil {
		return fmt.Errorf("spawn host agent: %w", err)
	}
	// The agent records its own pidfile; a later stop finds it there.
	go agent.Wait()
	return nil
}

// Stop shuts the system down on every host.
func Stop(cfg *config.Config) error {
	return fanOut(cfg, "stop-host", func(idHost string) error {
		return host.Stop(cfg, idHost)
	})
}

// Pause requests a pause on every host.
func Pause(cfg *config.Config) error {
	return fanOut(cfg, "pause-host", func(idHost string) error {
		return host.Pause(cfg, idHost)
	})
}

// SingleStep requests a single step on every host.
func SingleStep(cfg *config.Config) error {
	return fanOut(cfg, "step-host", func(idHost string) error {
		return host.SingleStep(cfg, idHost)
	})
}

// fanOut applies a host-level operation across all hosts, handling
// local hosts in-process and remote hosts over ssh.
func fanOut(cfg *config.Config, verb string, local func(idHost string) error) error {
	if err := config.Denormalize(cfg); err != nil {
		return err
	}
	for _, idHost := range cfg.HostIDs() {
		hostCfg := cfg.Host[idHost]
		if isLocalHost(hostCfg.Hostname) {
			if err := local(idHost); err != nil {
				return err
			}
			continue
		}
		token, err := hostToken(cfg, idHost)
		if err != nil {
			return err
		}
		if err := Dispatch(hostCfg, agentCommand(hostCfg, verb, token)); err != nil {
			return err
		}
	}
	return nil
}

// ensureReady provisions what a run needs on each host: the install and
// log directories. Remote hosts are provisioned over ssh.
func ensureReady(cfg *config.Config) error {
	if err := config.Denormalize(cfg); err != nil {
		return err
	}
	for _, idHost := range cfg.HostIDs() {
		hostCfg := cfg.Host[idHost]
		dirs := []string{hostCfg.DirpathInstall, hostCfg.DirpathLog}
		if isLocalHost(hostCfg.Hostname) {
			for _, dir := range dirs {
				if dir == "" {
					continue
				}
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("provision host %s: %w", idHost, err)
				}
			}
			continue
		}
		var nonEmpty []string
		for _, dir := range dirs {
			if dir != "" {
				nonEmpty = append(nonEmpty, dir)
			}
		}
		if len(nonEmpty) == 0 {
			continue
		}
		command := "mkdir -p " + strings.Join(nonEmpty, " ")
		if err := Dispatch(hostCfg, command); err != nil {
			return fmt.Errorf("provision host %s: %w", idHost, err)
		}
	}
	return nil
}

// agentCommand builds the remote shell command that runs an agent verb.
func agentCommand(hostCfg *config.HostConfig, verb, token string) string {
	var parts []string
	if hostCfg.DirpathVenv != "" {
		parts = append(parts, "source "+hostCfg.DirpathVenv+"/bin/activate")
	}
	binary := "xact"
	if hostCfg.DirpathInstall != "" {
		binary = hostCfg.DirpathInstall + "/xact"
	}
	parts = append(parts, fmt.Sprintf("%s host %s %s", binary, verb, token))
	return strings.Join(parts, " && ")
}

// isLocalHost reports whether the hostname refers to this machine.
func isLocalHost(hostname string) bool {
	switch hostname {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	self, err := os.Hostname()
	return err == nil && hostname == self
}
