package main

import (
	"github.com/spf13/cobra"

	"github.com/xact-systems/xact/pkg/config"
	"github.com/xact-systems/xact/pkg/host"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Operate on a single host (invoked by the orchestrator)",
}

func init() {
	hostCmd.AddCommand(hostStartCmd)
	hostCmd.AddCommand(hostStopCmd)
	hostCmd.AddCommand(hostPauseCmd)
	hostCmd.AddCommand(hostStepCmd)
	hostCmd.AddCommand(hostStartProcCmd)
}

// hostIdentity decodes the token and resolves which host this agent is,
// as stamped by the orchestrator.
func hostIdentity(token string) (*config.Config, string, error) {
	cfg, err := deserializeArg(token)
	if err != nil {
		return nil, "", err
	}
	idHost := cfg.Runtime.ID.IDHost
	if idHost == "" || idHost == config.PlaceholderID {
		return nil, "", config.NewCfgError("serialized config does not identify a host")
	}
	return cfg, idHost, nil
}

var hostStartCmd = &cobra.Command{
	Use:   "start-host CFG",
	Short: "Run the host agent for this host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, idHost, err := hostIdentity(args[0])
		if err != nil {
			return err
		}
		return asExitStatus(host.Start(cfg, idHost))
	},
}

var hostStopCmd = &cobra.Command{
	Use:   "stop-host CFG",
	Short: "Stop every process of the system on this host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, idHost, err := hostIdentity(args[0])
		if err != nil {
			return err
		}
		return host.Stop(cfg, idHost)
	},
}

var hostPauseCmd = &cobra.Command{
	Use:   "pause-host CFG",
	Short: "Pause every process of the system on this host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, idHost, err := hostIdentity(args[0])
		if err != nil {
			return err
		}
		return host.Pause(cfg, idHost)
	},
}

var hostStepCmd = &cobra.Command{
	Use:   "step-host CFG",
	Short: "Single-step every process of the system on this host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, idHost, err := hostIdentity(args[0])
		if err != nil {
			return err
		}
		return host.SingleStep(cfg, idHost)
	},
}

// hostStartProcCmd is how the host agent re-execs itself to run one
// scheduler per OS process. Not part of the user-facing surface.
var hostStartProcCmd = &cobra.Command{
	Use:    "start-proc CFG ID_PROCESS",
	Short:  "Run one process scheduler",
	Hidden: true,
	Args:   cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := deserializeArg(args[0])
		if err != nil {
			return err
		}
		return asExitStatus(host.StartProc(cfg, args[1]))
	},
}
