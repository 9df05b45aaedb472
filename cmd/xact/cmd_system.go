package main

import (
	"github.com/spf13/cobra"

	"github.com/xact-systems/xact/pkg/audit"
	"github.com/xact-systems/xact/pkg/config"
	"github.com/xact-systems/xact/pkg/orch"
	"github.com/xact-systems/xact/pkg/settings"
	"github.com/xact-systems/xact/pkg/util"
)

var (
	cfgPath      string
	cfgString    string
	cfgAddrDelim string
	doMakeReady  bool
	doDistribute bool
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Operate on a whole system",
}

func init() {
	for _, cmd := range []*cobra.Command{
		systemStartCmd, systemStopCmd, systemPauseCmd, systemStepCmd,
	} {
		addConfigFlags(cmd)
		systemCmd.AddCommand(cmd)
	}
	systemCmd.AddCommand(systemRunsCmd)
}

// addConfigFlags registers the config source flags shared by all system
// commands. Each flag defaults from its XACT_* environment variable,
// then from the persistent user settings.
func addConfigFlags(cmd *cobra.Command) {
	userSettings, err := settings.Load()
	if err != nil {
		userSettings = &settings.Settings{}
	}
	cmd.Flags().StringVar(&cfgPath, "cfg-path",
		util.CoalesceString(envDefault("CFG_PATH"), userSettings.DefaultCfgPath),
		"Config file or directory")
	cmd.Flags().StringVar(&cfgString, "cfg", envDefault("CFG"),
		"Serialized config token")
	cmd.Flags().StringVar(&cfgAddrDelim, "cfg-addr-delim", userSettings.GetAddrDelim(),
		"Delimiter for config override addresses")
	cmd.Flags().BoolVar(&doMakeReady, "makeready", envDefaultBool("MAKEREADY"),
		"Provision hosts before starting")
	cmd.Flags().BoolVar(&doDistribute, "distribute", envDefaultBool("DISTRIBUTE"),
		"Run distributed across the configured hosts")
}

// prepareFromFlags builds the prepared config for a system command.
// Positional args are address/value override pairs.
func prepareFromFlags(args []string) (*config.Config, error) {
	return config.Prepare(config.PrepareOptions{
		Path:          cfgPath,
		ConfigString:  cfgString,
		AddrDelim:     cfgAddrDelim,
		Overrides:     args,
		DoMakeReady:   doMakeReady,
		IsDistributed: doDistribute,
	})
}

// runHistory opens the per-user run history. A run is never blocked on
// being able to record it.
func runHistory() audit.Logger {
	logger, err := audit.NewFileLogger(audit.DefaultPath(), audit.RotationConfig{
		MaxSize:    10 << 20,
		MaxBackups: 3,
	})
	if err != nil {
		util.Warnf("run history unavailable: %v", err)
		return audit.NopLogger{}
	}
	return logger
}

// recordEvent finalizes and stores one run history event.
func recordEvent(event *audit.Event, cfg *config.Config, returnCode int, opErr error) {
	history := runHistory()
	defer history.Close()
	if cfg != nil {
		event.WithRun(cfg.Runtime.ID.IDCfg, cfg.Runtime.ID.IDRun)
		event.WithHosts(cfg.HostIDs(), cfg.Runtime.Opt.IsDistributed)
	}
	if err := history.Log(event.Complete(returnCode, opErr)); err != nil {
		util.Warnf("recording run history: %v", err)
	}
}

var systemStartCmd = &cobra.Command{
	Use:   "start [address value]...",
	Short: "Start the system",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := prepareFromFlags(args)
		if err != nil {
			return err
		}
		event := audit.NewEvent(cfg.System.IDSystem, audit.OpStart)
		code, err := orch.Start(cfg)
		recordEvent(event, cfg, code, err)
		return asExitStatus(code, err)
	},
}

var systemStopCmd = &cobra.Command{
	Use:   "stop [address value]...",
	Short: "Stop the system",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := prepareFromFlags(args)
		if err != nil {
			return err
		}
		event := audit.NewEvent(cfg.System.IDSystem, audit.OpStop)
		err = orch.Stop(cfg)
		recordEvent(event, cfg, 0, err)
		return err
	},
}

var systemPauseCmd = &cobra.Command{
	Use:   "pause [address value]...",
	Short: "Pause the system",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := prepareFromFlags(args)
		if err != nil {
			return err
		}
		event := audit.NewEvent(cfg.System.IDSystem, audit.OpPause)
		err = orch.Pause(cfg)
		recordEvent(event, cfg, 0, err)
		return err
	},
}

var systemStepCmd = &cobra.Command{
	Use:   "step [address value]...",
	Short: "Single-step the system",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := prepareFromFlags(args)
		if err != nil {
			return err
		}
		event := audit.NewEvent(cfg.System.IDSystem, audit.OpStep)
		err = orch.SingleStep(cfg)
		recordEvent(event, cfg, 0, err)
		return err
	},
}
