// Xact - Data-Flow System Runner
//
// A CLI tool for running distributed data-flow systems described by
// declarative configuration:
//
//	xact system start --cfg-path ./examples/counter
//	xact system start --cfg-path ./examples/counter node.limit.config.threshold 100
//	xact system stop  --cfg-path ./examples/counter
//
// The system commands orchestrate a run across every configured host.
// The host commands are what the orchestrator itself invokes, locally
// or over ssh, passing the full configuration as a single serialized
// token.
//
// Configuration may come from a file, a directory of fragment files, or
// a serialized token, and every command accepts trailing address/value
// pairs that override individual config entries.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xact-systems/xact/pkg/config"
	"github.com/xact-systems/xact/pkg/settings"
	"github.com/xact-systems/xact/pkg/util"
	"github.com/xact-systems/xact/pkg/version"
)

// errHalt carries a non-zero system return code out through cobra.
type errHalt struct {
	returnCode int
}

func (e *errHalt) Error() string {
	return fmt.Sprintf("system halted with return code %d", e.returnCode)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "xact:", err)
		var halt *errHalt
		if errors.As(err, &halt) {
			os.Exit(halt.returnCode)
		}
		os.Exit(1)
	}
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "xact",
	Short:         "Run distributed data-flow systems",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `Xact runs data-flow graphs of compute nodes across processes and hosts.

A system is described by declarative configuration: nodes, the processes
and hosts they run in, and the typed edges connecting them. The start
command orchestrates the whole graph; each host agent then schedules its
own processes.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			util.SetLogLevel("debug")
			return
		}
		if s, err := settings.Load(); err == nil {
			if err := util.SetLogLevel(s.GetLogLevel()); err != nil {
				util.Warnf("ignoring configured log level: %v", err)
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.AddCommand(systemCmd)
	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("xact", version.Info())
	},
}

// envDefault returns the environment fallback for a flag, so every
// option can also be supplied as XACT_<NAME>.
func envDefault(name string) string {
	return os.Getenv("XACT_" + name)
}

func envDefaultBool(name string) bool {
	value := os.Getenv("XACT_" + name)
	return value != "" && value != "0" && value != "false"
}

// asExitStatus converts an operation result into the process exit
// status: nil for a clean zero-code halt, errHalt for any other code.
func asExitStatus(returnCode int, err error) error {
	if err != nil {
		return err
	}
	if returnCode != 0 {
		return &errHalt{returnCode: returnCode}
	}
	return nil
}

// deserializeArg decodes the config token positional argument used by
// the host commands.
func deserializeArg(token string) (*config.Config, error) {
	cfg, err := config.Deserialize(token)
	if err != nil {
		return nil, err
	}
	if cfg.Runtime == nil {
		return nil, config.NewCfgError("serialized config has no runtime block")
	}
	return cfg, nil
}
