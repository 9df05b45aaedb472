package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xact-systems/xact/pkg/cli"
	"github.com/xact-systems/xact/pkg/config"
	"github.com/xact-systems/xact/pkg/util"
)

func init() {
	addConfigFlags(systemShowCmd)
	systemCmd.AddCommand(systemShowCmd)
}

// systemShowCmd prints the prepared, denormalized view of a system:
// which process runs where, which nodes run in which process, and how
// every edge is carried. Useful for checking a config before starting
// it.
var systemShowCmd = &cobra.Command{
	Use:   "show [address value]...",
	Short: "Show the prepared system layout",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := prepareFromFlags(args)
		if err != nil {
			return err
		}
		if err := config.Denormalize(cfg); err != nil {
			return err
		}
		showSystem(cfg)
		return nil
	},
}

func showSystem(cfg *config.Config) {
	fmt.Println(cli.Bold("system"), cfg.System.IDSystem,
		cli.Dim("cfg "+cfg.Runtime.ID.IDCfg))
	fmt.Println()

	hosts := cli.NewTable("HOST", "HOSTNAME", "PORT RANGE", "PROCESSES")
	for _, idHost := range cfg.HostIDs() {
		hostCfg := cfg.Host[idHost]
		hosts.Row(idHost, hostCfg.Hostname, hostCfg.PortRange,
			strings.Join(cfg.ProcessIDsOnHost(idHost), ", "))
	}
	hosts.Flush()
	fmt.Println()

	nodes := cli.NewTable("NODE", "PROCESS", "HOST", "ENTRY POINT")
	for _, idNode := range util.SortedKeys(cfg.Node) {
		nodeCfg := cfg.Node[idNode]
		nodes.Row(idNode, nodeCfg.Process, nodeCfg.Host, nodeCfg.Functionality.EntryPoint)
	}
	nodes.Flush()
	fmt.Println()

	edges := cli.NewTable("EDGE", "IPC", "DIRN", "TRANSPORT")
	for _, edge := range cfg.Edge {
		edges.Row(edge.Src+" -> "+edge.Dst, colorIPC(edge.IPCType), edge.Dirn,
			edgeTransport(cfg, edge))
	}
	edges.Flush()
}

func colorIPC(ipcType string) string {
	switch ipcType {
	case config.IPCIntraProcess:
		return cli.Green(ipcType)
	case config.IPCInterProcess:
		return cli.Yellow(ipcType)
	}
	return cli.Red(ipcType)
}

func edgeTransport(cfg *config.Config, edge *config.EdgeConfig) string {
	switch edge.IPCType {
	case config.IPCIntraProcess:
		return "shared buffer"
	case config.IPCInterProcess:
		return cfg.Queue["inter_process"]
	}
	transport := cfg.Queue["inter_host_server"]
	if port, err := cfg.EdgePort(edge); err == nil {
		transport += ":" + strconv.Itoa(port)
	}
	return transport
}
