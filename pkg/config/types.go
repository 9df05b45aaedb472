// Package config prepares, validates, denormalises, and serialises the
// declarative description of an xact data-flow graph.
package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// IPC classes derived for each edge by the denormaliser.
const (
	IPCIntraProcess = "intra_process"
	IPCInterProcess = "inter_process"
	IPCInterHost    = "inter_host"
)

// Edge directions.
const (
	DirnFeedforward = "feedforward"
	DirnFeedback    = "feedback"
)

// Config is the root of the system description. The normalized form is
// what appears on disk; Denormalize adds the derived fields in place.
// From the moment Prepare returns, everything except the derived fields
// and the runtime block is immutable.
type Config struct {
	System     SystemConfig                `yaml:"system" mapstructure:"system"`
	Host       map[string]*HostConfig      `yaml:"host" mapstructure:"host"`
	Process    map[string]*ProcessConfig   `yaml:"process" mapstructure:"process"`
	Node       map[string]*NodeConfig      `yaml:"node" mapstructure:"node"`
	Edge       []*EdgeConfig               `yaml:"edge" mapstructure:"edge"`
	Data       map[string]any              `yaml:"data" mapstructure:"data"`
	ReqHostCfg map[string]*HostRequirement `yaml:"req_host_cfg,omitempty" mapstructure:"req_host_cfg"`
	Role       map[string]any              `yaml:"role,omitempty" mapstructure:"role"`
	Queue      map[string]string           `yaml:"queue,omitempty" mapstructure:"queue"`
	Runtime    *RuntimeConfig              `yaml:"runtime,omitempty" mapstructure:"runtime"`
}

// SystemConfig identifies the system as a whole.
type SystemConfig struct {
	IDSystem string `yaml:"id_system" mapstructure:"id_system"`
}

// HostConfig describes one process host.
type HostConfig struct {
	Hostname       string `yaml:"hostname,omitempty" mapstructure:"hostname"`
	AcctRun        string `yaml:"acct_run,omitempty" mapstructure:"acct_run"`
	AcctProvision  string `yaml:"acct_provision,omitempty" mapstructure:"acct_provision"`
	PortRange      string `yaml:"port_range,omitempty" mapstructure:"port_range"`
	Password       string `yaml:"password,omitempty" mapstructure:"password"`
	KeyFilename    string `yaml:"key_filename,omitempty" mapstructure:"key_filename"`
	DirpathInstall string `yaml:"dirpath_install,omitempty" mapstructure:"dirpath_install"`
	DirpathVenv    string `yaml:"dirpath_venv,omitempty" mapstructure:"dirpath_venv"`
	DirpathLog     string `yaml:"dirpath_log,omitempty" mapstructure:"dirpath_log"`
	LogLevel       string `yaml:"log_level,omitempty" mapstructure:"log_level"`
	RedisAddr      string `yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`

	// Derived by Denormalize.
	IsInterHostEdgeOwner bool `yaml:"is_inter_host_edge_owner,omitempty" mapstructure:"is_inter_host_edge_owner"`
}

// ProcessConfig assigns a process to a host.
type ProcessConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
}

// NodeConfig describes one compute node.
type NodeConfig struct {
	Process       string               `yaml:"process" mapstructure:"process"`
	Functionality *FunctionalityConfig `yaml:"functionality" mapstructure:"functionality"`
	StateType     string               `yaml:"state_type,omitempty" mapstructure:"state_type"`
	ReqHostCfg    string               `yaml:"req_host_cfg,omitempty" mapstructure:"req_host_cfg"`
	Config        map[string]any       `yaml:"config,omitempty" mapstructure:"config"`

	// Derived by Denormalize.
	Host string `yaml:"host,omitempty" mapstructure:"host"`
}

// FunctionalityConfig names the registered node factory and carries its
// frozen argument record.
type FunctionalityConfig struct {
	EntryPoint string         `yaml:"entry_point,omitempty" mapstructure:"entry_point"`
	Args       map[string]any `yaml:"args,omitempty" mapstructure:"args"`
}

// HostRequirement describes host-side requirements referenced by nodes.
type HostRequirement struct {
	Role []string       `yaml:"role,omitempty" mapstructure:"role"`
	Cfg  map[string]any `yaml:"cfg,omitempty" mapstructure:"cfg"`
}

// EdgeConfig describes one directed, typed connection between a producer
// output port and a consumer input port.
type EdgeConfig struct {
	Owner string `yaml:"owner" mapstructure:"owner"`
	Data  string `yaml:"data" mapstructure:"data"`
	Src   string `yaml:"src" mapstructure:"src"`
	Dst   string `yaml:"dst" mapstructure:"dst"`
	Dirn  string `yaml:"dirn,omitempty" mapstructure:"dirn"`

	// Derived by Denormalize.
	IDEdge        string   `yaml:"id_edge,omitempty" mapstructure:"id_edge"`
	RelpathSrc    []string `yaml:"relpath_src,omitempty" mapstructure:"relpath_src"`
	RelpathDst    []string `yaml:"relpath_dst,omitempty" mapstructure:"relpath_dst"`
	IDNodeSrc     string   `yaml:"id_node_src,omitempty" mapstructure:"id_node_src"`
	IDNodeDst     string   `yaml:"id_node_dst,omitempty" mapstructure:"id_node_dst"`
	IDHostSrc     string   `yaml:"id_host_src,omitempty" mapstructure:"id_host_src"`
	IDHostDst     string   `yaml:"id_host_dst,omitempty" mapstructure:"id_host_dst"`
	IDHostOwner   string   `yaml:"id_host_owner,omitempty" mapstructure:"id_host_owner"`
	IPCType       string   `yaml:"ipc_type,omitempty" mapstructure:"ipc_type"`
	ListIDProcess []string `yaml:"list_id_process,omitempty" mapstructure:"list_id_process"`
	ListIDHost    []string `yaml:"list_id_host,omitempty" mapstructure:"list_id_host"`
	IdxEdge       *int     `yaml:"idx_edge,omitempty" mapstructure:"idx_edge"`
}

// TouchesProcess reports whether either endpoint lives in idProcess.
func (e *EdgeConfig) TouchesProcess(idProcess string) bool {
	for _, id := range e.ListIDProcess {
		if id == idProcess {
			return true
		}
	}
	return false
}

// TouchesHost reports whether either endpoint lives on idHost.
func (e *EdgeConfig) TouchesHost(idHost string) bool {
	for _, id := range e.ListIDHost {
		if id == idHost {
			return true
		}
	}
	return false
}

// RuntimeConfig is the per-run block stamped by Prepare and the
// orchestrator. It is treated as write-once by everything downstream.
type RuntimeConfig struct {
	Opt   RuntimeOptions `yaml:"opt" mapstructure:"opt"`
	ID    RuntimeID      `yaml:"id" mapstructure:"id"`
	State string         `yaml:"state,omitempty" mapstructure:"state"`
}

// RuntimeOptions carries run-scoped flags.
type RuntimeOptions struct {
	DoMakeReady   bool `yaml:"do_make_ready" mapstructure:"do_make_ready"`
	IsDistributed bool `yaml:"is_distributed" mapstructure:"is_distributed"`
}

// RuntimeID carries the identifiers of the current run, host, process
// and node. Fields not yet known hold placeholder values.
type RuntimeID struct {
	IDSystem  string `yaml:"id_system" mapstructure:"id_system"`
	IDCfg     string `yaml:"id_cfg" mapstructure:"id_cfg"`
	IDHost    string `yaml:"id_host" mapstructure:"id_host"`
	IDProcess string `yaml:"id_process" mapstructure:"id_process"`
	IDNode    string `yaml:"id_node" mapstructure:"id_node"`
	IDRun     string `yaml:"id_run" mapstructure:"id_run"`
	TsRun     string `yaml:"ts_run" mapstructure:"ts_run"`
}

// ParsePortRange parses a "LO-HI" port range string.
func ParsePortRange(portRange string) (lo, hi int, err error) {
	parts := strings.SplitN(portRange, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("port range %q is not of the form LO-HI", portRange)
	}
	lo, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("port range %q: %w", portRange, err)
	}
	hi, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("port range %q: %w", portRange, err)
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("port range %q: upper bound below lower bound", portRange)
	}
	return lo, hi, nil
}

// EdgePort returns the TCP port assigned to an inter-host edge: the
// lower bound of the owner host's port range plus the edge index.
func (c *Config) EdgePort(edge *EdgeConfig) (int, error) {
	if edge.IPCType != IPCInterHost || edge.IdxEdge == nil {
		return 0, fmt.Errorf("edge %s is not an inter-host edge", edge.IDEdge)
	}
	owner, ok := c.Host[edge.IDHostOwner]
	if !ok {
		return 0, fmt.Errorf("edge %s: unknown owner host %q", edge.IDEdge, edge.IDHostOwner)
	}
	lo, hi, err := ParsePortRange(owner.PortRange)
	if err != nil {
		return 0, fmt.Errorf("edge %s: %w", edge.IDEdge, err)
	}
	port := lo + *edge.IdxEdge
	if port > hi {
		return 0, fmt.Errorf("edge %s: insufficient port numbers available for graph", edge.IDEdge)
	}
	return port, nil
}

// HostIDs returns the sorted set of host ids referenced by processes.
func (c *Config) HostIDs() []string {
	set := make(map[string]bool)
	for _, proc := range c.Process {
		set[proc.Host] = true
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ProcessIDsOnHost returns the sorted process ids assigned to idHost.
func (c *Config) ProcessIDsOnHost(idHost string) []string {
	var ids []string
	for id, proc := range c.Process {
		if proc.Host == idHost {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// NodeIDsInProcess returns the sorted node ids assigned to idProcess.
func (c *Config) NodeIDsInProcess(idProcess string) []string {
	var ids []string
	for id, node := range c.Node {
		if node.Process == idProcess {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
