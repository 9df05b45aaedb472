package config

import (
	"strings"
)

// Default queue transport per edge class. A queue section in the config
// overrides individual entries.
var defaultQueueTransports = map[string]string{
	"inter_process":     "unix",
	"inter_host_server": "tcp_server",
	"inter_host_client": "tcp_client",
}

// Denormalize computes the derived fields of a prepared config in place:
// node host assignments, edge identities and IPC classes, inter-host
// edge indices, host ownership flags, and queue transport defaults.
//
// Denormalize is idempotent. Derived fields are assigned, never
// accumulated, so running it on an already-denormalized config is a
// no-op.
func Denormalize(cfg *Config) error {
	for _, node := range cfg.Node {
		proc, ok := cfg.Process[node.Process]
		if !ok {
			return NewCfgError("node references unknown process %q", node.Process)
		}
		node.Host = proc.Host
	}

	for _, host := range cfg.Host {
		host.IsInterHostEdgeOwner = false
	}

	for _, edge := range cfg.Edge {
		if err := denormEdge(cfg, edge); err != nil {
			return err
		}
	}

	// Inter-host edges are numbered per owner host in declaration order.
	// The index picks the edge's TCP port inside the host's port range,
	// so every process derives the same port from the same config.
	counter := make(map[string]int)
	for _, edge := range cfg.Edge {
		if edge.IPCType != IPCInterHost {
			edge.IdxEdge = nil
			continue
		}
		idx := counter[edge.IDHostOwner]
		counter[edge.IDHostOwner]++
		edge.IdxEdge = &idx
		cfg.Host[edge.IDHostOwner].IsInterHostEdgeOwner = true
	}

	if cfg.Queue == nil {
		cfg.Queue = make(map[string]string)
	}
	for class, transport := range defaultQueueTransports {
		if _, ok := cfg.Queue[class]; !ok {
			cfg.Queue[class] = transport
		}
	}

	return ValidateDenormalized(cfg)
}

func denormEdge(cfg *Config, edge *EdgeConfig) error {
	relpathSrc := strings.Split(edge.Src, ".")
	relpathDst := strings.Split(edge.Dst, ".")
	if len(relpathSrc) != 3 || len(relpathDst) != 3 {
		return NewCfgError("edge %s -> %s: endpoints must be of the form node.group.port",
			edge.Src, edge.Dst)
	}
	edge.RelpathSrc = relpathSrc
	edge.RelpathDst = relpathDst
	edge.IDNodeSrc = relpathSrc[0]
	edge.IDNodeDst = relpathDst[0]

	nodeSrc, ok := cfg.Node[edge.IDNodeSrc]
	if !ok {
		return NewCfgError("edge %s -> %s: unknown source node %q", edge.Src, edge.Dst, edge.IDNodeSrc)
	}
	nodeDst, ok := cfg.Node[edge.IDNodeDst]
	if !ok {
		return NewCfgError("edge %s -> %s: unknown destination node %q", edge.Src, edge.Dst, edge.IDNodeDst)
	}
	nodeOwner, ok := cfg.Node[edge.Owner]
	if !ok {
		return NewCfgError("edge %s -> %s: unknown owner node %q", edge.Src, edge.Dst, edge.Owner)
	}

	if edge.Dirn == "" {
		edge.Dirn = DirnFeedforward
	}

	edge.IDEdge = edge.Src + "-" + edge.Dst
	edge.IDHostSrc = nodeSrc.Host
	edge.IDHostDst = nodeDst.Host
	edge.IDHostOwner = nodeOwner.Host

	switch {
	case nodeSrc.Process == nodeDst.Process:
		edge.IPCType = IPCIntraProcess
	case nodeSrc.Host == nodeDst.Host:
		edge.IPCType = IPCInterProcess
	default:
		edge.IPCType = IPCInterHost
	}

	edge.ListIDProcess = uniqueOrdered(nodeSrc.Process, nodeDst.Process)
	edge.ListIDHost = uniqueOrdered(nodeSrc.Host, nodeDst.Host)
	return nil
}

func uniqueOrdered(first, second string) []string {
	if first == second {
		return []string{first}
	}
	return []string{first, second}
}
