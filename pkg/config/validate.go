package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xact-systems/xact/pkg/util"
)

var identRegexp = regexp.MustCompile(`^[a-z0-9_]+$`)

// Valid keys for the queue transport selector table.
var queueClasses = map[string]bool{
	"inter_process":     true,
	"inter_host_server": true,
	"inter_host_client": true,
}

// Validate checks a normalized config for structural and referential
// consistency. Every violation is reported, not just the first.
func Validate(cfg *Config) error {
	v := &util.ValidationBuilder{}

	validateIdent(v, "system.id_system", cfg.System.IDSystem)

	v.Add(len(cfg.Host) > 0, "config has no host section")
	v.Add(len(cfg.Process) > 0, "config has no process section")
	v.Add(len(cfg.Node) > 0, "config has no node section")

	for _, idHost := range util.SortedKeys(cfg.Host) {
		host := cfg.Host[idHost]
		validateIdent(v, "host id", idHost)
		if host.PortRange != "" {
			if _, _, err := ParsePortRange(host.PortRange); err != nil {
				v.AddErrorf("host %s: %v", idHost, err)
			}
		}
	}

	for _, idProcess := range util.SortedKeys(cfg.Process) {
		proc := cfg.Process[idProcess]
		validateIdent(v, "process id", idProcess)
		if _, ok := cfg.Host[proc.Host]; !ok {
			v.AddErrorf("process %s references unknown host %q", idProcess, proc.Host)
		}
	}

	for _, idNode := range util.SortedKeys(cfg.Node) {
		node := cfg.Node[idNode]
		validateIdent(v, "node id", idNode)
		if _, ok := cfg.Process[node.Process]; !ok {
			v.AddErrorf("node %s references unknown process %q", idNode, node.Process)
		}
		if node.Functionality == nil || node.Functionality.EntryPoint == "" {
			v.AddErrorf("node %s has no functionality entry point", idNode)
		}
		if node.StateType != "" {
			if _, ok := cfg.Data[node.StateType]; !ok {
				v.AddErrorf("node %s references unknown state type %q", idNode, node.StateType)
			}
		}
		if node.ReqHostCfg != "" {
			if _, ok := cfg.ReqHostCfg[node.ReqHostCfg]; !ok {
				v.AddErrorf("node %s references unknown host requirement %q", idNode, node.ReqHostCfg)
			}
		}
	}

	seenSrc := make(map[string]bool)
	seenDst := make(map[string]bool)
	for i, edge := range cfg.Edge {
		label := fmt.Sprintf("edge %d (%s -> %s)", i, edge.Src, edge.Dst)
		validateEdgePath(v, cfg, label, "src", edge.Src, "outputs")
		validateEdgePath(v, cfg, label, "dst", edge.Dst, "inputs")
		if _, ok := cfg.Node[edge.Owner]; !ok {
			v.AddErrorf("%s: owner references unknown node %q", label, edge.Owner)
		}
		if _, ok := cfg.Data[edge.Data]; !ok {
			v.AddErrorf("%s: references unknown data type %q", label, edge.Data)
		}
		if edge.Dirn != "" && edge.Dirn != DirnFeedforward && edge.Dirn != DirnFeedback {
			v.AddErrorf("%s: dirn must be %q or %q, got %q",
				label, DirnFeedforward, DirnFeedback, edge.Dirn)
		}
		if seenSrc[edge.Src] {
			v.AddErrorf("%s: output port %s feeds more than one edge", label, edge.Src)
		}
		if seenDst[edge.Dst] {
			v.AddErrorf("%s: input port %s is fed by more than one edge", label, edge.Dst)
		}
		seenSrc[edge.Src] = true
		seenDst[edge.Dst] = true
	}

	for _, class := range util.SortedKeys(cfg.Queue) {
		if !queueClasses[class] {
			v.AddErrorf("queue selector has unknown class %q", class)
		}
	}

	if v.HasErrors() {
		return WrapCfgError("config validation failed", v.Build())
	}
	return nil
}

func validateIdent(v *util.ValidationBuilder, what, ident string) {
	if ident == "" {
		v.AddErrorf("%s is missing", what)
		return
	}
	if !identRegexp.MatchString(ident) {
		v.AddErrorf("%s %q must match %s", what, ident, identRegexp.String())
	}
}

func validateEdgePath(v *util.ValidationBuilder, cfg *Config, label, role, path, wantGroup string) {
	segments := strings.Split(path, ".")
	if len(segments) != 3 {
		v.AddErrorf("%s: %s %q must be of the form node.%s.port", label, role, path, wantGroup)
		return
	}
	if segments[1] != wantGroup {
		v.AddErrorf("%s: %s %q must address the %s group", label, role, path, wantGroup)
	}
	if _, ok := cfg.Node[segments[0]]; !ok {
		v.AddErrorf("%s: %s references unknown node %q", label, role, segments[0])
	}
}

// ValidateDenormalized checks the constraints that only hold once the
// derived fields are in place: edge ownership, port budgets, and
// schedulability of each process.
func ValidateDenormalized(cfg *Config) error {
	v := &util.ValidationBuilder{}

	for _, edge := range cfg.Edge {
		if edge.IDHostOwner != edge.IDHostSrc && edge.IDHostOwner != edge.IDHostDst {
			v.AddErrorf("edge %s: owner host %s is neither the source host nor the destination host",
				edge.IDEdge, edge.IDHostOwner)
		}
		if edge.IPCType == IPCInterHost {
			if _, err := cfg.EdgePort(edge); err != nil {
				v.AddError(err.Error())
			}
		}
	}

	for _, idProcess := range util.SortedKeys(cfg.Process) {
		if _, err := util.TopologicalTranches(FeedforwardGraph(cfg, idProcess)); err != nil {
			v.AddErrorf("process %s is not schedulable: %v", idProcess, err)
		}
	}

	if v.HasErrors() {
		return WrapCfgError("config validation failed", v.Build())
	}
	return nil
}

// FeedforwardGraph builds the successor map over the nodes of one
// process, following only feedforward edges that stay inside the
// process. This is the graph the scheduler orders.
func FeedforwardGraph(cfg *Config, idProcess string) map[string][]string {
	forward := make(map[string][]string)
	for _, idNode := range cfg.NodeIDsInProcess(idProcess) {
		forward[idNode] = nil
	}
	for _, edge := range cfg.Edge {
		if edge.IPCType != IPCIntraProcess || edge.Dirn == DirnFeedback {
			continue
		}
		if !edge.TouchesProcess(idProcess) {
			continue
		}
		forward[edge.IDNodeSrc] = append(forward[edge.IDNodeSrc], edge.IDNodeDst)
	}
	return forward
}
