package node

import (
	"fmt"

	"github.com/xact-systems/xact/pkg/config"
	"github.com/xact-systems/xact/pkg/data"
	"github.com/xact-systems/xact/pkg/queue"
	"github.com/xact-systems/xact/pkg/signal"
	"github.com/xact-systems/xact/pkg/util"
)

// Node is one scheduled compute element. The scheduler resets it at the
// start of every run attempt and steps it once per pass.
type Node struct {
	ID string

	fn         Functionality
	ctx        *Context
	allocState data.Allocator

	// Endpoints for ports whose edges cross the process boundary,
	// keyed by port name.
	inputQueues  map[string]queue.Endpoint
	outputQueues map[string]queue.Endpoint

	coro *coroRunner
}

// New builds a node from its config. Output buffers for every outgoing
// edge are allocated here; input ports are bound afterwards by the
// scheduler, either aliased to a producer's buffer or allocated next to
// a queue endpoint.
func New(cfg *config.Config, idNode string, allocators map[string]data.Allocator) (*Node, error) {
	nodeCfg, ok := cfg.Node[idNode]
	if !ok {
		return nil, fmt.Errorf("unknown node %q", idNode)
	}
	fn, err := Resolve(nodeCfg.Functionality.EntryPoint)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", idNode, err)
	}

	runtimeID := config.RuntimeID{IDNode: idNode}
	if cfg.Runtime != nil {
		runtimeID = cfg.Runtime.ID
		runtimeID.IDNode = idNode
		runtimeID.IDProcess = nodeCfg.Process
		runtimeID.IDHost = nodeCfg.Host
	}

	n := &Node{
		ID: idNode,
		fn: fn,
		ctx: &Context{
			Runtime: runtimeID,
			Cfg:     nodeConfigMap(nodeCfg),
			Inputs:  newPorts(),
			Outputs: newPorts(),
		},
		inputQueues:  make(map[string]queue.Endpoint),
		outputQueues: make(map[string]queue.Endpoint),
	}

	if nodeCfg.StateType != "" {
		alloc, ok := allocators[nodeCfg.StateType]
		if !ok {
			return nil, fmt.Errorf("node %s: unknown state type %q", idNode, nodeCfg.StateType)
		}
		n.allocState = alloc
	}

	for _, edge := range cfg.Edge {
		if edge.IDNodeSrc == idNode {
			alloc, ok := allocators[edge.Data]
			if !ok {
				return nil, fmt.Errorf("node %s: unknown edge data type %q", idNode, edge.Data)
			}
			n.ctx.Outputs.bind(edge.RelpathSrc[2], NewBuffer(alloc()))
		}
	}
	return n, nil
}

// nodeConfigMap merges the functionality args under the node config
// section. Both are frozen at prepare time.
func nodeConfigMap(nodeCfg *config.NodeConfig) map[string]any {
	merged := make(map[string]any)
	if nodeCfg.Functionality != nil && nodeCfg.Functionality.Args != nil {
		merged = util.MergeMaps(merged, nodeCfg.Functionality.Args)
	}
	if nodeCfg.Config != nil {
		merged = util.MergeMaps(merged, nodeCfg.Config)
	}
	return merged
}

// OutputBuffer returns the buffer behind an output port.
func (n *Node) OutputBuffer(port string) (*Buffer, error) {
	buffer := n.ctx.Outputs.Get(port)
	if buffer == nil {
		return nil, fmt.Errorf("node %s has no output port %q", n.ID, port)
	}
	return buffer, nil
}

// BindInput aliases an input port to an existing buffer. The scheduler
// uses it to share a producer's output buffer across an intra-process
// edge.
func (n *Node) BindInput(port string, buffer *Buffer) {
	n.ctx.Inputs.bind(port, buffer)
}

// AttachInputQueue binds an input port to a fresh buffer fed from a
// queue endpoint.
func (n *Node) AttachInputQueue(port string, endpoint queue.Endpoint, alloc data.Allocator) {
	n.ctx.Inputs.bind(port, NewBuffer(alloc()))
	n.inputQueues[port] = endpoint
}

// AttachOutputQueue routes an output port's value onto a queue endpoint
// after every step.
func (n *Node) AttachOutputQueue(port string, endpoint queue.Endpoint) {
	n.outputQueues[port] = endpoint
}

// Reset (re)initialises the node: fresh state, a fresh coroutine if the
// functionality is a coroutine, and the reset function otherwise.
func (n *Node) Reset() signal.ControlSignal {
	if n.coro != nil {
		n.coro.stop()
		n.coro = nil
	}
	if n.allocState != nil {
		state, ok := n.allocState().(map[string]any)
		if !ok {
			return signal.NonRecoverablef("node %s: state type does not allocate a mapping", n.ID)
		}
		n.ctx.State = state
	} else {
		n.ctx.State = make(map[string]any)
	}

	if n.fn.Coro != nil {
		coro, err := startCoro(n.fn.Coro, n.ctx)
		if err != nil {
			return signal.FromError(fmt.Errorf("node %s: %w", n.ID, err))
		}
		n.coro = coro
		return nil
	}
	if n.fn.Reset != nil {
		if err := n.callGuarded(n.fn.Reset); err != nil {
			return signal.FromError(err)
		}
	}
	return nil
}

// Step advances the node once: drain queue-fed inputs, run the step
// function or resume the coroutine, then push queue-fed outputs.
func (n *Node) Step() signal.ControlSignal {
	for _, port := range util.SortedKeys(n.inputQueues) {
		item, err := n.inputQueues[port].BlockingRead()
		if err != nil {
			return signal.NonRecoverablef("node %s: read input %s: %v", n.ID, port, err)
		}
		n.ctx.Inputs.Get(port).Value = item
	}

	if n.coro != nil {
		if err := n.coro.step(); err != nil {
			return signal.FromError(fmt.Errorf("node %s: %w", n.ID, err))
		}
	} else if n.fn.Step != nil {
		if err := n.callGuarded(n.fn.Step); err != nil {
			return signal.FromError(err)
		}
	}

	for _, port := range util.SortedKeys(n.outputQueues) {
		value := n.ctx.Outputs.Get(port).Value
		if err := n.outputQueues[port].NonBlockingWrite(value); err != nil {
			return signal.NonRecoverablef("node %s: write output %s: %v", n.ID, port, err)
		}
	}
	return nil
}

// callGuarded runs fn with panic recovery so a broken node cannot take
// the scheduler down without a diagnosis.
func (n *Node) callGuarded(fn func(ctx *Context) error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = signal.NonRecoverablef("node %s panicked: %v", n.ID, recovered)
		}
	}()
	if callErr := fn(n.ctx); callErr != nil {
		return fmt.Errorf("node %s: %w", n.ID, callErr)
	}
	return nil
}

// Teardown releases the coroutine and the node's queue endpoints.
func (n *Node) Teardown() {
	if n.coro != nil {
		n.coro.stop()
		n.coro = nil
	}
	for _, port := range util.SortedKeys(n.inputQueues) {
		n.inputQueues[port].Close()
	}
	for _, port := range util.SortedKeys(n.outputQueues) {
		n.outputQueues[port].Close()
	}
}
