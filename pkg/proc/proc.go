// Package proc runs the scheduler for one process: it instantiates the
// process's nodes, wires their edges, and drives the reset/step loop
// until a control signal ends the run.
package proc

import (
	"errors"
	"fmt"

	"github.com/xact-systems/xact/pkg/config"
	"github.com/xact-systems/xact/pkg/data"
	"github.com/xact-systems/xact/pkg/node"
	"github.com/xact-systems/xact/pkg/queue"
	"github.com/xact-systems/xact/pkg/signal"
	"github.com/xact-systems/xact/pkg/util"
)

// Start runs the scheduler for idProcess on idHost until the graph
// halts or fails. It returns the run's return code; a non-recoverable
// condition comes back as an error instead.
//
// cfg must be denormalized. It is not mutated, so several schedulers can
// share one config in a single OS process.
func Start(cfg *config.Config, idHost, idProcess string) (int, error) {
	log := util.Logger.WithFields(map[string]any{
		"id_system":  cfg.System.IDSystem,
		"id_process": idProcess,
	})

	sched, err := newScheduler(cfg, idHost, idProcess)
	if err != nil {
		return 1, err
	}
	defer sched.teardown()

	log.Info("process starting")
	attempt := 0
	for {
		if sig := sched.resetAll(); sig != nil {
			if halt, ok := sig.(*signal.Halt); ok {
				return halt.ReturnCode, nil
			}
			return 1, sig
		}

		sig := sched.stepUntilSignal()
		switch typed := sig.(type) {
		case *signal.Halt:
			log.WithField("return_code", typed.ReturnCode).Info("process halting")
			return typed.ReturnCode, nil
		case *signal.ResetAndRetry:
			attempt++
			log.WithField("attempt", attempt).Warnf("resetting process: %v", typed)
			continue
		default:
			log.Errorf("process failed: %v", sig)
			return 1, sig
		}
	}
}

// scheduler holds the instantiated nodes of one process in execution
// order.
type scheduler struct {
	nodes     map[string]*node.Node
	order     []string
	endpoints map[string]queue.Endpoint
}

func newScheduler(cfg *config.Config, idHost, idProcess string) (*scheduler, error) {
	if len(cfg.NodeIDsInProcess(idProcess)) == 0 {
		return nil, fmt.Errorf("process %q has no nodes", idProcess)
	}

	allocators, err := data.Allocators(cfg.Data)
	if err != nil {
		return nil, err
	}

	endpoints, err := queue.Connect(cfg, idHost, idProcess)
	if err != nil {
		return nil, err
	}

	sched := &scheduler{
		nodes:     make(map[string]*node.Node),
		endpoints: endpoints,
	}
	for _, idNode := range cfg.NodeIDsInProcess(idProcess) {
		n, err := node.New(cfg, idNode, allocators)
		if err != nil {
			sched.teardown()
			return nil, err
		}
		sched.nodes[idNode] = n
	}

	if err := sched.wireEdges(cfg, idProcess, allocators); err != nil {
		sched.teardown()
		return nil, err
	}

	order, err := executionOrder(cfg, idProcess)
	if err != nil {
		sched.teardown()
		return nil, err
	}
	sched.order = order
	return sched, nil
}

// wireEdges binds every edge that touches the process. Intra-process
// edges alias the producer's output buffer into the consumer's input
// port; edges crossing the boundary attach their queue endpoint on
// whichever side lives here.
func (s *scheduler) wireEdges(cfg *config.Config, idProcess string, allocators map[string]data.Allocator) error {
	for _, edge := range cfg.Edge {
		if !edge.TouchesProcess(idProcess) {
			continue
		}
		portSrc := edge.RelpathSrc[2]
		portDst := edge.RelpathDst[2]

		if edge.IPCType == config.IPCIntraProcess {
			producer := s.nodes[edge.IDNodeSrc]
			consumer := s.nodes[edge.IDNodeDst]
			buffer, err := producer.OutputBuffer(portSrc)
			if err != nil {
				return err
			}
			consumer.BindInput(portDst, buffer)
			continue
		}

		endpoint, ok := s.endpoints[edge.IDEdge]
		if !ok {
			return fmt.Errorf("edge %s has no endpoint", edge.IDEdge)
		}
		if producer, ok := s.nodes[edge.IDNodeSrc]; ok {
			producer.AttachOutputQueue(portSrc, endpoint)
			continue
		}
		consumer, ok := s.nodes[edge.IDNodeDst]
		if !ok {
			return fmt.Errorf("edge %s touches process %s but neither node is local",
				edge.IDEdge, idProcess)
		}
		alloc, ok := allocators[edge.Data]
		if !ok {
			return fmt.Errorf("edge %s: unknown data type %q", edge.IDEdge, edge.Data)
		}
		consumer.AttachInputQueue(portDst, endpoint, alloc)
	}
	return nil
}

// executionOrder flattens the topological tranches of the process's
// feedforward graph into the per-pass node order.
func executionOrder(cfg *config.Config, idProcess string) ([]string, error) {
	tranches, err := util.TopologicalTranches(config.FeedforwardGraph(cfg, idProcess))
	if err != nil {
		return nil, fmt.Errorf("process %s: %w", idProcess, err)
	}
	var order []string
	for _, tranche := range tranches {
		order = append(order, tranche...)
	}
	return order, nil
}

// resetAll resets every node in execution order and merges anything they
// signal.
func (s *scheduler) resetAll() signal.ControlSignal {
	var signals []signal.ControlSignal
	for _, idNode := range s.order {
		if sig := s.nodes[idNode].Reset(); sig != nil {
			signals = append(signals, sig)
		}
	}
	return signal.Merge(signals)
}

// stepUntilSignal runs passes over the graph until some node signals.
// Signals raised within one pass are merged so the highest-priority one
// wins, and the pass always completes before the scheduler reacts.
func (s *scheduler) stepUntilSignal() signal.ControlSignal {
	for {
		var signals []signal.ControlSignal
		for _, idNode := range s.order {
			if sig := s.nodes[idNode].Step(); sig != nil {
				signals = append(signals, sig)
			}
		}
		if merged := signal.Merge(signals); merged != nil {
			return merged
		}
	}
}

func (s *scheduler) teardown() {
	for _, idNode := range util.SortedKeys(s.nodes) {
		s.nodes[idNode].Teardown()
	}
	for _, idEdge := range util.SortedKeys(s.endpoints) {
		s.endpoints[idEdge].Close()
	}
}

// IsHalt reports whether err is a clean halt rather than a failure.
func IsHalt(err error) bool {
	var halt *signal.Halt
	return errors.As(err, &halt)
}
