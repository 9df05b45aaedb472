// Package queue provides the inter-process and inter-host message
// transports that carry edge traffic between schedulers.
package queue

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/xact-systems/xact/pkg/config"
)

// Capacity of the buffering between a node and its transport. A full
// buffer makes NonBlockingWrite fail fast instead of stalling the step
// loop.
const endpointBuffer = 64

var (
	// ErrQueueFull is returned by NonBlockingWrite when the consumer has
	// fallen behind and the endpoint buffer is exhausted.
	ErrQueueFull = errors.New("queue full")

	// ErrClosed is returned once an endpoint has been closed or its peer
	// has disconnected.
	ErrClosed = errors.New("queue closed")
)

// Endpoint is one end of an edge that crosses a process boundary.
// Senders use NonBlockingWrite; receivers use BlockingRead.
type Endpoint interface {
	BlockingRead() (any, error)
	NonBlockingWrite(item any) error
	Close() error
}

// Factory builds an endpoint for one edge. sender is true on the side
// that hosts the edge's source node.
type Factory func(cfg *config.Config, edge *config.EdgeConfig, sender bool) (Endpoint, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// RegisterTransport makes a transport available under id. Later
// registrations replace earlier ones, which lets tests swap in doubles.
func RegisterTransport(id string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[id] = factory
}

func lookupTransport(id string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[id]
	return factory, ok
}

// Connect builds the endpoints for every non-intra-process edge that
// touches idProcess, keyed by edge id. The transport for each edge comes
// from the config's queue selector table, resolved per edge class:
// inter_process, or inter_host_server on the owner host and
// inter_host_client elsewhere.
//
// Both ends of an edge resolve the same transport family, so the two
// processes rendezvous on the same socket, port, or key.
func Connect(cfg *config.Config, idHost, idProcess string) (map[string]Endpoint, error) {
	endpoints := make(map[string]Endpoint)
	for _, edge := range cfg.Edge {
		if edge.IPCType == config.IPCIntraProcess || !edge.TouchesProcess(idProcess) {
			continue
		}

		class, err := edgeClass(edge, idHost)
		if err != nil {
			closeAll(endpoints)
			return nil, err
		}
		transportID, ok := cfg.Queue[class]
		if !ok {
			closeAll(endpoints)
			return nil, fmt.Errorf("no transport configured for edge class %q", class)
		}
		factory, ok := lookupTransport(transportID)
		if !ok {
			closeAll(endpoints)
			return nil, fmt.Errorf("unknown queue transport %q for edge %s", transportID, edge.IDEdge)
		}

		sender := senderProcess(cfg, edge) == idProcess
		endpoint, err := factory(cfg, edge, sender)
		if err != nil {
			closeAll(endpoints)
			return nil, fmt.Errorf("edge %s: %w", edge.IDEdge, err)
		}
		endpoints[edge.IDEdge] = endpoint
	}
	return endpoints, nil
}

func edgeClass(edge *config.EdgeConfig, idHost string) (string, error) {
	switch edge.IPCType {
	case config.IPCInterProcess:
		return "inter_process", nil
	case config.IPCInterHost:
		if edge.IDHostOwner == idHost {
			return "inter_host_server", nil
		}
		return "inter_host_client", nil
	}
	return "", fmt.Errorf("edge %s has unexpected ipc type %q", edge.IDEdge, edge.IPCType)
}

func senderProcess(cfg *config.Config, edge *config.EdgeConfig) string {
	node, ok := cfg.Node[edge.IDNodeSrc]
	if !ok {
		return ""
	}
	return node.Process
}

func closeAll(endpoints map[string]Endpoint) {
	ids := make([]string, 0, len(endpoints))
	for id := range endpoints {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		endpoints[id].Close()
	}
}
