package queue

import (
	"sync"

	"github.com/xact-systems/xact/pkg/config"
)

func init() {
	RegisterTransport("memory", memoryTransport)
}

// memoryChannels rendezvous the two ends of an in-memory edge by system
// and edge id. Used when both schedulers run inside one process, which
// is how local-mode runs and the test suite exercise cross-process
// edges.
var (
	memoryMu       sync.Mutex
	memoryChannels = make(map[string]chan any)
)

func memoryChannel(key string) chan any {
	memoryMu.Lock()
	defer memoryMu.Unlock()
	ch, ok := memoryChannels[key]
	if !ok {
		ch = make(chan any, endpointBuffer)
		memoryChannels[key] = ch
	}
	return ch
}

// ResetMemoryTransport drops all in-memory channels. Tests call this
// between runs so edges from one scenario cannot leak into the next.
func ResetMemoryTransport() {
	memoryMu.Lock()
	defer memoryMu.Unlock()
	memoryChannels = make(map[string]chan any)
}

func memoryTransport(cfg *config.Config, edge *config.EdgeConfig, sender bool) (Endpoint, error) {
	ch := memoryChannel(cfg.System.IDSystem + ":" + edge.IDEdge)
	return &memoryEndpoint{ch: ch, sender: sender}, nil
}

type memoryEndpoint struct {
	ch     chan any
	sender bool

	mu     sync.Mutex
	closed bool
}

func (e *memoryEndpoint) NonBlockingWrite(item any) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}
	select {
	case e.ch <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

func (e *memoryEndpoint) BlockingRead() (any, error) {
	item, ok := <-e.ch
	if !ok {
		return nil, ErrClosed
	}
	return item, nil
}

// Close marks the endpoint closed. The sending side also closes the
// shared channel so a peer parked in BlockingRead wakes up and sees the
// disconnect.
func (e *memoryEndpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.sender {
		close(e.ch)
	}
	return nil
}
