package node

import (
	"fmt"
	"sync"

	"github.com/xact-systems/xact/pkg/config"
)

// Context is what functionality code receives on every reset and step.
type Context struct {
	// Runtime identifies the current run, host, process, and node.
	Runtime config.RuntimeID

	// Cfg holds the node's frozen functionality args merged under the
	// node's config section.
	Cfg map[string]any

	// State persists across steps and is replaced on reset.
	State map[string]any

	Inputs  *Ports
	Outputs *Ports
}

// ResetFn initialises a node. It runs once at startup and again after
// every reset-and-retry.
type ResetFn func(ctx *Context) error

// StepFn advances a node by one step. Returning a control signal steers
// the scheduler; any other error shuts the process down.
type StepFn func(ctx *Context) error

// Yield suspends a coroutine until the next step. It returns an error
// when the runtime is tearing the coroutine down, in which case the body
// should return promptly.
type Yield func() error

// CoroFn is the coroutine form of node functionality: a body that runs
// across steps, calling yield after producing each output.
type CoroFn func(ctx *Context, yield Yield) error

// Functionality bundles the callable forms of a node implementation.
// Either Coro is set, or Step (with an optional Reset).
type Functionality struct {
	Reset ResetFn
	Step  StepFn
	Coro  CoroFn
}

var (
	fnMu       sync.RWMutex
	fnRegistry = make(map[string]Functionality)
)

// Register makes a functionality available under its entry point name.
func Register(entryPoint string, fn Functionality) {
	fnMu.Lock()
	defer fnMu.Unlock()
	fnRegistry[entryPoint] = fn
}

// Resolve looks up a registered entry point.
func Resolve(entryPoint string) (Functionality, error) {
	fnMu.RLock()
	defer fnMu.RUnlock()
	fn, ok := fnRegistry[entryPoint]
	if !ok {
		return Functionality{}, fmt.Errorf("no functionality registered for entry point %q", entryPoint)
	}
	return fn, nil
}
