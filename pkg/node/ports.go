// Package node implements the compute node runtime: functionality
// resolution, port binding, the reset/step contract, and the coroutine
// adapter.
package node

import (
	"fmt"
	"sort"
)

// Buffer is one shared data slot. Edges inside a process alias the same
// Buffer on both ends, so a producer's write is immediately visible to
// its consumers without copying.
type Buffer struct {
	Value any
}

// NewBuffer wraps an initial value.
func NewBuffer(value any) *Buffer {
	return &Buffer{Value: value}
}

// Ports is the set of named buffers a node sees as its inputs or
// outputs. Node code reads and writes buffer values; only the runtime
// binds ports, so functionality code cannot break edge aliasing.
type Ports struct {
	buffers map[string]*Buffer
}

func newPorts() *Ports {
	return &Ports{buffers: make(map[string]*Buffer)}
}

// Get returns the buffer bound to name, or nil when the port does not
// exist.
func (p *Ports) Get(name string) *Buffer {
	return p.buffers[name]
}

// Has reports whether the port exists.
func (p *Ports) Has(name string) bool {
	_, ok := p.buffers[name]
	return ok
}

// Names returns the port names in sorted order.
func (p *Ports) Names() []string {
	names := make([]string, 0, len(p.buffers))
	for name := range p.buffers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustGet returns the buffer bound to name and panics when the port is
// missing. Functionality code uses it for ports the config guarantees.
func (p *Ports) MustGet(name string) *Buffer {
	buffer, ok := p.buffers[name]
	if !ok {
		panic(fmt.Sprintf("no port named %q", name))
	}
	return buffer
}

func (p *Ports) bind(name string, buffer *Buffer) {
	p.buffers[name] = buffer
}
