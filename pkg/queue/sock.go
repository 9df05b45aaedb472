package queue

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// How long a dialing endpoint keeps retrying while it waits for its
// peer process to come up.
const dialTimeout = 30 * time.Second

// connFn produces the single connection an endpoint runs over. It is
// called once, from the endpoint's transfer goroutine, so Connect never
// blocks on peer startup ordering.
type connFn func() (net.Conn, error)

// acceptOnce returns a connFn that accepts one connection and then
// retires the listener.
func acceptOnce(listener net.Listener) connFn {
	return func() (net.Conn, error) {
		conn, err := listener.Accept()
		listener.Close()
		return conn, err
	}
}

// dialWithRetry returns a connFn that dials the address until the peer
// starts listening, with exponential backoff.
func dialWithRetry(network, address string) connFn {
	return func() (net.Conn, error) {
		var conn net.Conn
		policy := backoff.NewExponentialBackOff()
		policy.MaxElapsedTime = dialTimeout
		err := backoff.Retry(func() error {
			var dialErr error
			conn, dialErr = net.Dial(network, address)
			return dialErr
		}, policy)
		if err != nil {
			return nil, fmt.Errorf("dial %s %s: %w", network, address, err)
		}
		return conn, nil
	}
}

// sendEndpoint pushes frames over a connection from a bounded buffer.
type sendEndpoint struct {
	items chan any

	mu     sync.Mutex
	closed bool
	err    error

	closers []func()
}

func newSendEndpoint(connect connFn, closers ...func()) *sendEndpoint {
	e := &sendEndpoint{
		items:   make(chan any, endpointBuffer),
		closers: closers,
	}
	go e.run(connect)
	return e
}

func (e *sendEndpoint) run(connect connFn) {
	conn, err := connect()
	if err != nil {
		e.fail(err)
		for range e.items {
		}
		return
	}
	defer conn.Close()
	for item := range e.items {
		if err := writeFrame(conn, item); err != nil {
			e.fail(err)
			for range e.items {
			}
			return
		}
	}
}

func (e *sendEndpoint) fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err == nil {
		e.err = err
	}
}

func (e *sendEndpoint) NonBlockingWrite(item any) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.err != nil {
		err := e.err
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	select {
	case e.items <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

func (e *sendEndpoint) BlockingRead() (any, error) {
	return nil, fmt.Errorf("endpoint is send-only")
}

func (e *sendEndpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	close(e.items)
	for _, closer := range e.closers {
		closer()
	}
	return nil
}

// recvEndpoint pulls frames from a connection into a bounded buffer.
type recvEndpoint struct {
	items chan any
	done  chan struct{}

	mu     sync.Mutex
	closed bool
	err    error
	conn   net.Conn

	closers []func()
}

func newRecvEndpoint(connect connFn, closers ...func()) *recvEndpoint {
	e := &recvEndpoint{
		items:   make(chan any, endpointBuffer),
		done:    make(chan struct{}),
		closers: closers,
	}
	go e.run(connect)
	return e
}

func (e *recvEndpoint) run(connect connFn) {
	conn, err := connect()
	if err != nil {
		e.fail(err)
		close(e.items)
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		conn.Close()
		close(e.items)
		return
	}
	e.conn = conn
	e.mu.Unlock()

	for {
		item, err := readFrame(conn)
		if err != nil {
			e.fail(err)
			close(e.items)
			return
		}
		// The buffer may be full with nobody reading anymore; a closed
		// endpoint must still let this goroutine exit.
		select {
		case e.items <- item:
		case <-e.done:
			close(e.items)
			return
		}
	}
}

func (e *recvEndpoint) fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err == nil {
		e.err = err
	}
}

func (e *recvEndpoint) BlockingRead() (any, error) {
	item, ok := <-e.items
	if !ok {
		e.mu.Lock()
		err := e.err
		closed := e.closed
		e.mu.Unlock()
		if closed || err == nil {
			return nil, ErrClosed
		}
		return nil, err
	}
	return item, nil
}

func (e *recvEndpoint) NonBlockingWrite(item any) error {
	return fmt.Errorf("endpoint is receive-only")
}

func (e *recvEndpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	conn := e.conn
	e.mu.Unlock()

	close(e.done)
	if conn != nil {
		conn.Close()
	}
	for _, closer := range e.closers {
		closer()
	}
	return nil
}
