package node

import (
	"errors"

	"github.com/xact-systems/xact/pkg/signal"
)

// errCoroShutdown is what Yield returns inside the body once the runtime
// has started tearing the coroutine down.
var errCoroShutdown = errors.New("coroutine shut down")

// errCoroReturned marks a body that returned without an error before the
// runtime was done stepping it.
var errCoroReturned = errors.New("coroutine returned")

// coroRunner adapts a CoroFn body to the reset/step contract. The body
// runs in its own goroutine and parks in Yield between steps.
type coroRunner struct {
	resume  chan struct{}
	yielded chan error
	done    chan struct{}
}

// startCoro launches the body and primes it: the body runs until its
// first Yield, so its outputs are populated before the first step.
func startCoro(fn CoroFn, ctx *Context) (*coroRunner, error) {
	c := &coroRunner{
		resume:  make(chan struct{}),
		yielded: make(chan error),
		done:    make(chan struct{}),
	}

	yield := func() error {
		select {
		case c.yielded <- nil:
		case <-c.done:
			return errCoroShutdown
		}
		select {
		case <-c.resume:
			return nil
		case <-c.done:
			return errCoroShutdown
		}
	}

	go func() {
		err := runBody(fn, ctx, yield)
		if errors.Is(err, errCoroShutdown) {
			return
		}
		if err == nil {
			err = errCoroReturned
		}
		select {
		case c.yielded <- err:
		case <-c.done:
		}
	}()

	if err := <-c.yielded; err != nil {
		c.stop()
		return nil, err
	}
	return c, nil
}

func runBody(fn CoroFn, ctx *Context, yield Yield) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = signal.NonRecoverablef("coroutine panicked: %v", recovered)
		}
	}()
	return fn(ctx, yield)
}

// step resumes the body until its next Yield. A body that returns
// cleanly instead of yielding is a non-recoverable condition, since the
// scheduler expected another value from it.
func (c *coroRunner) step() error {
	select {
	case c.resume <- struct{}{}:
	case <-c.done:
		return signal.NonRecoverablef("coroutine already shut down")
	}
	err := <-c.yielded
	if err == nil {
		return nil
	}
	c.stop()
	if errors.Is(err, errCoroReturned) {
		return signal.NonRecoverablef("coroutine terminated")
	}
	return err
}

// stop releases the body goroutine. Safe to call more than once.
func (c *coroRunner) stop() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}
