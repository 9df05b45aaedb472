// Package signal defines the control signals nodes use to influence the
// scheduler.
//
// Signals are ordinary error values. A step or reset function may return
// one (or any other error, which the node runtime converts into a
// NonRecoverableError). The scheduler collects the signals raised during
// one pass and honours the highest-priority one: NonRecoverableError,
// then Halt, then ResetAndRetry.
package signal

import (
	"errors"
	"fmt"
)

// ControlSignal is implemented by every xact control signal.
type ControlSignal interface {
	error
	controlSignal()
}

// Halt triggers a graceful process shutdown when the run is finished.
type Halt struct {
	ReturnCode int
}

func (s *Halt) Error() string {
	return fmt.Sprintf("halt (return code %d)", s.ReturnCode)
}

func (s *Halt) controlSignal() {}

// ResetAndRetry triggers a reset-and-retry on the current process. It is
// used for controlled recovery from an error condition.
type ResetAndRetry struct {
	Reason string
}

func (s *ResetAndRetry) Error() string {
	if s.Reason == "" {
		return "reset and retry"
	}
	return "reset and retry: " + s.Reason
}

func (s *ResetAndRetry) controlSignal() {}

// NonRecoverableError triggers an immediate shutdown of the current
// process in an unplanned erroneous condition.
type NonRecoverableError struct {
	Cause error
}

func (s *NonRecoverableError) Error() string {
	if s.Cause == nil {
		return "non-recoverable error"
	}
	return "non-recoverable error: " + s.Cause.Error()
}

func (s *NonRecoverableError) controlSignal() {}

func (s *NonRecoverableError) Unwrap() error {
	return s.Cause
}

// NonRecoverablef builds a NonRecoverableError from a format string.
func NonRecoverablef(format string, args ...interface{}) *NonRecoverableError {
	return &NonRecoverableError{Cause: fmt.Errorf(format, args...)}
}

// FromError normalises an error raised by user code: control signals pass
// through unchanged, anything else becomes a NonRecoverableError.
func FromError(err error) ControlSignal {
	if err == nil {
		return nil
	}
	var cs ControlSignal
	if errors.As(err, &cs) {
		return cs
	}
	return &NonRecoverableError{Cause: err}
}

// Merge returns the highest-priority signal in the list, or nil when the
// list is empty. Priority order: NonRecoverableError, Halt, ResetAndRetry.
func Merge(signals []ControlSignal) ControlSignal {
	var halt, retry ControlSignal
	for _, sig := range signals {
		switch sig.(type) {
		case *NonRecoverableError:
			return sig
		case *Halt:
			if halt == nil {
				halt = sig
			}
		case *ResetAndRetry:
			if retry == nil {
				retry = sig
			}
		}
	}
	if halt != nil {
		return halt
	}
	return retry
}
