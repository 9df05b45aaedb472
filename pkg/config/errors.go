package config

import (
	"errors"
	"fmt"

	"github.com/xact-systems/xact/pkg/util"
)

// CfgError reports any violation of schema or referential consistency in
// the configuration. It is the only error kind that escapes Prepare. The
// message is written for humans; the CLI prints it without a stack trace.
type CfgError struct {
	Msg string
	Err error
}

func (e *CfgError) Error() string {
	switch {
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return e.Err.Error()
	default:
		return e.Msg + ": " + e.Err.Error()
	}
}

func (e *CfgError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return util.ErrInvalidConfig
}

func (e *CfgError) Is(target error) bool {
	return target == util.ErrInvalidConfig
}

// NewCfgError creates a CfgError from a format string.
func NewCfgError(format string, args ...interface{}) *CfgError {
	return &CfgError{Msg: fmt.Sprintf(format, args...)}
}

// WrapCfgError wraps err into a CfgError with context, passing an
// existing CfgError through unchanged.
func WrapCfgError(msg string, err error) *CfgError {
	var cfgErr *CfgError
	if errors.As(err, &cfgErr) {
		return cfgErr
	}
	return &CfgError{Msg: msg, Err: err}
}

// IsCfgError reports whether err is (or wraps) a CfgError.
func IsCfgError(err error) bool {
	var cfgErr *CfgError
	return errors.As(err, &cfgErr)
}
