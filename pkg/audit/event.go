// Package audit records system lifecycle operations to a local run
// history, so `xact system runs` can show what was started where, by
// whom, and how it ended.
package audit

import (
	"os/user"
	"time"

	"github.com/google/uuid"
)

// Event is one recorded system operation.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`

	IDSystem  string `json:"id_system"`
	IDCfg     string `json:"id_cfg,omitempty"`
	IDRun     string `json:"id_run,omitempty"`
	Operation string `json:"operation"`

	Hosts       []string      `json:"hosts,omitempty"`
	Distributed bool          `json:"distributed"`
	ReturnCode  int           `json:"return_code"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Operations recorded in the run history.
const (
	OpStart = "start"
	OpStop  = "stop"
	OpPause = "pause"
	OpStep  = "step"
)

// NewEvent creates an event for one operation on a system.
func NewEvent(idSystem, operation string) *Event {
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	return &Event{
		ID:        uuid.NewString()[:8],
		Timestamp: time.Now().UTC(),
		User:      username,
		IDSystem:  idSystem,
		Operation: operation,
	}
}

// WithRun attaches run identity.
func (e *Event) WithRun(idCfg, idRun string) *Event {
	e.IDCfg = idCfg
	e.IDRun = idRun
	return e
}

// WithHosts attaches the targeted hosts.
func (e *Event) WithHosts(hosts []string, distributed bool) *Event {
	e.Hosts = hosts
	e.Distributed = distributed
	return e
}

// Complete marks the event finished and records the outcome.
func (e *Event) Complete(returnCode int, err error) *Event {
	e.Duration = time.Since(e.Timestamp)
	e.ReturnCode = returnCode
	e.Success = err == nil
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// Filter selects events when querying the run history.
type Filter struct {
	IDSystem    string
	Operation   string
	FailureOnly bool
	Limit       int
}
