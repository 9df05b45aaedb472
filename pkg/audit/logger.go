package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xact-systems/xact/pkg/util"
)

// Logger is the run history backend.
type Logger interface {
	Log(event *Event) error
	Query(filter Filter) ([]*Event, error)
	Close() error
}

// FileLogger appends events to a JSON-lines file with size-based
// rotation.
type FileLogger struct {
	path     string
	file     *os.File
	encoder  *json.Encoder
	mu       sync.RWMutex
	rotation RotationConfig
}

// RotationConfig configures history file rotation.
type RotationConfig struct {
	MaxSize    int64 // bytes before rotation
	MaxBackups int   // old files to retain
}

// DefaultPath returns the per-user run history location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "xact_runs.log"
	}
	return filepath.Join(home, ".xact", "runs.log")
}

// NewFileLogger opens (or creates) a run history file.
func NewFileLogger(path string, rotation RotationConfig) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating run history directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening run history: %w", err)
	}
	return &FileLogger{
		path:     path,
		file:     file,
		encoder:  json.NewEncoder(file),
		rotation: rotation,
	}, nil
}

// Log appends one event.
func (l *FileLogger) Log(event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rotation.MaxSize > 0 {
		if info, err := l.file.Stat(); err == nil && info.Size() >= l.rotation.MaxSize {
			if err := l.rotate(); err != nil {
				return fmt.Errorf("rotating run history: %w", err)
			}
		}
	}
	return l.encoder.Encode(event)
}

// Query returns events matching the filter, most recent last.
func (l *FileLogger) Query(filter Filter) ([]*Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var events []*Event
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			util.Warnf("run history: skipping malformed entry at line %d: %v", line, err)
			continue
		}
		if matchesFilter(&event, filter) {
			events = append(events, &event)
		}
	}
	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[len(events)-filter.Limit:]
	}
	return events, scanner.Err()
}

func matchesFilter(event *Event, filter Filter) bool {
	if filter.IDSystem != "" && event.IDSystem != filter.IDSystem {
		return false
	}
	if filter.Operation != "" && event.Operation != filter.Operation {
		return false
	}
	if filter.FailureOnly && event.Success {
		return false
	}
	return true
}

// Close flushes and closes the history file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// rotate shifts runs.log to runs.log.1 and so on, dropping the oldest
// backup beyond MaxBackups.
func (l *FileLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}
	maxBackups := l.rotation.MaxBackups
	if maxBackups < 1 {
		maxBackups = 1
	}
	os.Remove(fmt.Sprintf("%s.%d", l.path, maxBackups))
	for i := maxBackups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", l.path, i), fmt.Sprintf("%s.%d", l.path, i+1))
	}
	if err := os.Rename(l.path, l.path+".1"); err != nil && !os.IsNotExist(err) {
		return err
	}
	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	l.file = file
	l.encoder = json.NewEncoder(file)
	return nil
}

// NopLogger discards events. Used when the history file cannot be
// opened; running the system matters more than recording it.
type NopLogger struct{}

func (NopLogger) Log(*Event) error               { return nil }
func (NopLogger) Query(Filter) ([]*Event, error) { return nil, nil }
func (NopLogger) Close() error                   { return nil }
