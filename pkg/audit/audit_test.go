package audit

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func testLogger(t *testing.T, rotation RotationConfig) *FileLogger {
	t.Helper()
	logger, err := NewFileLogger(filepath.Join(t.TempDir(), "runs.log"), rotation)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

func TestLogAndQuery(t *testing.T) {
	logger := testLogger(t, RotationConfig{})

	start := NewEvent("counter", OpStart).
		WithRun("deadbeef00000000", "11112222").
		WithHosts([]string{"localhost"}, false).
		Complete(0, nil)
	stop := NewEvent("counter", OpStop).Complete(0, nil)
	failed := NewEvent("other_system", OpStart).Complete(1, errors.New("boom"))

	for _, event := range []*Event{start, stop, failed} {
		if err := logger.Log(event); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	all, err := logger.Query(Filter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Query() returned %d events, want 3", len(all))
	}

	counters, err := logger.Query(Filter{IDSystem: "counter"})
	if err != nil {
		t.Fatal(err)
	}
	if len(counters) != 2 {
		t.Errorf("system filter returned %d events, want 2", len(counters))
	}

	starts, err := logger.Query(Filter{Operation: OpStart})
	if err != nil {
		t.Fatal(err)
	}
	if len(starts) != 2 {
		t.Errorf("operation filter returned %d events, want 2", len(starts))
	}

	failures, err := logger.Query(Filter{FailureOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 1 || failures[0].Error != "boom" {
		t.Errorf("failure filter returned %+v", failures)
	}
}

func TestQueryLimitKeepsMostRecent(t *testing.T) {
	logger := testLogger(t, RotationConfig{})
	for i := 0; i < 5; i++ {
		event := NewEvent("counter", OpStart)
		event.IDRun = fmt.Sprintf("run%d", i)
		if err := logger.Log(event); err != nil {
			t.Fatal(err)
		}
	}
	got, err := logger.Query(Filter{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].IDRun != "run3" || got[1].IDRun != "run4" {
		t.Errorf("limited query = %+v", got)
	}
}

func TestRotation(t *testing.T) {
	logger := testLogger(t, RotationConfig{MaxSize: 1, MaxBackups: 2})
	for i := 0; i < 3; i++ {
		if err := logger.Log(NewEvent("counter", OpStart)); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}
	// After rotation the live file holds only the newest entry.
	got, err := logger.Query(Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("live file has %d events after rotation, want 1", len(got))
	}
}

func TestEventComplete(t *testing.T) {
	event := NewEvent("counter", OpStart).Complete(3, errors.New("bad"))
	if event.Success {
		t.Error("failed event marked successful")
	}
	if event.ReturnCode != 3 || event.Error != "bad" {
		t.Errorf("event = %+v", event)
	}

	clean := NewEvent("counter", OpStop).Complete(0, nil)
	if !clean.Success || clean.Error != "" {
		t.Errorf("clean event = %+v", clean)
	}
}
