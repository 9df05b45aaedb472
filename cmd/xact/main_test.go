package main

import (
	"errors"
	"strings"
	"testing"
)

func TestAsExitStatus(t *testing.T) {
	if err := asExitStatus(0, nil); err != nil {
		t.Errorf("clean halt should be nil, got %v", err)
	}

	wrapped := errors.New("boom")
	if err := asExitStatus(1, wrapped); err != wrapped {
		t.Errorf("error should pass through, got %v", err)
	}

	err := asExitStatus(3, nil)
	var halt *errHalt
	if !errors.As(err, &halt) {
		t.Fatalf("nonzero halt should yield errHalt, got %v", err)
	}
	if halt.returnCode != 3 {
		t.Errorf("returnCode = %d, want 3", halt.returnCode)
	}
	// The message main prints to stderr before exiting with the code.
	if !strings.Contains(halt.Error(), "3") {
		t.Errorf("halt message %q should name the return code", halt.Error())
	}
}
