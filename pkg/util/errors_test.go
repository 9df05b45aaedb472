package util

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationBuilder(t *testing.T) {
	v := &ValidationBuilder{}
	if v.HasErrors() {
		t.Error("fresh builder reports errors")
	}
	if err := v.Build(); err != nil {
		t.Errorf("Build() on empty builder = %v, want nil", err)
	}

	v.Add(true, "should not appear").
		Add(false, "first failure").
		AddErrorf("second %s", "failure")

	err := v.Build()
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("Build() error does not wrap ErrValidationFailed: %v", err)
	}
	msg := err.Error()
	if strings.Contains(msg, "should not appear") {
		t.Errorf("passing condition leaked into error: %s", msg)
	}
	if !strings.Contains(msg, "first failure") || !strings.Contains(msg, "second failure") {
		t.Errorf("error missing accumulated messages: %s", msg)
	}
}

func TestDependencyError(t *testing.T) {
	err := NewDependencyError("node counter", "process", "main")
	if !errors.Is(err, ErrDependencyMissing) {
		t.Errorf("DependencyError does not wrap ErrDependencyMissing")
	}
	if !strings.Contains(err.Error(), "main") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
