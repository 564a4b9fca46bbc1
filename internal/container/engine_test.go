// SPDX-License-Identifier: MIT

package container

import (
	"errors"
	"strings"
	"testing"
)

func TestNewEngine_UnknownType(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(EngineType("lxc"))
	if err == nil {
		t.Fatal("NewEngine() expected error for unknown type, got nil")
	}
	if !strings.Contains(err.Error(), "unknown container engine type") {
		t.Errorf("error = %q, should mention unknown engine type", err)
	}
}

func TestErrEngineNotAvailable_Error(t *testing.T) {
	t.Parallel()

	err := &ErrEngineNotAvailable{Engine: "podman", Reason: "not installed"}
	want := "container engine 'podman' is not available: not installed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	var target *ErrEngineNotAvailable
	if !errors.As(error(err), &target) {
		t.Error("errors.As should match *ErrEngineNotAvailable")
	}
}
