// SPDX-License-Identifier: MIT

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "load forgefile"},
			expected: "failed to load forgefile",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "load forgefile",
				Resource:  "./forgefile.cue",
			},
			expected: "failed to load forgefile: ./forgefile.cue",
		},
		{
			name: "operation with cause",
			err: &ActionableError{
				Operation: "build worker image",
				Cause:     errors.New("exit status 1"),
			},
			expected: "failed to build worker image: exit status 1",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load forgefile",
				Resource:  "./forgefile.cue",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to load forgefile: ./forgefile.cue: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying error")
	err := &ActionableError{Operation: "test", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	errNoCause := &ActionableError{Operation: "test"}
	if errNoCause.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	err := &ActionableError{
		Operation:   "install container engine",
		Resource:    "podman",
		Suggestions: []string{"Configure passwordless sudo", "Install podman manually"},
		Cause:       errors.New("sudo: a password is required"),
	}

	plain := err.Format(false)
	for _, want := range []string{
		"failed to install container engine",
		"podman",
		"• Configure passwordless sudo",
		"• Install podman manually",
	} {
		if !strings.Contains(plain, want) {
			t.Errorf("Format(false) = %q, should contain %q", plain, want)
		}
	}
	if strings.Contains(plain, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") {
		t.Error("Format(true) should include the error chain")
	}
	if !strings.Contains(verbose, "sudo: a password is required") {
		t.Error("Format(true) should include the cause message")
	}
}

func TestErrorContext_Builder(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := NewErrorContext().
		WithOperation("run test suite").
		WithResource("acme-worker:dev").
		WithSuggestion("Check the test output").
		Wrap(cause).
		BuildError()

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("BuildError() = %T, want *ActionableError", err)
	}
	if ae.Operation != "run test suite" {
		t.Errorf("Operation = %q", ae.Operation)
	}
	if !ae.HasSuggestions() {
		t.Error("HasSuggestions() = false, want true")
	}
	if !errors.Is(err, cause) {
		t.Error("built error should wrap the cause")
	}
}

func TestErrorContext_RequiresOperation(t *testing.T) {
	t.Parallel()

	if err := NewErrorContext().WithResource("x").BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}
}

func TestWrapWithOperation(t *testing.T) {
	t.Parallel()

	if got := WrapWithOperation(nil, "noop"); got != nil {
		t.Errorf("WrapWithOperation(nil) = %v, want nil", got)
	}

	cause := errors.New("boom")
	wrapped := WrapWithOperation(cause, "approve account")
	if wrapped.Error() != "failed to approve account: boom" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}
