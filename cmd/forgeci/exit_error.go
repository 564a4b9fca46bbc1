// SPDX-License-Identifier: MIT

package cmd

import "fmt"

// ExitError carries a process exit code through the command layer so that
// Execute can terminate with the failing stage's code.
type ExitError struct {
	// Code is the process exit code.
	Code int
	// Err is the underlying error (may be nil for a bare exit code).
	Err error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ExitError) Unwrap() error { return e.Err }
