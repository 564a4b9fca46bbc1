// SPDX-License-Identifier: MIT

package forgefile

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTaskName is the sentinel error wrapped by DuplicateTaskNameError.
	ErrDuplicateTaskName = errors.New("duplicate task name")

	// ErrReservedBuildArg is the sentinel error wrapped by ReservedBuildArgError.
	ErrReservedBuildArg = errors.New("reserved build arg")
)

// DuplicateTaskNameError is returned when two tasks share a name.
type DuplicateTaskNameError struct {
	Name string
}

func (e *DuplicateTaskNameError) Error() string {
	return fmt.Sprintf("duplicate task name %q: task names must be unique", e.Name)
}

// Unwrap returns ErrDuplicateTaskName for errors.Is checks.
func (e *DuplicateTaskNameError) Unwrap() error { return ErrDuplicateTaskName }

// ReservedBuildArgError is returned when build_args tries to set a value the
// pipeline injects itself.
type ReservedBuildArgError struct {
	Key string
}

func (e *ReservedBuildArgError) Error() string {
	return fmt.Sprintf("build arg %q is injected by the pipeline and cannot be set in the forgefile", e.Key)
}

// Unwrap returns ErrReservedBuildArg for errors.Is checks.
func (e *ReservedBuildArgError) Unwrap() error { return ErrReservedBuildArg }

// validate checks constraints the CUE schema cannot express: task name
// uniqueness, phase values after decoding, and reserved build args.
func (p *Playbook) validate() error {
	seen := make(map[string]struct{}, len(p.Tasks))
	for _, t := range p.Tasks {
		if _, dup := seen[t.Name]; dup {
			return &DuplicateTaskNameError{Name: t.Name}
		}
		seen[t.Name] = struct{}{}

		if !t.Phase.IsValid() {
			return fmt.Errorf("task %q: invalid phase %q (expected: pre, post)", t.Name, t.Phase)
		}
	}

	// SOURCE_BRANCH is owned by the pipeline: silently shadowing it in the
	// forgefile would make runs lie about what branch they built.
	for _, reserved := range []string{"SOURCE_BRANCH"} {
		if _, ok := p.Image.BuildArgs[reserved]; ok {
			return &ReservedBuildArgError{Key: reserved}
		}
	}

	return nil
}
