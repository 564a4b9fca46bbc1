// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ShellRunner executes playbook task scripts on the host. Regular tasks run
// in the embedded mvdan/sh interpreter; elevated tasks are handed to the
// system shell under non-interactive sudo.
type ShellRunner struct {
	stdout io.Writer
	stderr io.Writer
}

// NewShellRunner creates a shell runner writing to the given streams.
func NewShellRunner(stdout, stderr io.Writer) *ShellRunner {
	return &ShellRunner{stdout: stdout, stderr: stderr}
}

// Validate parses the script to catch syntax errors without executing it.
func (r *ShellRunner) Validate(script string) error {
	_, err := syntax.NewParser().Parse(strings.NewReader(script), "task")
	if err != nil {
		return fmt.Errorf("task syntax error: %w", err)
	}
	return nil
}

// Run executes the script in the embedded interpreter and returns its exit
// code. The host environment is inherited; env entries overlay it.
func (r *ShellRunner) Run(ctx context.Context, script, dir string, env map[string]string) (int, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "task")
	if err != nil {
		return 1, fmt.Errorf("failed to parse task script: %w", err)
	}

	environ := append(os.Environ(), EnvToSlice(env)...)

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(environ...)),
		interp.StdIO(nil, r.stdout, r.stderr),
	)
	if err != nil {
		return 1, fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return int(exitStatus), nil
		}
		return 1, fmt.Errorf("task execution failed: %w", err)
	}

	return 0, nil
}

// RunElevated executes the script through "sudo -n sh -c". The in-process
// interpreter cannot change privileges, so elevated tasks go through the
// system shell instead. A missing sudoers rule fails fast rather than
// hanging on a password prompt.
func (r *ShellRunner) RunElevated(ctx context.Context, script, dir string, env map[string]string) (int, error) {
	cmd := exec.CommandContext(ctx, "sudo", "-n", "sh", "-c", script)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), EnvToSlice(env)...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, fmt.Errorf("elevated task failed to start: %w", err)
	}

	return 0, nil
}
