// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"forgeci/internal/config"
	"forgeci/internal/container"
	"forgeci/internal/issue"
	"forgeci/internal/sysinstall"
	"forgeci/pkg/forgefile"
)

// baseBackoff is the initial delay between retries of transient engine
// failures; it doubles on each attempt.
const baseBackoff = 2 * time.Second

type (
	// InstallStage makes a container engine available, installing one
	// through the system package manager when allowed.
	InstallStage struct{}

	// BuildStage builds the worker image from the playbook's Containerfile.
	BuildStage struct{}

	// TestStage runs the playbook's test command inside the worker image.
	TestStage struct{}

	// TaskStage runs the playbook's host-side tasks for one phase.
	TaskStage struct {
		phase forgefile.TaskPhase
	}
)

// NewInstallStage creates the engine installation stage.
func NewInstallStage() *InstallStage { return &InstallStage{} }

// NewBuildStage creates the image build stage.
func NewBuildStage() *BuildStage { return &BuildStage{} }

// NewTestStage creates the containerized test stage.
func NewTestStage() *TestStage { return &TestStage{} }

// NewTaskStage creates a task stage for the given phase.
func NewTaskStage(phase forgefile.TaskPhase) *TaskStage {
	return &TaskStage{phase: phase}
}

// --- Install ---

// Name identifies the stage.
func (s *InstallStage) Name() string { return "engine" }

// Run ensures rc.Engine points at a working container engine.
func (s *InstallStage) Run(ctx context.Context, rc *RunContext) error {
	if rc.Engine != nil {
		return nil
	}

	prefer := container.EngineTypeAuto
	if rc.Config != nil {
		prefer = container.EngineType(rc.Config.ContainerEngine)
	}

	var (
		engine container.Engine
		err    error
	)
	if rc.SkipInstall {
		engine, err = container.NewEngine(prefer)
	} else {
		engine, err = sysinstall.EnsureEngine(ctx, prefer,
			sysinstall.WithOutput(rc.Stdout, rc.Stderr))
	}
	if err != nil {
		return &StageError{Stage: s.Name(), ExitCode: 1, Cause: err}
	}

	rc.Engine = engine
	rc.Logger.Info("container engine ready", "engine", engine.Name())
	return nil
}

// --- Build ---

// Name identifies the stage.
func (s *BuildStage) Name() string { return "build" }

// Run builds the worker image, injecting SOURCE_BRANCH as a build argument.
// Transient engine failures are retried with exponential backoff.
func (s *BuildStage) Run(ctx context.Context, rc *RunContext) error {
	if rc.Engine == nil {
		return &StageError{Stage: s.Name(), ExitCode: 1,
			Cause: fmt.Errorf("no container engine available")}
	}

	pb := rc.Playbook
	containerfile := pb.Image.EffectiveContainerfile()

	resolved, err := container.ResolveContainerfilePath(rc.ProjectDir, containerfile)
	if err != nil {
		return &StageError{Stage: s.Name(), ExitCode: 1, Cause: err}
	}
	if _, statErr := os.Stat(resolved); statErr != nil {
		cause := issue.NewErrorContext().
			WithOperation("locate Containerfile").
			WithResource(resolved).
			WithSuggestion("Create a Containerfile in the project directory").
			WithSuggestion("Or set image.containerfile in the forgefile").
			Wrap(statErr).
			BuildError()
		return &StageError{Stage: s.Name(), ExitCode: 1, Cause: cause}
	}

	buildArgs := make(map[string]string, len(pb.Image.BuildArgs)+1)
	for k, v := range pb.Image.BuildArgs {
		buildArgs[k] = v
	}
	buildArgs[EnvSourceBranch] = rc.Branch

	opts := container.BuildOptions{
		ContextDir:    rc.ProjectDir,
		Containerfile: containerfile,
		Tag:           pb.Image.Tag,
		BuildArgs:     buildArgs,
		NoCache:       rc.NoCache || pb.Image.NoCache,
		Stdout:        rc.Stdout,
		Stderr:        rc.Stderr,
	}

	rc.Logger.Info("building worker image",
		"tag", pb.Image.Tag,
		"containerfile", resolved,
		"branch", rc.Branch)

	err = container.RetryWithBackoff(ctx, maxRetries(rc.Config), baseBackoff,
		func(attempt int) (bool, error) {
			if attempt > 0 {
				rc.Logger.Warn("retrying image build", "attempt", attempt+1)
			}
			buildErr := rc.Engine.Build(ctx, opts)
			if buildErr == nil {
				return false, nil
			}
			return container.IsTransientError(buildErr), buildErr
		})
	if err != nil {
		return &StageError{Stage: s.Name(), ExitCode: 1, Cause: err}
	}

	return nil
}

// --- Test ---

// Name identifies the stage.
func (s *TestStage) Name() string { return "test" }

// Run executes the test command inside the worker image with the project
// mounted at the configured workspace. COLOR=no and SOURCE_BRANCH are
// always injected, overriding playbook and CLI values.
func (s *TestStage) Run(ctx context.Context, rc *RunContext) error {
	if rc.Engine == nil {
		return &StageError{Stage: s.Name(), ExitCode: 1,
			Cause: fmt.Errorf("no container engine available")}
	}

	pb := rc.Playbook

	exists, err := rc.Engine.ImageExists(ctx, pb.Image.Tag)
	if err != nil {
		return &StageError{Stage: s.Name(), ExitCode: 1, Cause: err}
	}
	if !exists {
		cause := issue.NewErrorContext().
			WithOperation("run test suite").
			WithResource(pb.Image.Tag).
			WithSuggestion("Build the worker image first: forgeci build").
			Wrap(fmt.Errorf("image %s not found", pb.Image.Tag)).
			BuildError()
		return &StageError{Stage: s.Name(), ExitCode: 1, Cause: cause}
	}

	env, err := testEnv(rc)
	if err != nil {
		return &StageError{Stage: s.Name(), ExitCode: 1, Cause: err}
	}

	workspace := config.DefaultWorkspace
	if rc.Config != nil && rc.Config.Pipeline.Workspace != "" {
		workspace = rc.Config.Pipeline.Workspace
	}
	workdir := workspace
	if pb.Test.WorkDir != "" {
		workdir = pb.Test.WorkDir
	}

	opts := container.RunOptions{
		Image:   pb.Image.Tag,
		Command: []string{"/bin/sh", "-c", pb.Test.Command},
		WorkDir: workdir,
		Env:     env,
		Volumes: []string{rc.ProjectDir + ":" + workspace},
		Remove:  true,
		Stdout:  rc.Stdout,
		Stderr:  rc.Stderr,
	}

	rc.Logger.Info("running test suite",
		"image", pb.Image.Tag,
		"command", pb.Test.Command,
		"workdir", workdir)

	var exitCode int
	err = container.RetryWithBackoff(ctx, maxRetries(rc.Config), baseBackoff,
		func(attempt int) (bool, error) {
			if attempt > 0 {
				rc.Logger.Warn("retrying test run", "attempt", attempt+1)
			}

			result, runErr := rc.Engine.Run(ctx, opts)
			if runErr != nil {
				return container.IsTransientError(runErr), runErr
			}
			if result.Error != nil {
				return container.IsTransientError(result.Error), result.Error
			}
			exitCode = result.ExitCode
			if result.ExitCode == 0 {
				return false, nil
			}

			runErr = fmt.Errorf("test command exited with code %d", result.ExitCode)
			// 125/126 come from the engine rather than the test suite and
			// are often caused by rootless storage races.
			return container.IsTransientExitCode(result.ExitCode), runErr
		})
	if err != nil {
		code := exitCode
		if code == 0 {
			code = 1
		}
		return &StageError{Stage: s.Name(), ExitCode: code, Cause: err}
	}

	return nil
}

// testEnv builds the environment for the containerized test run.
// Precedence, lowest to highest: playbook env files, playbook vars,
// test vars, CLI overrides, pipeline-injected values.
func testEnv(rc *RunContext) (map[string]string, error) {
	pb := rc.Playbook
	b := NewEnvBuilder()

	for _, file := range pb.Env.Files {
		if err := b.LayerFile(file, pb.Dir()); err != nil {
			return nil, err
		}
	}

	b.Layer(pb.Env.Vars)
	b.Layer(pb.Test.Env)
	b.Layer(rc.ExtraEnv)
	b.Layer(map[string]string{
		EnvColor:        ColorDisabled,
		EnvSourceBranch: rc.Branch,
	})

	return b.Build(), nil
}

// --- Tasks ---

// Name identifies the stage.
func (s *TaskStage) Name() string { return "tasks:" + string(s.phase) }

// Run executes the playbook tasks for this phase sequentially, stopping at
// the first failure.
func (s *TaskStage) Run(ctx context.Context, rc *RunContext) error {
	tasks := rc.Playbook.TasksForPhase(s.phase)
	runner := NewShellRunner(rc.Stdout, rc.Stderr)

	for _, task := range tasks {
		env, err := taskEnv(rc, task)
		if err != nil {
			return &StageError{Stage: s.Name(), ExitCode: 1, Cause: err}
		}

		dir := rc.ProjectDir
		if task.Chdir != "" {
			if filepath.IsAbs(task.Chdir) {
				dir = task.Chdir
			} else {
				dir = filepath.Join(rc.ProjectDir, task.Chdir)
			}
		}

		rc.Logger.Info("running task", "task", task.Name, "phase", s.phase)

		var exitCode int
		if task.Become {
			exitCode, err = runner.RunElevated(ctx, task.Shell, dir, env)
		} else {
			exitCode, err = runner.Run(ctx, task.Shell, dir, env)
		}
		if err != nil {
			return &StageError{Stage: s.Name(), ExitCode: 1, Cause: err}
		}
		if exitCode != 0 {
			cause := issue.NewErrorContext().
				WithOperation("run playbook task").
				WithResource(task.Name).
				WithSuggestion("Check the task output above").
				WithSuggestion("Test the shell snippet manually").
				Wrap(fmt.Errorf("task exited with code %d", exitCode)).
				BuildError()
			return &StageError{Stage: s.Name(), ExitCode: exitCode, Cause: cause}
		}
	}

	return nil
}

// taskEnv builds the environment overlay for a host-side task. The host
// environment is inherited by the shell runner; these values overlay it.
func taskEnv(rc *RunContext, task forgefile.Task) (map[string]string, error) {
	pb := rc.Playbook
	b := NewEnvBuilder()

	for _, file := range pb.Env.Files {
		if err := b.LayerFile(file, pb.Dir()); err != nil {
			return nil, err
		}
	}

	b.Layer(pb.Env.Vars)
	b.Layer(task.Env)
	b.Layer(rc.ExtraEnv)
	b.Layer(map[string]string{EnvSourceBranch: rc.Branch})

	return b.Build(), nil
}

// maxRetries returns the configured retry bound, falling back to the default.
func maxRetries(cfg *config.Config) int {
	if cfg != nil && cfg.Pipeline.MaxRetries > 0 {
		return cfg.Pipeline.MaxRetries
	}
	return config.DefaultMaxRetries
}
