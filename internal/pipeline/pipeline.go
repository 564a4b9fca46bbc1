// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"forgeci/internal/config"
	"forgeci/internal/container"
	"forgeci/pkg/forgefile"
)

// Stage is one step of the pipeline.
type Stage interface {
	// Name identifies the stage in reports and logs.
	Name() string
	// Run executes the stage. A failure returns a *StageError carrying
	// the exit code that should become the pipeline's exit code.
	Run(ctx context.Context, rc *RunContext) error
}

// StageError is the failure of a single pipeline stage.
type StageError struct {
	// Stage is the name of the failing stage.
	Stage string
	// ExitCode is the exit code the pipeline should report.
	ExitCode int
	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("stage %s failed: %s", e.Stage, e.Cause)
	}
	return fmt.Sprintf("stage %s failed with exit code %d", e.Stage, e.ExitCode)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *StageError) Unwrap() error {
	return e.Cause
}

// ExitCode extracts the pipeline exit code from an error.
// Stage failures carry their own code; anything else maps to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.ExitCode
	}
	return 1
}

// Result records the outcome of one stage.
type Result struct {
	// Stage is the stage name.
	Stage string
	// ExitCode is 0 on success.
	ExitCode int
	// Err is the stage error, nil on success.
	Err error
	// Duration is how long the stage ran.
	Duration time.Duration
}

// RunContext carries the shared state stages operate on.
type RunContext struct {
	// Playbook is the parsed forgefile.
	Playbook *forgefile.Playbook
	// Config is the loaded application configuration.
	Config *config.Config
	// Engine is the container engine. The install stage sets it; later
	// stages require it.
	Engine container.Engine
	// ProjectDir is the resolved project directory on the host.
	ProjectDir string
	// Branch is the resolved source branch under test.
	Branch string
	// ExtraEnv holds CLI-provided environment overrides.
	ExtraEnv map[string]string
	// SkipInstall disables engine installation; detection still runs.
	SkipInstall bool
	// NoCache disables the image build cache.
	NoCache bool
	// Logger receives structured progress events.
	Logger *slog.Logger
	// Stdout and Stderr receive engine and task output.
	Stdout io.Writer
	Stderr io.Writer
}

// Reporter receives pipeline progress events.
type Reporter interface {
	PipelineStarted(playbook string, stages []string)
	StageStarted(stage string)
	StageFinished(result Result)
	PipelineFinished(results []Result, err error)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) PipelineStarted(string, []string) {}
func (NopReporter) StageStarted(string)              {}
func (NopReporter) StageFinished(Result)             {}
func (NopReporter) PipelineFinished([]Result, error) {}

// Runner executes stages sequentially with fail-fast semantics.
type Runner struct {
	stages   []Stage
	reporter Reporter
	logger   *slog.Logger
}

// NewRunner creates a pipeline runner. A nil reporter discards events and
// a nil logger discards log records.
func NewRunner(reporter Reporter, logger *slog.Logger, stages ...Stage) *Runner {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		stages:   stages,
		reporter: reporter,
		logger:   logger,
	}
}

// Run executes all stages in order. The first failure stops the pipeline
// and is returned along with the results collected so far.
func (r *Runner) Run(ctx context.Context, rc *RunContext) ([]Result, error) {
	if rc.Logger == nil {
		rc.Logger = r.logger
	}

	names := make([]string, 0, len(r.stages))
	for _, s := range r.stages {
		names = append(names, s.Name())
	}
	r.reporter.PipelineStarted(rc.Playbook.Name, names)

	var results []Result
	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			err = fmt.Errorf("pipeline canceled: %w", err)
			r.reporter.PipelineFinished(results, err)
			return results, err
		}

		r.reporter.StageStarted(stage.Name())
		r.logger.Info("stage started", "stage", stage.Name())

		start := time.Now()
		err := stage.Run(ctx, rc)
		result := Result{
			Stage:    stage.Name(),
			ExitCode: ExitCode(err),
			Err:      err,
			Duration: time.Since(start),
		}
		results = append(results, result)
		r.reporter.StageFinished(result)

		if err != nil {
			r.logger.Error("stage failed",
				"stage", stage.Name(),
				"exit_code", result.ExitCode,
				"duration", result.Duration)
			r.reporter.PipelineFinished(results, err)
			return results, err
		}

		r.logger.Info("stage finished", "stage", stage.Name(), "duration", result.Duration)
	}

	r.reporter.PipelineFinished(results, nil)
	return results, nil
}

// DefaultStages assembles the standard pipeline: pre tasks, engine install,
// image build, containerized tests, post tasks. Task stages are omitted when
// the playbook defines no tasks for the phase.
func DefaultStages(pb *forgefile.Playbook) []Stage {
	var stages []Stage

	if len(pb.TasksForPhase(forgefile.PhasePre)) > 0 {
		stages = append(stages, NewTaskStage(forgefile.PhasePre))
	}

	stages = append(stages,
		NewInstallStage(),
		NewBuildStage(),
		NewTestStage(),
	)

	if len(pb.TasksForPhase(forgefile.PhasePost)) > 0 {
		stages = append(stages, NewTaskStage(forgefile.PhasePost))
	}

	return stages
}
