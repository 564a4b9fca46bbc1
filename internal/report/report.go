// SPDX-License-Identifier: MIT

// Package report renders pipeline progress for humans and machines.
// The terminal reporter prints styled per-stage lines; the JSONL reporter
// emits one JSON event per line for consumption by CI tooling.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"forgeci/internal/pipeline"

	"github.com/charmbracelet/lipgloss"
)

// Color palette for dark terminal backgrounds.
const (
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorStage   = lipgloss.Color("#3B82F6")
)

var (
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	stageStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorStage)
)

// TerminalReporter prints human-readable progress to a writer.
type TerminalReporter struct {
	w io.Writer
}

// NewTerminalReporter creates a terminal reporter writing to w.
func NewTerminalReporter(w io.Writer) *TerminalReporter {
	return &TerminalReporter{w: w}
}

// PipelineStarted announces the playbook and its stage plan.
func (r *TerminalReporter) PipelineStarted(playbook string, stages []string) {
	fmt.Fprintf(r.w, "%s %s %s\n",
		stageStyle.Render("▶"),
		playbook,
		mutedStyle.Render("("+strings.Join(stages, " → ")+")"))
}

// StageStarted announces a stage.
func (r *TerminalReporter) StageStarted(stage string) {
	fmt.Fprintf(r.w, "%s %s\n", stageStyle.Render("▶"), stage)
}

// StageFinished prints the stage outcome with its duration.
func (r *TerminalReporter) StageFinished(res pipeline.Result) {
	dur := mutedStyle.Render(res.Duration.Round(time.Millisecond).String())
	if res.Err == nil {
		fmt.Fprintf(r.w, "%s %s %s\n", successStyle.Render("✓"), res.Stage, dur)
		return
	}
	fmt.Fprintf(r.w, "%s %s %s %s\n",
		errorStyle.Render("✗"),
		res.Stage,
		mutedStyle.Render(fmt.Sprintf("(exit %d)", res.ExitCode)),
		dur)
}

// PipelineFinished prints the summary and a retrigger hint on failure.
func (r *TerminalReporter) PipelineFinished(results []pipeline.Result, err error) {
	var total time.Duration
	for _, res := range results {
		total += res.Duration
	}

	if err == nil {
		fmt.Fprintf(r.w, "%s\n",
			successStyle.Render(fmt.Sprintf("pipeline succeeded in %s", total.Round(time.Millisecond))))
		return
	}

	fmt.Fprintf(r.w, "%s\n",
		errorStyle.Render(fmt.Sprintf("pipeline failed after %s", total.Round(time.Millisecond))))
	fmt.Fprintf(r.w, "%s\n",
		mutedStyle.Render("Fix the failure and re-run with: forgeci run"))
}

// event is one JSONL record.
type event struct {
	Time     time.Time `json:"time"`
	Event    string    `json:"event"`
	Playbook string    `json:"playbook,omitempty"`
	Stage    string    `json:"stage,omitempty"`
	Stages   []string  `json:"stages,omitempty"`
	ExitCode int       `json:"exit_code,omitempty"`
	Error    string    `json:"error,omitempty"`
	Duration int64     `json:"duration_ms,omitempty"`
	Success  *bool     `json:"success,omitempty"`
}

// JSONLReporter emits one JSON object per line. Safe for concurrent use.
type JSONLReporter struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

// NewJSONLReporter creates a JSONL reporter writing to w.
func NewJSONLReporter(w io.Writer) *JSONLReporter {
	return &JSONLReporter{
		enc: json.NewEncoder(w),
		now: time.Now,
	}
}

func (r *JSONLReporter) emit(e event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.Time = r.now()
	// Encoding a flat struct of strings and ints cannot fail.
	_ = r.enc.Encode(e)
}

// PipelineStarted records the stage plan.
func (r *JSONLReporter) PipelineStarted(playbook string, stages []string) {
	r.emit(event{Event: "pipeline_started", Playbook: playbook, Stages: stages})
}

// StageStarted records a stage start.
func (r *JSONLReporter) StageStarted(stage string) {
	r.emit(event{Event: "stage_started", Stage: stage})
}

// StageFinished records a stage outcome.
func (r *JSONLReporter) StageFinished(res pipeline.Result) {
	e := event{
		Event:    "stage_finished",
		Stage:    res.Stage,
		ExitCode: res.ExitCode,
		Duration: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}
	r.emit(e)
}

// PipelineFinished records the final outcome.
func (r *JSONLReporter) PipelineFinished(results []pipeline.Result, err error) {
	success := err == nil
	e := event{
		Event:    "pipeline_finished",
		ExitCode: pipeline.ExitCode(err),
		Success:  &success,
	}
	if err != nil {
		e.Error = err.Error()
	}
	r.emit(e)
}

// MultiReporter fans events out to multiple reporters.
type MultiReporter []pipeline.Reporter

// PipelineStarted forwards to all reporters.
func (m MultiReporter) PipelineStarted(playbook string, stages []string) {
	for _, r := range m {
		r.PipelineStarted(playbook, stages)
	}
}

// StageStarted forwards to all reporters.
func (m MultiReporter) StageStarted(stage string) {
	for _, r := range m {
		r.StageStarted(stage)
	}
}

// StageFinished forwards to all reporters.
func (m MultiReporter) StageFinished(res pipeline.Result) {
	for _, r := range m {
		r.StageFinished(res)
	}
}

// PipelineFinished forwards to all reporters.
func (m MultiReporter) PipelineFinished(results []pipeline.Result, err error) {
	for _, r := range m {
		r.PipelineFinished(results, err)
	}
}
