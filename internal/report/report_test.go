// SPDX-License-Identifier: MIT

package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"forgeci/internal/pipeline"
)

func TestTerminalReporter_Success(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewTerminalReporter(&buf)

	r.PipelineStarted("worker", []string{"engine", "build", "test"})
	r.StageStarted("build")
	r.StageFinished(pipeline.Result{Stage: "build", Duration: 1500 * time.Millisecond})
	r.PipelineFinished([]pipeline.Result{{Stage: "build", Duration: 1500 * time.Millisecond}}, nil)

	out := buf.String()
	for _, want := range []string{"worker", "engine", "build", "1.5s", "pipeline succeeded"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "re-run") {
		t.Error("success output should not carry the retrigger hint")
	}
}

func TestTerminalReporter_Failure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewTerminalReporter(&buf)

	res := pipeline.Result{
		Stage:    "test",
		ExitCode: 2,
		Err:      errors.New("tests failed"),
		Duration: 3 * time.Second,
	}
	r.StageFinished(res)
	r.PipelineFinished([]pipeline.Result{res}, res.Err)

	out := buf.String()
	for _, want := range []string{"test", "exit 2", "pipeline failed", "forgeci run"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var events []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var e map[string]any
		if err := dec.Decode(&e); err != nil {
			t.Fatalf("failed to decode event: %v", err)
		}
		events = append(events, e)
	}
	return events
}

func TestJSONLReporter_EmitsEvents(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewJSONLReporter(&buf)
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	r.PipelineStarted("worker", []string{"build", "test"})
	r.StageStarted("build")
	r.StageFinished(pipeline.Result{Stage: "build", Duration: 2 * time.Second})
	r.StageFinished(pipeline.Result{
		Stage:    "test",
		ExitCode: 2,
		Err:      errors.New("tests failed"),
		Duration: time.Second,
	})
	r.PipelineFinished(nil, &pipeline.StageError{Stage: "test", ExitCode: 2})

	events := decodeLines(t, &buf)
	if len(events) != 5 {
		t.Fatalf("events = %d, want 5", len(events))
	}

	if events[0]["event"] != "pipeline_started" || events[0]["playbook"] != "worker" {
		t.Errorf("first event = %v", events[0])
	}
	if events[1]["event"] != "stage_started" || events[1]["stage"] != "build" {
		t.Errorf("second event = %v", events[1])
	}
	if events[2]["duration_ms"] != float64(2000) {
		t.Errorf("duration_ms = %v, want 2000", events[2]["duration_ms"])
	}
	if events[3]["exit_code"] != float64(2) || events[3]["error"] != "tests failed" {
		t.Errorf("failed stage event = %v", events[3])
	}

	final := events[4]
	if final["event"] != "pipeline_finished" {
		t.Errorf("final event = %v", final)
	}
	if final["success"] != false || final["exit_code"] != float64(2) {
		t.Errorf("final event should carry failure and exit code: %v", final)
	}
	if final["time"] != "2026-01-02T03:04:05Z" {
		t.Errorf("time = %v, want fixed clock value", final["time"])
	}
}

func TestJSONLReporter_Success(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewJSONLReporter(&buf)
	r.PipelineFinished(nil, nil)

	events := decodeLines(t, &buf)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0]["success"] != true {
		t.Errorf("success = %v, want true", events[0]["success"])
	}
	if _, ok := events[0]["error"]; ok {
		t.Error("success event should not carry an error field")
	}
}

func TestMultiReporter_FansOut(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	m := MultiReporter{NewTerminalReporter(&a), NewJSONLReporter(&b)}

	m.StageStarted("build")
	m.PipelineFinished(nil, nil)

	if !strings.Contains(a.String(), "build") {
		t.Error("terminal reporter should receive events")
	}
	if !strings.Contains(b.String(), "pipeline_finished") {
		t.Error("jsonl reporter should receive events")
	}
}
