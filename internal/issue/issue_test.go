// SPDX-License-Identifier: MIT

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	// Verify all IDs are unique and start at 1 (iota + 1).
	ids := []Id{
		ForgefileNotFoundId,
		ForgefileParseErrorId,
		EngineNotFoundId,
		EngineInstallFailedId,
		ContainerfileNotFoundId,
		BuildFailedId,
		TestsFailedId,
		TaskFailedId,
		ConfigLoadFailedId,
		AccountNotApprovedId,
		PermissionDeniedId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if ForgefileNotFoundId != 1 {
		t.Errorf("ForgefileNotFoundId = %d, want 1", ForgefileNotFoundId)
	}
}

func TestCatalog_Complete(t *testing.T) {
	// Every declared ID must have a catalog entry with a non-empty message.
	for id := ForgefileNotFoundId; id <= PermissionDeniedId; id++ {
		issue := Get(id)
		if issue == nil {
			t.Errorf("Get(%d) returned nil", id)
			continue
		}
		if issue.Id() != id {
			t.Errorf("Get(%d).Id() = %d", id, issue.Id())
		}
		if issue.MarkdownMsg() == "" {
			t.Errorf("Get(%d).MarkdownMsg() is empty", id)
		}
	}

	if len(Values()) != int(PermissionDeniedId) {
		t.Errorf("Values() has %d entries, want %d", len(Values()), PermissionDeniedId)
	}
}

func TestIssue_MarkdownMsg(t *testing.T) {
	issue := Get(EngineNotFoundId)
	if issue == nil {
		t.Fatal("Get(EngineNotFoundId) returned nil")
	}
	if !strings.Contains(string(issue.MarkdownMsg()), "Container engine not found") {
		t.Error("MarkdownMsg() should describe the missing engine")
	}
}

func TestIssue_Render(t *testing.T) {
	// Swap the render function to avoid depending on glamour output details.
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	issue := Get(TestsFailedId)
	if issue == nil {
		t.Fatal("Get(TestsFailedId) returned nil")
	}

	rendered, err := issue.Render("dark")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(rendered, "Test suite failed") {
		t.Errorf("Render() = %q, should contain the issue title", rendered)
	}
}
