// SPDX-License-Identifier: MIT

package forgefile

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

const validForgefile = `
name: "acme-worker"
description: "Build the worker image and test it"
branch: "main"

image: {
	tag: "acme-worker:dev"
	containerfile: "files/Containerfile"
	build_args: {
		"BASE": "fedora:41"
	}
}

test: {
	command: "make check"
	env: {
		"REQURE_STORAGE": "/tmp/requre"
	}
}

env: {
	vars: {
		"DEPLOYMENT": "dev"
	}
}

tasks: [
	{
		name: "clean workdir"
		shell: "rm -rf ./build"
	},
	{
		name: "report done"
		shell: "echo done"
		phase: "post"
	},
]
`

func TestParseBytes_Valid(t *testing.T) {
	t.Parallel()

	pb, err := ParseBytes([]byte(validForgefile), "/proj/forgefile.cue")
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}

	if pb.Name != "acme-worker" {
		t.Errorf("Name = %q, want %q", pb.Name, "acme-worker")
	}
	if pb.Branch != "main" {
		t.Errorf("Branch = %q, want %q", pb.Branch, "main")
	}
	if pb.Image.Tag != "acme-worker:dev" {
		t.Errorf("Image.Tag = %q, want %q", pb.Image.Tag, "acme-worker:dev")
	}
	if pb.Image.BuildArgs["BASE"] != "fedora:41" {
		t.Errorf("BuildArgs[BASE] = %q, want %q", pb.Image.BuildArgs["BASE"], "fedora:41")
	}
	if pb.Test.Command != "make check" {
		t.Errorf("Test.Command = %q, want %q", pb.Test.Command, "make check")
	}
	if pb.FilePath != "/proj/forgefile.cue" {
		t.Errorf("FilePath = %q, want %q", pb.FilePath, "/proj/forgefile.cue")
	}
	if len(pb.Tasks) != 2 {
		t.Fatalf("Tasks = %d, want 2", len(pb.Tasks))
	}
}

func TestParseBytes_MissingImage(t *testing.T) {
	t.Parallel()

	src := `
name: "worker"
test: { command: "make check" }
`
	_, err := ParseBytes([]byte(src), "forgefile.cue")
	if err == nil {
		t.Fatal("ParseBytes() expected error for missing image, got nil")
	}
}

func TestParseBytes_EmptyTag(t *testing.T) {
	t.Parallel()

	src := `
name: "worker"
image: { tag: "" }
test: { command: "make check" }
`
	_, err := ParseBytes([]byte(src), "forgefile.cue")
	if err == nil {
		t.Fatal("ParseBytes() expected error for empty image tag, got nil")
	}
	if !strings.Contains(err.Error(), "tag") {
		t.Errorf("error %q should name the tag field", err)
	}
}

func TestParseBytes_InvalidPhase(t *testing.T) {
	t.Parallel()

	src := `
name: "worker"
image: { tag: "worker:dev" }
test: { command: "make check" }
tasks: [{ name: "x", shell: "true", phase: "during" }]
`
	_, err := ParseBytes([]byte(src), "forgefile.cue")
	if err == nil {
		t.Fatal("ParseBytes() expected error for invalid phase, got nil")
	}
}

func TestParseBytes_DuplicateTaskNames(t *testing.T) {
	t.Parallel()

	src := `
name: "worker"
image: { tag: "worker:dev" }
test: { command: "make check" }
tasks: [
	{ name: "same", shell: "true" },
	{ name: "same", shell: "false" },
]
`
	_, err := ParseBytes([]byte(src), "forgefile.cue")
	if !errors.Is(err, ErrDuplicateTaskName) {
		t.Fatalf("ParseBytes() error = %v, want ErrDuplicateTaskName", err)
	}
}

func TestParseBytes_ReservedBuildArg(t *testing.T) {
	t.Parallel()

	src := `
name: "worker"
image: {
	tag: "worker:dev"
	build_args: { "SOURCE_BRANCH": "spoofed" }
}
test: { command: "make check" }
`
	_, err := ParseBytes([]byte(src), "forgefile.cue")
	if !errors.Is(err, ErrReservedBuildArg) {
		t.Fatalf("ParseBytes() error = %v, want ErrReservedBuildArg", err)
	}
}

func TestEffectiveProjectDir(t *testing.T) {
	t.Parallel()

	pb := &Playbook{FilePath: "/repo/ci/forgefile.cue"}

	tests := []struct {
		name       string
		projectDir string
		override   string
		want       string
	}{
		{"default is forgefile dir", "", "", "/repo/ci"},
		{"relative playbook dir", "..", "", "/repo"},
		{"absolute playbook dir", "/src/project", "", "/src/project"},
		{"override wins", "..", "/elsewhere", "/elsewhere"},
		{"relative override", "", "sub", filepath.Join("/repo/ci", "sub")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pb := *pb
			pb.ProjectDir = tt.projectDir
			if got := pb.EffectiveProjectDir(tt.override); got != tt.want {
				t.Errorf("EffectiveProjectDir(%q) = %q, want %q", tt.override, got, tt.want)
			}
		})
	}
}

func TestEffectiveBranch(t *testing.T) {
	t.Parallel()

	pb := &Playbook{Branch: "main"}
	if got := pb.EffectiveBranch(""); got != "main" {
		t.Errorf("EffectiveBranch(\"\") = %q, want %q", got, "main")
	}
	if got := pb.EffectiveBranch("pr-42"); got != "pr-42" {
		t.Errorf("EffectiveBranch(\"pr-42\") = %q, want %q", got, "pr-42")
	}
}

func TestTasksForPhase(t *testing.T) {
	t.Parallel()

	pb := &Playbook{
		Tasks: []Task{
			{Name: "a", Shell: "true"}, // implicit pre
			{Name: "b", Shell: "true", Phase: PhasePre},
			{Name: "c", Shell: "true", Phase: PhasePost},
		},
	}

	pre := pb.TasksForPhase(PhasePre)
	if len(pre) != 2 || pre[0].Name != "a" || pre[1].Name != "b" {
		t.Errorf("TasksForPhase(pre) = %v, want [a b]", pre)
	}

	post := pb.TasksForPhase(PhasePost)
	if len(post) != 1 || post[0].Name != "c" {
		t.Errorf("TasksForPhase(post) = %v, want [c]", post)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	pb := Starter("myproj")
	content := GenerateCUE(pb)

	parsed, err := ParseBytes([]byte(content), "forgefile.cue")
	if err != nil {
		t.Fatalf("generated forgefile does not parse: %v\n%s", err, content)
	}
	if parsed.Name != "myproj" {
		t.Errorf("Name = %q, want %q", parsed.Name, "myproj")
	}
	if parsed.Image.Tag != "myproj-worker:dev" {
		t.Errorf("Image.Tag = %q, want %q", parsed.Image.Tag, "myproj-worker:dev")
	}
	if parsed.Test.Command != "make check" {
		t.Errorf("Test.Command = %q, want %q", parsed.Test.Command, "make check")
	}
}

func TestEffectiveContainerfile(t *testing.T) {
	t.Parallel()

	img := Image{}
	if got := img.EffectiveContainerfile(); got != DefaultContainerfile {
		t.Errorf("EffectiveContainerfile() = %q, want %q", got, DefaultContainerfile)
	}
	img.Containerfile = "files/Containerfile"
	if got := img.EffectiveContainerfile(); got != "files/Containerfile" {
		t.Errorf("EffectiveContainerfile() = %q, want files/Containerfile", got)
	}
}
