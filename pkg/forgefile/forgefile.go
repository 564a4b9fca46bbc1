// SPDX-License-Identifier: MIT

package forgefile

import (
	"path/filepath"
)

// DefaultFileName is the conventional playbook file name.
const DefaultFileName = "forgefile.cue"

// DefaultContainerfile is used when image.containerfile is unset.
const DefaultContainerfile = "Containerfile"

// TaskPhase places an extra task relative to the built-in stages.
type TaskPhase string

const (
	// PhasePre runs before the engine/build/test stages.
	PhasePre TaskPhase = "pre"
	// PhasePost runs after the test stage succeeded.
	PhasePost TaskPhase = "post"
)

type (
	// Playbook is a parsed forgefile.
	Playbook struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`

		// ProjectDir is the build/test working directory. Relative paths are
		// resolved against the forgefile's directory.
		ProjectDir string `json:"project_dir,omitempty"`

		// Branch is the default source branch; callers usually override it.
		Branch string `json:"branch,omitempty"`

		Image Image  `json:"image"`
		Test  Test   `json:"test"`
		Env   Env    `json:"env,omitempty"`
		Tasks []Task `json:"tasks,omitempty"`

		// FilePath is where the playbook was loaded from (set by Parse).
		FilePath string `json:"-"`
	}

	// Image describes the worker image build.
	Image struct {
		Tag           string            `json:"tag"`
		Containerfile string            `json:"containerfile,omitempty"`
		BuildArgs     map[string]string `json:"build_args,omitempty"`
		NoCache       bool              `json:"no_cache,omitempty"`
	}

	// Test describes the containerized test suite invocation.
	Test struct {
		Command string            `json:"command"`
		WorkDir string            `json:"workdir,omitempty"`
		Env     map[string]string `json:"env,omitempty"`
	}

	// Env holds playbook-level environment layering inputs.
	Env struct {
		Vars  map[string]string `json:"vars,omitempty"`
		Files []string          `json:"files,omitempty"`
	}

	// Task is an extra shell task run around the built-in stages.
	Task struct {
		Name   string            `json:"name"`
		Shell  string            `json:"shell"`
		Phase  TaskPhase         `json:"phase,omitempty"`
		Chdir  string            `json:"chdir,omitempty"`
		Become bool              `json:"become,omitempty"`
		Env    map[string]string `json:"env,omitempty"`
	}
)

// Dir returns the directory containing the forgefile.
func (p *Playbook) Dir() string {
	return filepath.Dir(p.FilePath)
}

// EffectiveProjectDir resolves the project directory: an explicit override
// wins, then the playbook's project_dir, then the forgefile's own directory.
// Relative paths are resolved against the forgefile's directory.
func (p *Playbook) EffectiveProjectDir(override string) string {
	dir := override
	if dir == "" {
		dir = p.ProjectDir
	}
	if dir == "" {
		return p.Dir()
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(p.Dir(), dir)
	}
	return dir
}

// EffectiveBranch resolves the source branch: an explicit override wins over
// the playbook default. Empty means the caller supplied nothing at all.
func (p *Playbook) EffectiveBranch(override string) string {
	if override != "" {
		return override
	}
	return p.Branch
}

// EffectiveContainerfile returns the Containerfile path relative to the
// project directory.
func (i Image) EffectiveContainerfile() string {
	if i.Containerfile != "" {
		return i.Containerfile
	}
	return DefaultContainerfile
}

// TasksForPhase returns tasks in declaration order for the given phase.
// Tasks without an explicit phase run in the pre phase.
func (p *Playbook) TasksForPhase(phase TaskPhase) []Task {
	var out []Task
	for _, t := range p.Tasks {
		got := t.Phase
		if got == "" {
			got = PhasePre
		}
		if got == phase {
			out = append(out, t)
		}
	}
	return out
}

// IsValid reports whether the phase is one of the defined phases.
// The zero value is valid and means PhasePre.
func (ph TaskPhase) IsValid() bool {
	switch ph {
	case PhasePre, PhasePost, "":
		return true
	default:
		return false
	}
}
