// SPDX-License-Identifier: MIT

package forgefile

import (
	"fmt"
	"slices"
	"strings"
)

// GenerateCUE renders a playbook as forgefile.cue content. Used by
// `forgeci init` to scaffold a starter playbook.
func GenerateCUE(p *Playbook) string {
	var sb strings.Builder

	sb.WriteString("// forgefile.cue — CI worker image pipeline definition.\n\n")

	fmt.Fprintf(&sb, "name: %q\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&sb, "description: %q\n", p.Description)
	}
	if p.ProjectDir != "" {
		fmt.Fprintf(&sb, "project_dir: %q\n", p.ProjectDir)
	}
	if p.Branch != "" {
		fmt.Fprintf(&sb, "branch: %q\n", p.Branch)
	}

	sb.WriteString("\nimage: {\n")
	fmt.Fprintf(&sb, "\ttag: %q\n", p.Image.Tag)
	if p.Image.Containerfile != "" {
		fmt.Fprintf(&sb, "\tcontainerfile: %q\n", p.Image.Containerfile)
	}
	if len(p.Image.BuildArgs) > 0 {
		sb.WriteString("\tbuild_args: {\n")
		for _, k := range sortedKeys(p.Image.BuildArgs) {
			fmt.Fprintf(&sb, "\t\t%q: %q\n", k, p.Image.BuildArgs[k])
		}
		sb.WriteString("\t}\n")
	}
	if p.Image.NoCache {
		sb.WriteString("\tno_cache: true\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\ntest: {\n")
	fmt.Fprintf(&sb, "\tcommand: %q\n", p.Test.Command)
	if p.Test.WorkDir != "" {
		fmt.Fprintf(&sb, "\tworkdir: %q\n", p.Test.WorkDir)
	}
	if len(p.Test.Env) > 0 {
		sb.WriteString("\tenv: {\n")
		for _, k := range sortedKeys(p.Test.Env) {
			fmt.Fprintf(&sb, "\t\t%q: %q\n", k, p.Test.Env[k])
		}
		sb.WriteString("\t}\n")
	}
	sb.WriteString("}\n")

	if len(p.Env.Vars) > 0 || len(p.Env.Files) > 0 {
		sb.WriteString("\nenv: {\n")
		if len(p.Env.Vars) > 0 {
			sb.WriteString("\tvars: {\n")
			for _, k := range sortedKeys(p.Env.Vars) {
				fmt.Fprintf(&sb, "\t\t%q: %q\n", k, p.Env.Vars[k])
			}
			sb.WriteString("\t}\n")
		}
		if len(p.Env.Files) > 0 {
			sb.WriteString("\tfiles: [\n")
			for _, f := range p.Env.Files {
				fmt.Fprintf(&sb, "\t\t%q,\n", f)
			}
			sb.WriteString("\t]\n")
		}
		sb.WriteString("}\n")
	}

	if len(p.Tasks) > 0 {
		sb.WriteString("\ntasks: [\n")
		for _, t := range p.Tasks {
			sb.WriteString("\t{\n")
			fmt.Fprintf(&sb, "\t\tname: %q\n", t.Name)
			fmt.Fprintf(&sb, "\t\tshell: %q\n", t.Shell)
			if t.Phase != "" {
				fmt.Fprintf(&sb, "\t\tphase: %q\n", t.Phase)
			}
			if t.Chdir != "" {
				fmt.Fprintf(&sb, "\t\tchdir: %q\n", t.Chdir)
			}
			if t.Become {
				sb.WriteString("\t\tbecome: true\n")
			}
			sb.WriteString("\t},\n")
		}
		sb.WriteString("]\n")
	}

	return sb.String()
}

// Starter returns the playbook scaffolded by `forgeci init`.
func Starter(name string) *Playbook {
	return &Playbook{
		Name:        name,
		Description: "Build the worker image and run the test suite inside it",
		Image: Image{
			Tag: name + "-worker:dev",
		},
		Test: Test{
			Command: "make check",
		},
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
