// SPDX-License-Identifier: MIT

package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Environment variables the pipeline injects into builds and test runs.
// They always win over playbook and CLI values.
const (
	// EnvSourceBranch carries the branch under test into the image build
	// and the containerized test run.
	EnvSourceBranch = "SOURCE_BRANCH"
	// EnvColor disables colored test output so logs stay readable.
	EnvColor = "COLOR"
	// ColorDisabled is the value assigned to EnvColor.
	ColorDisabled = "no"
)

// EnvBuilder merges environment layers with later layers taking precedence.
type EnvBuilder struct {
	merged map[string]string
}

// NewEnvBuilder creates an empty environment builder.
func NewEnvBuilder() *EnvBuilder {
	return &EnvBuilder{merged: make(map[string]string)}
}

// Layer overlays the given variables. Later layers win over earlier ones.
func (b *EnvBuilder) Layer(vars map[string]string) *EnvBuilder {
	for k, v := range vars {
		b.merged[k] = v
	}
	return b
}

// LayerFile overlays variables read from a KEY=VALUE file. Relative paths
// are resolved against baseDir.
func (b *EnvBuilder) LayerFile(path, baseDir string) error {
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open env file: %w", err)
	}
	defer f.Close()

	vars, err := ParseEnvFile(f, path)
	if err != nil {
		return err
	}

	b.Layer(vars)
	return nil
}

// Build returns the merged environment.
func (b *EnvBuilder) Build() map[string]string {
	out := make(map[string]string, len(b.merged))
	for k, v := range b.merged {
		out[k] = v
	}
	return out
}

// ParseEnvFile reads KEY=VALUE pairs from r. Blank lines and lines starting
// with '#' are skipped. Values may be wrapped in single or double quotes.
func ParseEnvFile(r io.Reader, name string) (map[string]string, error) {
	vars := make(map[string]string)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("%s:%d: expected KEY=VALUE, got %q", name, lineNo, line)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%s:%d: empty variable name", name, lineNo)
		}

		value = strings.TrimSpace(value)
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		vars[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return vars, nil
}

// ParseEnvAssignments parses CLI --env flags in KEY=VALUE form.
func ParseEnvAssignments(assignments []string) (map[string]string, error) {
	vars := make(map[string]string, len(assignments))
	for _, a := range assignments {
		key, value, found := strings.Cut(a, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid environment assignment %q: expected KEY=VALUE", a)
		}
		vars[strings.TrimSpace(key)] = value
	}
	return vars, nil
}

// EnvToSlice converts an environment map to a sorted KEY=VALUE slice.
func EnvToSlice(env map[string]string) []string {
	keys := maps.Keys(env)
	slices.Sort(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
