// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Empty dir means no config file, so defaults apply.
	cfg, resolved, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigDirPath: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if resolved != "" {
		t.Errorf("resolved path = %q, want empty (no config file)", resolved)
	}
	if cfg.ContainerEngine != ContainerEngineAuto {
		t.Errorf("ContainerEngine = %q, want %q", cfg.ContainerEngine, ContainerEngineAuto)
	}
	if cfg.Pipeline.Workspace != DefaultWorkspace {
		t.Errorf("Pipeline.Workspace = %q, want %q", cfg.Pipeline.Workspace, DefaultWorkspace)
	}
	if cfg.Pipeline.MaxRetries != DefaultMaxRetries {
		t.Errorf("Pipeline.MaxRetries = %d, want %d", cfg.Pipeline.MaxRetries, DefaultMaxRetries)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
container_engine: "docker"

ui: {
	color_scheme: "dark"
	verbose: true
}

pipeline: {
	workspace: "/src"
	max_retries: 5
}
`)

	cfg, resolved, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigDirPath: dir,
	})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.ContainerEngine != ContainerEngineDocker {
		t.Errorf("ContainerEngine = %q, want %q", cfg.ContainerEngine, ContainerEngineDocker)
	}
	if cfg.UI.ColorScheme != ColorSchemeDark {
		t.Errorf("UI.ColorScheme = %q, want %q", cfg.UI.ColorScheme, ColorSchemeDark)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want true")
	}
	if cfg.Pipeline.Workspace != "/src" {
		t.Errorf("Pipeline.Workspace = %q, want /src", cfg.Pipeline.Workspace)
	}
	if cfg.Pipeline.MaxRetries != 5 {
		t.Errorf("Pipeline.MaxRetries = %d, want 5", cfg.Pipeline.MaxRetries)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `container_engine: "podman"`)

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if cfg.ContainerEngine != ContainerEnginePodman {
		t.Errorf("ContainerEngine = %q, want %q", cfg.ContainerEngine, ContainerEnginePodman)
	}
	if cfg.Pipeline.Workspace != DefaultWorkspace {
		t.Errorf("Pipeline.Workspace = %q, want default %q", cfg.Pipeline.Workspace, DefaultWorkspace)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	// Not parallel: t.Setenv mutates the process environment.

	dir := t.TempDir()
	writeConfigFile(t, dir, `container_engine: "podman"`)

	t.Setenv("FORGECI_CONTAINER_ENGINE", "docker")
	t.Setenv("FORGECI_PIPELINE_WORKSPACE", "/ci")

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if cfg.ContainerEngine != ContainerEngineDocker {
		t.Errorf("ContainerEngine = %q, environment should beat the config file", cfg.ContainerEngine)
	}
	if cfg.Pipeline.Workspace != "/ci" {
		t.Errorf("Pipeline.Workspace = %q, want /ci from environment", cfg.Pipeline.Workspace)
	}
}

func TestLoad_EnvOverridesValidated(t *testing.T) {
	// Not parallel: t.Setenv mutates the process environment.

	t.Setenv("FORGECI_CONTAINER_ENGINE", "lxc")

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err == nil {
		t.Fatal("loadWithOptions() expected error for invalid engine from environment, got nil")
	}
}

func TestLoad_InvalidEngine(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `container_engine: "lxc"`)

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err == nil {
		t.Fatal("loadWithOptions() expected error for invalid engine, got nil")
	}
}

func TestLoad_InvalidCUESyntax(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `container_engine: "podman`)

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err == nil {
		t.Fatal("loadWithOptions() expected error for invalid CUE, got nil")
	}
}

func TestLoad_ExplicitFileNotFound(t *testing.T) {
	_, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if err == nil {
		t.Fatal("loadWithOptions() expected error for missing explicit file, got nil")
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := loadWithOptions(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("loadWithOptions() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := DefaultConfig()
	original.ContainerEngine = ContainerEngineDocker
	original.UI.Verbose = true
	original.Allowlist.Path = "/var/lib/forgeci/allowlist.toml"

	writeConfigFile(t, dir, GenerateCUE(original))

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.ContainerEngine != original.ContainerEngine {
		t.Errorf("ContainerEngine = %q, want %q", cfg.ContainerEngine, original.ContainerEngine)
	}
	if cfg.UI.Verbose != original.UI.Verbose {
		t.Errorf("UI.Verbose = %v, want %v", cfg.UI.Verbose, original.UI.Verbose)
	}
	if cfg.Allowlist.Path != original.Allowlist.Path {
		t.Errorf("Allowlist.Path = %q, want %q", cfg.Allowlist.Path, original.Allowlist.Path)
	}
}

func TestConfigDir_Override(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if got != dir {
		t.Errorf("ConfigDir() = %q, want %q", got, dir)
	}
}

func TestAllowlistPath(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	cfg := DefaultConfig()
	got, err := AllowlistPath(cfg)
	if err != nil {
		t.Fatalf("AllowlistPath() error = %v", err)
	}
	if want := filepath.Join(dir, AllowlistFileName); got != want {
		t.Errorf("AllowlistPath() = %q, want %q", got, want)
	}

	cfg.Allowlist.Path = "/explicit/allowlist.toml"
	got, err = AllowlistPath(cfg)
	if err != nil {
		t.Fatalf("AllowlistPath() error = %v", err)
	}
	if got != "/explicit/allowlist.toml" {
		t.Errorf("AllowlistPath() = %q, want explicit path", got)
	}
}
