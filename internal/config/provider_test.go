// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestProvider_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.cue")
	if err := os.WriteFile(path, []byte(`container_engine: "podman"`), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ContainerEngine != ContainerEnginePodman {
		t.Errorf("ContainerEngine = %q, want %q", cfg.ContainerEngine, ContainerEnginePodman)
	}
}

func TestProvider_Load_MissingFile(t *testing.T) {
	p := NewProvider()
	_, err := p.Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "missing.cue"),
	})
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}
