// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"testing"
)

func TestContainerEngine_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		engine ContainerEngine
		valid  bool
	}{
		{ContainerEngineAuto, true},
		{ContainerEnginePodman, true},
		{ContainerEngineDocker, true},
		{ContainerEngine("lxc"), false},
		{ContainerEngine(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.engine), func(t *testing.T) {
			t.Parallel()
			valid, errs := tt.engine.IsValid()
			if valid != tt.valid {
				t.Errorf("IsValid() = %v, want %v", valid, tt.valid)
			}
			if !tt.valid && !errors.Is(errs[0], ErrInvalidContainerEngine) {
				t.Errorf("error %v should wrap ErrInvalidContainerEngine", errs[0])
			}
		})
	}
}

func TestColorScheme_IsValid(t *testing.T) {
	t.Parallel()

	for _, cs := range []ColorScheme{ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight} {
		if valid, _ := cs.IsValid(); !valid {
			t.Errorf("IsValid(%q) = false, want true", cs)
		}
	}

	valid, errs := ColorScheme("neon").IsValid()
	if valid {
		t.Error("IsValid(neon) = true, want false")
	}
	if !errors.Is(errs[0], ErrInvalidColorScheme) {
		t.Errorf("error %v should wrap ErrInvalidColorScheme", errs[0])
	}
}

func TestPipelineConfig_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  PipelineConfig
		want error
	}{
		{"valid", PipelineConfig{Workspace: "/workspace", MaxRetries: 3}, nil},
		{"relative workspace", PipelineConfig{Workspace: "workspace", MaxRetries: 3}, ErrInvalidWorkspace},
		{"zero retries", PipelineConfig{Workspace: "/workspace", MaxRetries: 0}, ErrInvalidMaxRetries},
		{"too many retries", PipelineConfig{Workspace: "/workspace", MaxRetries: 11}, ErrInvalidMaxRetries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			valid, errs := tt.cfg.IsValid()
			if tt.want == nil {
				if !valid {
					t.Errorf("IsValid() = false, errs = %v, want valid", errs)
				}
				return
			}
			if valid {
				t.Fatal("IsValid() = true, want false")
			}
			if !errors.Is(errs[0], tt.want) {
				t.Errorf("error %v should wrap %v", errs[0], tt.want)
			}
		})
	}
}

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if valid, errs := cfg.IsValid(); !valid {
		t.Fatalf("DefaultConfig().IsValid() = false, errs = %v", errs)
	}

	cfg.ContainerEngine = "lxc"
	valid, errs := cfg.IsValid()
	if valid {
		t.Fatal("IsValid() = true for invalid engine, want false")
	}
	if !errors.Is(errs[0], ErrInvalidConfig) {
		t.Errorf("error %v should wrap ErrInvalidConfig", errs[0])
	}
	if !errors.Is(errs[0].(*InvalidConfigError).FieldErrors[0], ErrInvalidContainerEngine) {
		t.Error("field error should wrap ErrInvalidContainerEngine")
	}
}
