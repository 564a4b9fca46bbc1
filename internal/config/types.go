// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ContainerEngineAuto picks Podman when available and falls back to Docker.
	ContainerEngineAuto ContainerEngine = "auto"
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultWorkspace is where the project directory is mounted inside
	// the worker container.
	DefaultWorkspace = "/workspace"
	// DefaultMaxRetries bounds retry attempts for transient engine failures.
	DefaultMaxRetries = 3
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidWorkspace is returned when the workspace path is not absolute.
	ErrInvalidWorkspace = errors.New("invalid workspace path")
	// ErrInvalidMaxRetries is returned when max_retries is out of range.
	ErrInvalidMaxRetries = errors.New("invalid max retries")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container runtime to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	// It wraps ErrInvalidContainerEngine for errors.Is() compatibility.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidWorkspaceError is returned when the workspace path is not absolute.
	// It wraps ErrInvalidWorkspace for errors.Is() compatibility.
	InvalidWorkspaceError struct {
		Value string
	}

	// InvalidMaxRetriesError is returned when max_retries is out of range.
	// It wraps ErrInvalidMaxRetries for errors.Is() compatibility.
	InvalidMaxRetriesError struct {
		Value int
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// ContainerEngine specifies "auto", "podman", or "docker"
		ContainerEngine ContainerEngine `json:"container_engine" mapstructure:"container_engine"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Pipeline configures pipeline behavior
		Pipeline PipelineConfig `json:"pipeline" mapstructure:"pipeline"`
		// Allowlist configures the account allowlist store
		Allowlist AllowlistConfig `json:"allowlist" mapstructure:"allowlist"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// PipelineConfig configures pipeline behavior.
	PipelineConfig struct {
		// Workspace is the mount point for the project inside the worker container
		Workspace string `json:"workspace" mapstructure:"workspace"`
		// MaxRetries bounds retry attempts for transient engine failures
		MaxRetries int `json:"max_retries" mapstructure:"max_retries"`
	}

	// AllowlistConfig configures the account allowlist store.
	AllowlistConfig struct {
		// Path to the allowlist TOML file. Empty means the default location
		// under the config directory.
		Path string `json:"path" mapstructure:"path"`
	}
)

// Error implements the error interface for InvalidContainerEngineError.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: auto, podman, docker)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error {
	return ErrInvalidContainerEngine
}

// String returns the string representation of the ContainerEngine.
func (ce ContainerEngine) String() string { return string(ce) }

// IsValid returns whether the ContainerEngine is one of the defined engine types,
// and a list of validation errors if it is not.
func (ce ContainerEngine) IsValid() (bool, []error) {
	switch ce {
	case ContainerEngineAuto, ContainerEnginePodman, ContainerEngineDocker:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: ce}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidWorkspaceError.
func (e *InvalidWorkspaceError) Error() string {
	return fmt.Sprintf("invalid workspace path %q: must be an absolute path", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidWorkspaceError) Unwrap() error { return ErrInvalidWorkspace }

// Error implements the error interface for InvalidMaxRetriesError.
func (e *InvalidMaxRetriesError) Error() string {
	return fmt.Sprintf("invalid max retries %d (valid: 1 to 10)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidMaxRetriesError) Unwrap() error { return ErrInvalidMaxRetries }

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	return c.ColorScheme.IsValid()
}

// IsValid returns whether the PipelineConfig has valid fields.
// The workspace must be an absolute container path and max_retries
// must stay within the schema bounds.
func (c PipelineConfig) IsValid() (bool, []error) {
	var errs []error
	if !strings.HasPrefix(c.Workspace, "/") {
		errs = append(errs, &InvalidWorkspaceError{Value: c.Workspace})
	}
	if c.MaxRetries < 1 || c.MaxRetries > 10 {
		errs = append(errs, &InvalidMaxRetriesError{Value: c.MaxRetries})
	}
	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// IsValid returns whether the Config has valid fields.
// It delegates to ContainerEngine.IsValid(), UI.IsValid(), and
// Pipeline.IsValid(). The allowlist path needs no validation since
// the zero value means "use the default location".
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ContainerEngine.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Pipeline.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: ContainerEngineAuto,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
		Pipeline: PipelineConfig{
			Workspace:  DefaultWorkspace,
			MaxRetries: DefaultMaxRetries,
		},
		Allowlist: AllowlistConfig{
			Path: "", // Will use <config dir>/allowlist.toml if empty
		},
	}
}
