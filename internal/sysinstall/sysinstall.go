// SPDX-License-Identifier: MIT

// Package sysinstall installs system packages through the host package
// manager. It backs the pipeline stage that makes a container engine
// available before any image is built.
//
// Installation always runs non-interactively: when elevation is needed the
// command is prefixed with "sudo -n" so a missing sudoers rule fails fast
// instead of hanging on a password prompt.
package sysinstall

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"forgeci/internal/container"
	"forgeci/internal/issue"
)

// ErrNoPackageManager is returned when no supported package manager is found.
var ErrNoPackageManager = errors.New("no supported package manager found")

type (
	// PackageManager describes a host package manager and how to invoke it.
	PackageManager struct {
		// Name is the binary name (e.g., "dnf").
		Name string
		// InstallArgs are the arguments for a non-interactive install,
		// before the package names.
		InstallArgs []string
		// NeedsSudo indicates the manager requires root for installs.
		NeedsSudo bool
	}

	// InstallerOption configures an Installer.
	InstallerOption func(*Installer)

	// Installer installs packages with a detected package manager.
	Installer struct {
		pm          *PackageManager
		binaryPath  string
		execCommand container.ExecCommandFunc
		geteuid     func() int
		stdout      io.Writer
		stderr      io.Writer
	}
)

// knownManagers lists supported package managers in detection order.
// dnf is first since Fedora is the primary deployment target.
var knownManagers = []PackageManager{
	{Name: "dnf", InstallArgs: []string{"install", "-y"}, NeedsSudo: true},
	{Name: "apt-get", InstallArgs: []string{"install", "-y"}, NeedsSudo: true},
	{Name: "zypper", InstallArgs: []string{"--non-interactive", "install"}, NeedsSudo: true},
	{Name: "apk", InstallArgs: []string{"add"}, NeedsSudo: true},
	{Name: "brew", InstallArgs: []string{"install"}, NeedsSudo: false},
}

// lookPath resolves a binary on PATH. Overridable in tests.
var lookPath = exec.LookPath

// DetectPackageManager finds the first supported package manager on PATH.
func DetectPackageManager() (*PackageManager, string, error) {
	for _, pm := range knownManagers {
		if path, err := lookPath(pm.Name); err == nil {
			found := pm
			return &found, path, nil
		}
	}
	return nil, "", ErrNoPackageManager
}

// --- Option Functions ---

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn container.ExecCommandFunc) InstallerOption {
	return func(i *Installer) {
		i.execCommand = fn
	}
}

// WithEUID sets a custom effective-UID function for testing.
func WithEUID(fn func() int) InstallerOption {
	return func(i *Installer) {
		i.geteuid = fn
	}
}

// WithOutput directs the package manager's output streams.
func WithOutput(stdout, stderr io.Writer) InstallerOption {
	return func(i *Installer) {
		i.stdout = stdout
		i.stderr = stderr
	}
}

// NewInstaller creates an installer for the given package manager.
func NewInstaller(pm *PackageManager, binaryPath string, opts ...InstallerOption) *Installer {
	i := &Installer{
		pm:          pm,
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
		geteuid:     os.Geteuid,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// CommandLine builds the full command line for installing the given packages,
// including the sudo prefix when elevation is required.
func (i *Installer) CommandLine(packages ...string) []string {
	var argv []string
	if i.pm.NeedsSudo && i.geteuid() != 0 {
		argv = append(argv, "sudo", "-n")
	}
	argv = append(argv, i.binaryPath)
	argv = append(argv, i.pm.InstallArgs...)
	argv = append(argv, packages...)
	return argv
}

// Install installs the given packages non-interactively.
func (i *Installer) Install(ctx context.Context, packages ...string) error {
	argv := i.CommandLine(packages...)

	cmd := i.execCommand(ctx, argv[0], argv[1:]...)
	cmd.Stdout = i.stdout
	cmd.Stderr = i.stderr

	if err := cmd.Run(); err != nil {
		return issue.NewErrorContext().
			WithOperation("install system packages").
			WithResource(i.pm.Name).
			WithSuggestion("Configure passwordless sudo for package installation").
			WithSuggestion("Install the packages manually and re-run").
			WithSuggestion("Check the package manager output above for details").
			Wrap(err).
			BuildError()
	}

	return nil
}

// EnginePackage returns the package name that provides the given container
// engine under the given package manager. Docker ships as docker.io on
// Debian-based systems.
func EnginePackage(pm *PackageManager, engine container.EngineType) string {
	if engine == container.EngineTypeDocker && pm.Name == "apt-get" {
		return "docker.io"
	}
	return string(engine)
}

// EnsureEngine makes sure a container engine is available, installing one
// through the package manager when necessary. Returns the ready engine.
func EnsureEngine(ctx context.Context, prefer container.EngineType, opts ...InstallerOption) (container.Engine, error) {
	if engine, err := container.NewEngine(prefer); err == nil {
		return engine, nil
	}

	pm, path, err := DetectPackageManager()
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("install container engine").
			WithSuggestion("Install podman or docker manually").
			WithSuggestion("Supported package managers: dnf, apt-get, zypper, apk, brew").
			Wrap(err).
			BuildError()
	}

	target := prefer
	if target == container.EngineTypeAuto {
		target = container.EngineTypePodman
	}

	installer := NewInstaller(pm, path, opts...)
	if err := installer.Install(ctx, EnginePackage(pm, target)); err != nil {
		return nil, err
	}

	engine, err := container.NewEngine(target)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("install container engine").
			WithResource(string(target)).
			WithSuggestion("The package installed but the engine is still not responding").
			WithSuggestion("Check that the engine daemon or socket is running").
			Wrap(err).
			BuildError()
	}

	return engine, nil
}
