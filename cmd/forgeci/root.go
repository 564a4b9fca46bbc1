// SPDX-License-Identifier: MIT

// Package cmd contains all CLI commands for forgeci.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"forgeci/internal/config"
	"forgeci/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output.
	verbose bool
	// cfgFile allows specifying a custom config file.
	cfgFile string
	// forgefilePath allows specifying a custom forgefile.
	forgefilePath string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "forgeci",
		Short: "A container-backed CI pipeline runner",
		Long: TitleStyle.Render("forgeci") + SubtitleStyle.Render(" - A container-backed CI pipeline runner") + `

forgeci runs a project's test suite the way a CI worker does: it makes
sure a container engine (Podman or Docker) is available, builds the
worker image from the project's Containerfile with the source branch
baked in, and executes the test suite inside a container.

Pipelines are defined in 'forgefile' files using CUE format. Stages run
sequentially and the pipeline stops at the first failure; the process
exits with the failing stage's exit code.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'forgeci init' in your project directory
  2. Adjust the generated forgefile.cue
  3. Run the pipeline with: forgeci run --branch <branch>

` + SubtitleStyle.Render("Examples:") + `
  forgeci run --branch pr-42   Run the full pipeline for a branch
  forgeci build                Build the worker image only
  forgeci test                 Run the test stage only
  forgeci validate             Check the forgefile without running
  forgeci config show          Show current configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootLogging)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the platform config dir)")
	rootCmd.PersistentFlags().StringVarP(&forgefilePath, "file", "f", "", "forgefile to use (default is ./forgefile.cue)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(allowlistCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			svcErr.Render(os.Stderr)
		}
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootLogging wires a styled log handler as the slog default, leveled
// by the --verbose flag.
func initRootLogging() {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		Level:  level,
		Prefix: "forgeci",
	})
	slog.SetDefault(slog.New(handler))
}

// loadConfig loads the application configuration, honoring --config.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.NewProvider().Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return nil, newServiceError(err, issue.ConfigLoadFailedId,
			ErrorStyle.Render("Failed to load configuration: ")+formatErrorForDisplay(err, verbose)+"\n")
	}
	return cfg, nil
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
