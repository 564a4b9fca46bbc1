// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"forgeci/internal/allowlist"
	"forgeci/internal/config"
	"forgeci/internal/container"
	"forgeci/internal/issue"
	"forgeci/internal/pipeline"
	"forgeci/internal/report"
	"forgeci/pkg/forgefile"

	"github.com/spf13/cobra"
)

// DefaultBranch is assumed when neither the forgefile nor --branch names one.
const DefaultBranch = "main"

var (
	branchFlag      string
	projectDirFlag  string
	engineFlag      string
	accountFlag     string
	envFlags        []string
	skipInstallFlag bool
	noCacheFlag     bool
	jsonFlag        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline",
	Long: `Run the full pipeline from the forgefile: extra pre tasks, container
engine detection (and installation when missing), worker image build with
SOURCE_BRANCH baked in, the containerized test suite, and extra post tasks.

Stages run sequentially and the pipeline stops at the first failure. The
process exits with the failing stage's exit code.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, cfg, err := buildRunContext(cmd.Context())
		if err != nil {
			return err
		}
		if err := checkAllowlist(cfg); err != nil {
			return err
		}
		return executeStages(cmd.Context(), rc, pipeline.DefaultStages(rc.Playbook))
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the worker image only",
	Long: `Build the worker image from the project's Containerfile, injecting
SOURCE_BRANCH as a build argument. The engine stage still runs first so a
container engine is available.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, _, err := buildRunContext(cmd.Context())
		if err != nil {
			return err
		}
		return executeStages(cmd.Context(), rc,
			[]pipeline.Stage{pipeline.NewInstallStage(), pipeline.NewBuildStage()})
	},
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the test stage only",
	Long: `Run the test suite inside a container from an already-built worker
image. COLOR=no and SOURCE_BRANCH are injected into the container
environment. Fails when the image has not been built yet.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, _, err := buildRunContext(cmd.Context())
		if err != nil {
			return err
		}
		return executeStages(cmd.Context(), rc,
			[]pipeline.Stage{pipeline.NewInstallStage(), pipeline.NewTestStage()})
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, buildCmd, testCmd} {
		c.Flags().StringVarP(&branchFlag, "branch", "b", "", "source branch under test (default from the forgefile, then 'main')")
		c.Flags().StringVar(&projectDirFlag, "project-dir", "", "project directory (default from the forgefile)")
		c.Flags().StringVar(&engineFlag, "engine", "", "container engine to use (podman, docker or auto)")
		c.Flags().StringArrayVarP(&envFlags, "env", "e", nil, "extra environment for the test container (KEY=VALUE, repeatable)")
		c.Flags().BoolVar(&skipInstallFlag, "skip-install", false, "never install an engine, only detect one")
		c.Flags().BoolVar(&noCacheFlag, "no-cache", false, "build the worker image without cache")
		c.Flags().BoolVar(&jsonFlag, "json", false, "report progress as JSON lines instead of styled output")
	}
	runCmd.Flags().StringVar(&accountFlag, "account", "", "account triggering the run, checked against the allowlist")
}

// buildRunContext loads configuration and the forgefile and assembles the
// shared stage state.
func buildRunContext(ctx context.Context) (*pipeline.RunContext, *config.Config, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	if engineFlag != "" {
		engine := config.ContainerEngine(engineFlag)
		if ok, errs := engine.IsValid(); !ok {
			return nil, nil, fmt.Errorf("invalid --engine value %q: %w", engineFlag, errs[0])
		}
		cfg.ContainerEngine = engine
	}

	pb, err := loadPlaybook()
	if err != nil {
		return nil, nil, err
	}

	extraEnv, err := pipeline.ParseEnvAssignments(envFlags)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --env value: %w", err)
	}

	return &pipeline.RunContext{
		Playbook:    pb,
		Config:      cfg,
		ProjectDir:  pb.EffectiveProjectDir(projectDirFlag),
		Branch:      resolveBranch(pb, branchFlag),
		ExtraEnv:    extraEnv,
		SkipInstall: skipInstallFlag,
		NoCache:     noCacheFlag,
		Logger:      slog.Default(),
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}, cfg, nil
}

// resolveBranch picks the source branch under test: the --branch flag wins,
// then the CI environment (FORGECI_BRANCH, then Zuul-style SOURCE_BRANCH),
// then the playbook default, then DefaultBranch.
func resolveBranch(pb *forgefile.Playbook, flagValue string) string {
	branch := flagValue
	if branch == "" {
		branch = branchFromEnv()
	}
	branch = pb.EffectiveBranch(branch)
	if branch == "" {
		branch = DefaultBranch
	}
	return branch
}

// branchFromEnv reads the branch supplied by the calling CI system.
func branchFromEnv() string {
	for _, key := range []string{"FORGECI_BRANCH", pipeline.EnvSourceBranch} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// checkAllowlist refuses the run when --account names a non-approved
// account. Unknown accounts are recorded as waiting.
func checkAllowlist(cfg *config.Config) error {
	if accountFlag == "" {
		return nil
	}

	path, err := config.AllowlistPath(cfg)
	if err != nil {
		return err
	}
	store := allowlist.NewStore(path)

	ok, err := store.IsApproved(accountFlag)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	status, err := store.Request(accountFlag)
	if err != nil {
		return err
	}
	return &ExitError{
		Code: 1,
		Err: newServiceError(
			fmt.Errorf("account %q is not approved (status: %s)", accountFlag, status),
			issue.AccountNotApprovedId,
			ErrorStyle.Render("Account not approved: ")+CmdStyle.Render(allowlist.Normalize(accountFlag))+"\n"),
	}
}

// executeStages runs the given stages and maps the outcome to the process
// exit code.
func executeStages(ctx context.Context, rc *pipeline.RunContext, stages []pipeline.Stage) error {
	var reporter pipeline.Reporter
	if jsonFlag {
		reporter = report.NewJSONLReporter(os.Stdout)
	} else {
		reporter = report.NewTerminalReporter(os.Stdout)
	}

	runner := pipeline.NewRunner(reporter, slog.Default(), stages...)
	results, err := runner.Run(ctx, rc)
	if err != nil {
		return &ExitError{
			Code: pipeline.ExitCode(err),
			Err:  newServiceError(err, issueForFailure(results), ""),
		}
	}
	return nil
}

// issueForFailure maps the failing stage to its issue catalog entry. The
// engine and build stages distinguish missing prerequisites (no engine
// found, no Containerfile) from failures of the operation itself.
func issueForFailure(results []pipeline.Result) issue.Id {
	if len(results) == 0 {
		return 0
	}
	last := results[len(results)-1]
	if last.Err == nil {
		return 0
	}

	var notAvailable *container.ErrEngineNotAvailable
	switch {
	case last.Stage == "engine" && errors.As(last.Err, &notAvailable):
		return issue.EngineNotFoundId
	case last.Stage == "engine":
		return issue.EngineInstallFailedId
	case last.Stage == "build" && errors.Is(last.Err, fs.ErrNotExist):
		return issue.ContainerfileNotFoundId
	case last.Stage == "build":
		return issue.BuildFailedId
	case last.Stage == "test":
		return issue.TestsFailedId
	case strings.HasPrefix(last.Stage, "tasks:"):
		return issue.TaskFailedId
	}
	return 0
}
