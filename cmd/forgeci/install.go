// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"

	"forgeci/internal/config"
	"forgeci/internal/container"
	"forgeci/internal/issue"
	"forgeci/internal/sysinstall"

	"github.com/spf13/cobra"
)

var installEngineFlag string

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install a container engine",
	Long: `Make sure a container engine (Podman or Docker) is available, installing
one through the host package manager when missing. Installation elevates
privileges with 'sudo -n' and fails fast when sudo would prompt for a
password.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}

		prefer := container.EngineType(cfg.ContainerEngine)
		if installEngineFlag != "" {
			engine := config.ContainerEngine(installEngineFlag)
			if ok, errs := engine.IsValid(); !ok {
				return fmt.Errorf("invalid --engine value %q: %w", installEngineFlag, errs[0])
			}
			prefer = container.EngineType(engine)
		}

		engine, err := sysinstall.EnsureEngine(cmd.Context(), prefer,
			sysinstall.WithOutput(os.Stdout, os.Stderr))
		if err != nil {
			return newServiceError(err, issue.EngineInstallFailedId,
				ErrorStyle.Render("Engine installation failed: ")+formatErrorForDisplay(err, verbose)+"\n")
		}

		version, err := engine.Version(cmd.Context())
		if err != nil {
			version = "unknown"
		}
		fmt.Fprintf(os.Stdout, "%s %s %s\n",
			SuccessStyle.Render("✓"),
			engine.Name(),
			SubtitleStyle.Render(version))
		return nil
	},
}

func init() {
	installCmd.Flags().StringVar(&installEngineFlag, "engine", "", "container engine to install (podman, docker or auto)")
}
