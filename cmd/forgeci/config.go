// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"forgeci/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage forgeci configuration",
	Long: `Manage the forgeci configuration file. The configuration lives in
'config.cue' under the platform config directory and is validated against
an embedded CUE schema.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}

		dir, err := config.ConfigDir()
		if err == nil {
			fmt.Fprintln(os.Stdout, SubtitleStyle.Render("// "+filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)))
		}
		fmt.Fprint(os.Stdout, config.GenerateCUE(cfg))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.CreateDefaultConfig(); err != nil {
			return err
		}

		dir, err := config.ConfigDir()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s wrote %s\n",
			SuccessStyle.Render("✓"),
			CmdStyle.Render(filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
