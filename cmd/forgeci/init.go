// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"forgeci/pkg/forgefile"

	"github.com/spf13/cobra"
)

var initForceFlag bool

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a starter forgefile",
	Long: `Create a starter forgefile.cue in the current directory. The optional
name argument sets the playbook name; it defaults to the directory name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		name := filepath.Base(cwd)
		if len(args) == 1 {
			name = args[0]
		}

		path := filepath.Join(cwd, forgefile.DefaultFileName)
		if _, err := os.Stat(path); err == nil && !initForceFlag {
			return fmt.Errorf("%s already exists (use --force to overwrite)", forgefile.DefaultFileName)
		}

		content := forgefile.GenerateCUE(forgefile.Starter(name))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write forgefile: %w", err)
		}

		fmt.Fprintf(os.Stdout, "%s wrote %s\n",
			SuccessStyle.Render("✓"), CmdStyle.Render(path))
		fmt.Fprintln(os.Stdout, SubtitleStyle.Render("Adjust the image and test sections, then run: forgeci run"))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForceFlag, "force", false, "overwrite an existing forgefile")
}
