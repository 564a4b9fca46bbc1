// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"

	"forgeci/internal/pipeline"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the forgefile without running",
	Long: `Parse the forgefile, check it against the schema and syntax-check the
test command and every task's shell script. Nothing is executed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pb, err := loadPlaybook()
		if err != nil {
			return err
		}

		shell := pipeline.NewShellRunner(nil, nil)
		if err := shell.Validate(pb.Test.Command); err != nil {
			return fmt.Errorf("test command: %w", err)
		}
		for _, task := range pb.Tasks {
			if err := shell.Validate(task.Shell); err != nil {
				return fmt.Errorf("task %q: %w", task.Name, err)
			}
		}

		fmt.Fprintf(os.Stdout, "%s %s %s\n",
			SuccessStyle.Render("✓"),
			pb.FilePath,
			SubtitleStyle.Render(fmt.Sprintf("(playbook %q, %d tasks)", pb.Name, len(pb.Tasks))))
		return nil
	},
}
