// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"os"

	"forgeci/internal/allowlist"
	"forgeci/internal/config"
	"forgeci/internal/issue"

	"github.com/spf13/cobra"
)

var allowlistCmd = &cobra.Command{
	Use:   "allowlist",
	Short: "Manage the account allowlist",
	Long: `Manage the allowlist of accounts that may trigger pipeline runs.
Accounts start in the waiting state when first seen and must be approved
before 'forgeci run --account' allows them.`,
}

var allowlistApproveCmd = &cobra.Command{
	Use:   "approve <account>",
	Short: "Approve an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openAllowlist(cmd.Context())
		if err != nil {
			return err
		}
		if err := store.Approve(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s approved %s\n",
			SuccessStyle.Render("✓"), CmdStyle.Render(allowlist.Normalize(args[0])))
		return nil
	},
}

var allowlistRemoveCmd = &cobra.Command{
	Use:   "remove <account>",
	Short: "Remove an account from the allowlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openAllowlist(cmd.Context())
		if err != nil {
			return err
		}
		if err := store.Remove(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s removed %s\n",
			SuccessStyle.Render("✓"), CmdStyle.Render(allowlist.Normalize(args[0])))
		return nil
	},
}

var allowlistWaitingCmd = &cobra.Command{
	Use:   "waiting",
	Short: "List accounts waiting for approval",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openAllowlist(cmd.Context())
		if err != nil {
			return err
		}
		waiting, err := store.Waiting()
		if err != nil {
			return err
		}
		if len(waiting) == 0 {
			fmt.Fprintln(os.Stdout, SubtitleStyle.Render("no accounts waiting"))
			return nil
		}
		for _, a := range waiting {
			fmt.Fprintf(os.Stdout, "%s %s %s\n",
				WarningStyle.Render("●"),
				a.Name,
				SubtitleStyle.Render("requested "+a.Requested.Format("2006-01-02")))
		}
		return nil
	},
}

var allowlistCheckCmd = &cobra.Command{
	Use:   "check <account>",
	Short: "Check whether an account is approved",
	Long: `Check whether an account is approved. Exits with code 1 when the
account is waiting or unknown, which makes the command usable from
scripts and hooks.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openAllowlist(cmd.Context())
		if err != nil {
			return err
		}
		ok, err := store.IsApproved(args[0])
		if err != nil {
			return err
		}
		name := allowlist.Normalize(args[0])
		if !ok {
			return &ExitError{
				Code: 1,
				Err: newServiceError(
					fmt.Errorf("account %q is not approved", name),
					issue.AccountNotApprovedId,
					ErrorStyle.Render("Not approved: ")+CmdStyle.Render(name)+"\n"),
			}
		}
		fmt.Fprintf(os.Stdout, "%s %s is approved\n",
			SuccessStyle.Render("✓"), CmdStyle.Render(name))
		return nil
	},
}

func init() {
	allowlistCmd.AddCommand(allowlistApproveCmd)
	allowlistCmd.AddCommand(allowlistRemoveCmd)
	allowlistCmd.AddCommand(allowlistWaitingCmd)
	allowlistCmd.AddCommand(allowlistCheckCmd)
}

// openAllowlist resolves the store path from configuration.
func openAllowlist(ctx context.Context) (*allowlist.Store, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	path, err := config.AllowlistPath(cfg)
	if err != nil {
		return nil, err
	}
	return allowlist.NewStore(path), nil
}
