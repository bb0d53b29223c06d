package users

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/authgate/cmd/cmdutil"
	"github.com/terraconstructs/authgate/internal/db/models"
)

var disableCmd = &cobra.Command{
	Use:   "disable [username]",
	Short: "Disable a user; existing tokens stop resolving immediately",
	Args:  cobra.ExactArgs(1),
	RunE:  setStatus(models.StatusDisabled),
}

var enableCmd = &cobra.Command{
	Use:   "enable [username]",
	Short: "Re-enable a disabled user",
	Args:  cobra.ExactArgs(1),
	RunE:  setStatus(models.StatusEnabled),
}

func setStatus(status int) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := cmdutil.ConfigFrom(cmd.Context())
		if err != nil {
			return err
		}
		bundle, err := cmdutil.Open(cfg, cmdutil.OpenOptions{})
		if err != nil {
			return err
		}
		defer bundle.Close()

		ctx := cmd.Context()
		user, err := bundle.Users.GetByUsername(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to fetch user: %w", err)
		}
		if err := bundle.Users.SetStatus(ctx, user.ID, status); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		state := "disabled"
		if status == models.StatusEnabled {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %s %s\n", user.Username, state)
		return nil
	}
}
