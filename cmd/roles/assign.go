package roles

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/authgate/cmd/cmdutil"
)

var assignCmd = &cobra.Command{
	Use:   "assign [username] [code]",
	Short: "Assign a role to a user",
	Long: `Assigns a role to a user. Bearer tokens pick up the change on their next
request; sessions keep the authorities they were created with until they end.`,
	Args: cobra.ExactArgs(2),
	RunE: withBundle(func(ctx context.Context, cmd *cobra.Command, bundle *cmdutil.Bundle, args []string) error {
		user, role, err := userAndRole(ctx, bundle, args[0], args[1])
		if err != nil {
			return err
		}
		if err := bundle.UserRoles.Assign(ctx, user.ID, role.ID); err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Assigned role '%s' to %s\n", role.RoleCode, user.Username)
		return nil
	}),
}

var unassignCmd = &cobra.Command{
	Use:   "unassign [username] [code]",
	Short: "Remove a role from a user",
	Args:  cobra.ExactArgs(2),
	RunE: withBundle(func(ctx context.Context, cmd *cobra.Command, bundle *cmdutil.Bundle, args []string) error {
		user, role, err := userAndRole(ctx, bundle, args[0], args[1])
		if err != nil {
			return err
		}
		if err := bundle.UserRoles.Revoke(ctx, user.ID, role.ID); err != nil {
			return fmt.Errorf("failed to remove role: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed role '%s' from %s\n", role.RoleCode, user.Username)
		return nil
	}),
}
