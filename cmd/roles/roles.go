package roles

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/authgate/cmd/cmdutil"
	"github.com/terraconstructs/authgate/internal/db/models"
)

var (
	nameFlag        string
	descriptionFlag string
	disabledFlag    bool
)

// RolesCmd is the parent command for role management operations
var RolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Manage roles and user role assignments",
	Long: `Commands for managing roles. A role's code is used verbatim as the
authority string route rules compare against (for example ADMIN).`,
}

func init() {
	createCmd.Flags().StringVar(&nameFlag, "name", "", "Human readable role name")
	createCmd.Flags().StringVar(&descriptionFlag, "description", "", "Role description")
	createCmd.Flags().BoolVar(&disabledFlag, "disabled", false, "Create the role disabled (it grants nothing until enabled)")

	RolesCmd.AddCommand(createCmd)
	RolesCmd.AddCommand(listCmd)
	RolesCmd.AddCommand(assignCmd)
	RolesCmd.AddCommand(unassignCmd)
}

// withBundle loads the shared bundle and hands it to fn.
func withBundle(fn func(ctx context.Context, cmd *cobra.Command, bundle *cmdutil.Bundle, args []string) error) func(*cobra.Command, []string) error {
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

		return fn(cmd.Context(), cmd, bundle, args)
	}
}

func statusLabel(status int) string {
	if status == models.StatusEnabled {
		return "enabled"
	}
	return "disabled"
}

// userAndRole fetches both sides of an assignment.
func userAndRole(ctx context.Context, bundle *cmdutil.Bundle, username, code string) (*models.User, *models.Role, error) {
	user, err := bundle.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	role, err := bundle.Roles.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch role: %w", err)
	}
	return user, role, nil
}
