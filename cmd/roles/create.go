package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/authgate/cmd/cmdutil"
	"github.com/terraconstructs/authgate/internal/db/models"
	"github.com/terraconstructs/authgate/internal/repository"
)

var createCmd = &cobra.Command{
	Use:   "create [code]",
	Short: "Create a role",
	Args:  cobra.ExactArgs(1),
	RunE: withBundle(func(ctx context.Context, cmd *cobra.Command, bundle *cmdutil.Bundle, args []string) error {
		code := strings.TrimSpace(args[0])
		if code == "" {
			return fmt.Errorf("role code must not be blank")
		}

		if _, err := bundle.Roles.GetByCode(ctx, code); err == nil {
			return fmt.Errorf("role %q already exists", code)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check role uniqueness: %w", err)
		}

		role := &models.Role{
			RoleCode:    code,
			RoleName:    nameFlag,
			Description: descriptionFlag,
			Status:      models.StatusEnabled,
		}
		if disabledFlag {
			role.Status = models.StatusDisabled
		}
		if err := bundle.Roles.Create(ctx, role); err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Role %s created (%s)\n", role.RoleCode, statusLabel(role.Status))
		return nil
	}),
}
