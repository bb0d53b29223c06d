package users

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/authgate/cmd/cmdutil"
	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/db/models"
	"github.com/terraconstructs/authgate/internal/repository"
)

var (
	usernameFlag string
	emailFlag    string
	nicknameFlag string
	passwordFlag string
	rolesInput   []string
	stdinFlag    bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new enabled user",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Validate required flags
		if usernameFlag == "" {
			return fmt.Errorf("--username flag is required")
		}

		password := passwordFlag
		if stdinFlag {
			// Read password from stdin
			scanner := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprint(cmd.ErrOrStderr(), "Enter password: ")
			if scanner.Scan() {
				password = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}

		if password == "" {
			return fmt.Errorf("password is required (use --password or --stdin)")
		}

		if emailFlag != "" {
			if _, err := mail.ParseAddress(emailFlag); err != nil {
				return fmt.Errorf("invalid email format: %w", err)
			}
		}

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

		roles, err := lookupRoles(ctx, bundle.Roles, rolesInput)
		if err != nil {
			return err
		}

		// Check if username already exists
		if _, err := bundle.Users.GetByUsername(ctx, usernameFlag); err == nil {
			return fmt.Errorf("user %q already exists", usernameFlag)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check username uniqueness: %w", err)
		}

		hashedPassword, err := auth.HashPassword(password, auth.PasswordCost)
		if err != nil {
			return err
		}

		user := &models.User{
			Username:     usernameFlag,
			PasswordHash: hashedPassword,
			Email:        emailFlag,
			Nickname:     nicknameFlag,
			Status:       models.StatusEnabled,
		}
		if err := bundle.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		for _, role := range roles {
			if err := bundle.UserRoles.Assign(ctx, user.ID, role.ID); err != nil {
				return fmt.Errorf("failed to assign role '%s': %w", role.RoleCode, err)
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "User created successfully!")
		fmt.Fprintln(out, "----------------------------------------")
		fmt.Fprintf(out, "User ID: %s\n", user.ID)
		fmt.Fprintf(out, "Username: %s\n", user.Username)
		if len(roles) > 0 {
			codes := make([]string, len(roles))
			for i, role := range roles {
				codes[i] = role.RoleCode
			}
			fmt.Fprintf(out, "Roles: %s\n", strings.Join(codes, ", "))
		}
		fmt.Fprintln(out, "----------------------------------------")

		return nil
	},
}

// lookupRoles resolves every code or reports all unknown ones at once.
func lookupRoles(ctx context.Context, repo repository.RoleRepository, codes []string) ([]*models.Role, error) {
	roles := make([]*models.Role, 0, len(codes))
	var invalid []string
	for _, code := range codes {
		role, err := repo.GetByCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			invalid = append(invalid, code)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch role %q: %w", code, err)
		}
		roles = append(roles, role)
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid role(s): %s", strings.Join(invalid, ", "))
	}
	return roles, nil
}
