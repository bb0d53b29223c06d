package users

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/authgate/cmd/cmdutil"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List users with their status and roles",
	RunE: func(cmd *cobra.Command, args []string) error {
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
		users, err := bundle.Users.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tENABLED\tROLES\tID")
		for _, u := range users {
			codes, err := bundle.Roles.FindRoleCodesByUserID(ctx, u.ID)
			if err != nil {
				return fmt.Errorf("failed to fetch roles for %s: %w", u.Username, err)
			}
			fmt.Fprintf(w, "%s\t%t\t%v\t%s\n", u.Username, u.Enabled(), codes, u.ID)
		}
		return w.Flush()
	},
}
