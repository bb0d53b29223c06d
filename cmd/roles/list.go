package roles

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/authgate/cmd/cmdutil"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles",
	RunE: withBundle(func(ctx context.Context, cmd *cobra.Command, bundle *cmdutil.Bundle, args []string) error {
		roles, err := bundle.Roles.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list roles: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tNAME\tSTATUS\tDESCRIPTION")
		for _, r := range roles {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.RoleCode, r.RoleName, statusLabel(r.Status), r.Description)
		}
		return w.Flush()
	}),
}
