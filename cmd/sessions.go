package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/authgate/cmd/cmdutil"
	"github.com/terraconstructs/authgate/internal/sessionstore"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Session store maintenance",
}

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired and revoked sessions from the database store",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := cmdutil.Open(cfg, cmdutil.OpenOptions{})
		if err != nil {
			return err
		}
		defer bundle.Close()

		n, err := sessionstore.NewDBStore(bundle.Sessions).Prune(cmd.Context())
		if err != nil {
			return fmt.Errorf("prune sessions: %w", err)
		}

		log.Printf("Pruned %d stale sessions", n)
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsPruneCmd)
	rootCmd.AddCommand(sessionsCmd)
}
