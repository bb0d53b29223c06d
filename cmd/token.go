package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/authgate/cmd/cmdutil"
	"github.com/terraconstructs/authgate/internal/sessionstore"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Bearer token operator commands",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token for an enabled user without a password",
	Long: `Resolves the user and signs a bearer token with the configured key.
Use this for operator access and smoke tests; it bypasses the password check.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenSubject == "" {
			return fmt.Errorf("--subject flag is required")
		}

		bundle, err := cmdutil.Open(cfg, cmdutil.OpenOptions{})
		if err != nil {
			return err
		}
		defer bundle.Close()

		// Issuing never touches sessions; an in-memory store satisfies the service.
		iamService, err := bundle.NewIAMService(cfg, sessionstore.NewMemoryStore(), nil)
		if err != nil {
			return err
		}

		issued, err := iamService.IssueToken(cmd.Context(), tokenSubject, tokenTTL)
		if err != nil {
			return fmt.Errorf("issue token for %q: %w", tokenSubject, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), issued.Token)
		fmt.Fprintf(cmd.ErrOrStderr(), "%s token for %s, expires in %s\n", issued.Type, issued.Subject, issued.ExpiresIn)
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenSubject, "subject", "", "Username the token is issued to (required)")
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (defaults to jwt.expiration)")

	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}
