package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"storefront-bff/internal/auth"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token [user]",
	Short: "Print a bearer token for the account API",
	Long: `Signs a token with JWT_SECRET for the given user (default "tony").
Use it as "Authorization: Bearer <token>" on /api/account routes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user := "tony"
		if len(args) == 1 {
			user = args[0]
		}
		tok, err := auth.NewMiddleware(cfg.JWTSecret).IssueToken(user, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
