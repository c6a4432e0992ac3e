package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/avvvet/deckvault-services/internal/auth"
	"github.com/spf13/cobra"
)

var (
	tokenOwner int64
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development JWT for an owner id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := os.Getenv("JWT_SECRET_KEY")
		if secret == "" {
			return errors.New("JWT_SECRET_KEY is not set")
		}
		if tokenOwner <= 0 {
			return errors.New("--owner must be a positive user id")
		}

		token, err := auth.IssueToken(auth.NewTokenAuth(secret), tokenOwner, tokenTTL)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenOwner, "owner", 0, "user id to embed in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 7*24*time.Hour, "token lifetime")
}
