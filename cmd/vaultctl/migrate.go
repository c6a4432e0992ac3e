package main

import (
	"fmt"

	"github.com/avvvet/deckvault-services/internal/db"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("schema is up to date"))
		return nil
	},
}
