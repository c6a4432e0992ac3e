package main

import (
	"context"
	"fmt"

	config "github.com/avvvet/deckvault-services/configs"
	"github.com/avvvet/deckvault-services/internal/db"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbose bool

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "vaultctl",
	Short: "Operator tool for the deckvault services",
	Long: `vaultctl manages the deckvault database and catalog from the command line.
It reads the same environment (and .env file) as the services.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetLevel(log.WarnLevel)
		if verbose {
			log.SetLevel(log.InfoLevel)
		}
		config.LoadEnv("vaultctl")
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	RootCmd.AddCommand(migrateCmd)
	RootCmd.AddCommand(syncCmd)
	RootCmd.AddCommand(tokenCmd)
}

func connect(ctx context.Context) (*config.Settings, *pgxpool.Pool, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.Connect(ctx, settings.PostgresURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return settings, pool, nil
}
