package main

import (
	"fmt"
	"io"
	"time"

	"github.com/avvvet/deckvault-services/internal/nats"
	"github.com/avvvet/deckvault-services/internal/syncsvc/broker"
	"github.com/avvvet/deckvault-services/internal/syncsvc/provider"
	"github.com/avvvet/deckvault-services/internal/syncsvc/synchronizer"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	syncURL     string
	syncTimeout time.Duration
	syncNotify  bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one catalog synchronization and print the report",
	Long: `sync fetches the full card catalog from the provider and upserts it into
the database, exactly like a scheduled run of the sync worker. With --notify
the report is also published so running vault services flush their card cache.

Runs are serialized through a database advisory lock shared with the sync
worker: if a sync is already running anywhere against the same database the
command exits with "catalog sync already in progress" and writes nothing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		settings, pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		url := syncURL
		if url == "" {
			url = settings.ProviderURL
		}
		timeout := syncTimeout
		if timeout == 0 {
			timeout = settings.FetchTimeout
		}

		catalogStore := store.NewCatalogStore(pool)
		syncer := synchronizer.New(
			provider.NewClient(url, timeout),
			catalogStore,
			synchronizer.WithInstanceID("vaultctl"),
			synchronizer.WithLocker(catalogStore),
		)

		report, runErr := syncer.Run(ctx)
		printReport(cmd.OutOrStdout(), report, runErr)

		if syncNotify {
			n, err := nats.Connect(settings.NatsURL, settings.NatsToken, "vaultctl")
			if err != nil {
				return fmt.Errorf("notify: %w", err)
			}
			defer n.Close()
			broker.NewBroker(n.Conn, nil, "vaultctl").PublishReport(report, runErr)
		}

		if runErr != nil {
			return fmt.Errorf("sync failed: %w", runErr)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncURL, "url", "", "provider endpoint (default CATALOG_PROVIDER_URL or the public API)")
	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", 0, "provider fetch timeout (default CATALOG_FETCH_TIMEOUT)")
	syncCmd.Flags().BoolVar(&syncNotify, "notify", false, "publish the report on NATS")
}

func printReport(w io.Writer, r models.SyncReport, runErr error) {
	fmt.Fprintln(w, "Catalog Sync Report:")
	fmt.Fprintln(w, "--------------------")
	fmt.Fprintf(w, "%s %d\n", color.CyanString("fetched: "), r.Fetched)
	fmt.Fprintf(w, "%s %d (%d new, %d updated)\n", color.CyanString("upserted:"), r.Upserted, r.Inserted, r.Updated)

	failed := fmt.Sprintf("%d", r.Failed)
	if r.Failed > 0 {
		failed = color.YellowString("%d", r.Failed)
	}
	fmt.Fprintf(w, "%s %s\n", color.CyanString("failed:  "), failed)
	fmt.Fprintf(w, "%s %s\n", color.CyanString("duration:"), time.Duration(r.DurationMs)*time.Millisecond)

	for i, f := range r.Failures {
		fmt.Fprintf(w, "  %d. %s\n", i+1, f)
	}
	if r.Failed > len(r.Failures) {
		fmt.Fprintf(w, "  ... and %d more\n", r.Failed-len(r.Failures))
	}

	if runErr != nil {
		fmt.Fprintln(w, color.RedString("error: %v", runErr))
	}
}
