package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	config "github.com/avvvet/deckvault-services/configs"
	"github.com/avvvet/deckvault-services/internal/db"
	nats "github.com/avvvet/deckvault-services/internal/nats"
	"github.com/avvvet/deckvault-services/internal/syncsvc/broker"
	"github.com/avvvet/deckvault-services/internal/syncsvc/provider"
	"github.com/avvvet/deckvault-services/internal/syncsvc/scheduler"
	"github.com/avvvet/deckvault-services/internal/syncsvc/synchronizer"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/store"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "sync"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
}

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// pg connection
	dbpool, err := db.Connect(ctx, settings.PostgresURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	if err := db.Migrate(ctx, dbpool); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	catalogStore := store.NewCatalogStore(dbpool)
	syncer := synchronizer.New(
		provider.NewClient(settings.ProviderURL, settings.FetchTimeout),
		catalogStore,
		synchronizer.WithInstanceID(instanceId),
		synchronizer.WithLocker(catalogStore),
	)

	// Connect to NATS
	n, err := nats.Connect(settings.NatsURL, settings.NatsToken, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Fatalf("Error: unable to connect to NATS server %v", err)
	}
	defer n.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	b := broker.NewBroker(n.Conn, nil, instanceId)
	sched := scheduler.New(syncer, settings.SyncInterval, scheduler.WithReportHook(b.PublishReport))
	b.Trigger = sched.Trigger // set scheduler reference for manual requests

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	sub, err := b.SubscribeSyncRequests()
	if err != nil {
		log.Fatalf("Error: unable to subscribe to queue %v", err)
	}
	log.Infof("%s service running, sync every %s", SERVICE_NAME, settings.SyncInterval)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	sub.Unsubscribe()
	sched.Stop()
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
