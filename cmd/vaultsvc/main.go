package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/avvvet/deckvault-services/configs"
	"github.com/avvvet/deckvault-services/internal/auth"
	"github.com/avvvet/deckvault-services/internal/db"
	nats "github.com/avvvet/deckvault-services/internal/nats"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/broker"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/cache"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/handlers"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/service"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/store"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "vault"

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
	if err := settings.RequireJWTSecret(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

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

	// optional read cache; the API works without it
	var cardCache service.CardCache
	if settings.RedisAddr != "" {
		rc, err := cache.Connect(ctx, settings.RedisAddr, settings.RedisPassword, settings.RedisDB)
		if err != nil {
			log.Warnf("card cache disabled: %v", err)
		} else {
			defer rc.Close()
			cardCache = cache.NewCardCache(rc, settings.CardCacheTTL)
		}
	}

	catalogStore := store.NewCatalogStore(dbpool)
	catalogService := service.NewCatalogService(catalogStore, cardCache)

	// Connect to NATS
	n, err := nats.Connect(settings.NatsURL, settings.NatsToken, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Fatalf("Error: unable to connect to NATS server %v", err)
	}
	defer n.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	b := broker.NewBroker(n.Conn, catalogService)

	binderStore := store.NewBinderStore(dbpool)
	binderService := service.NewBinderService(binderStore, b)

	binderCardStore := store.NewBinderCardStore(dbpool)
	binderCardService := service.NewBinderCardService(binderCardStore, binderStore, b)
	reorderService := service.NewReorderService(binderCardStore, b)

	sub, err := b.SubscribeCatalogSynced()
	if err != nil {
		log.Fatalf("Error: unable to subscribe to %v", err)
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(settings.CORSOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(settings.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(auth.NewTokenAuth(settings.JWTSecret), handlers.Services{
		Catalog:     catalogService,
		Binders:     binderService,
		BinderCards: binderCardService,
		Reorder:     reorderService,
		Sync:        b,
	}, settings.VaultPort)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + settings.VaultPort,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	sub.Unsubscribe()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
