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
	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/deckvault-services/configs"
	"github.com/avvvet/deckvault-services/internal/auth"
	"github.com/avvvet/deckvault-services/internal/comm"
	"github.com/avvvet/deckvault-services/internal/feedsvc/broker"
	"github.com/avvvet/deckvault-services/internal/feedsvc/routes"
	"github.com/avvvet/deckvault-services/internal/feedsvc/ws"
	"github.com/avvvet/deckvault-services/internal/nats"
)

const SERVICE_NAME = "feed"

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

	// Connect to NATS
	n, err := nats.Connect(settings.NatsURL, settings.NatsToken, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Fatalf("Error: unable to connect to NATS server %v", err)
	}
	defer n.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(settings.CORSOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(settings.RateLimit, 1*time.Minute))

	// Initialize websocket handler
	s := ws.NewWs()

	routes.SetRoutes(r, s, auth.NewTokenAuth(settings.JWTSecret), settings.FeedPort, allowOrigins(settings.CORSOrigins))

	b := broker.NewBroker(n.Conn, s.OwnerSockets, s.SendRaw)

	sub, err := b.Subscribe(comm.TopicBinderEvents)
	if err != nil {
		log.Fatalf("Error: unable to subscribe to %s %v", comm.TopicBinderEvents, err)
	}

	// Create server with timeout settings
	server := &http.Server{
		Addr:        ":" + settings.FeedPort,
		Handler:     r,
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}

// allowOrigins accepts websocket upgrades from the configured CORS origins and
// from non-browser clients that send no Origin header.
func allowOrigins(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}
