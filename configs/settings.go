package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings is the typed view of the environment shared by all services.
type Settings struct {
	PostgresURL string

	VaultPort string
	FeedPort  string
	RateLimit int

	JWTSecret string

	NatsURL   string
	NatsToken string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CardCacheTTL  time.Duration

	ProviderURL  string
	FetchTimeout time.Duration
	SyncInterval time.Duration

	CORSOrigins []string
}

var ErrMissingPostgresURL = errors.New("POSTGRES_URL is required")

// Load reads Settings from the environment, applying defaults.
func Load() (*Settings, error) {
	s := &Settings{
		PostgresURL:   strings.TrimSpace(os.Getenv("POSTGRES_URL")),
		VaultPort:     envOr("VAULT_SERVICE_PORT", "8080"),
		FeedPort:      envOr("FEED_SERVICE_PORT", "8081"),
		JWTSecret:     os.Getenv("JWT_SECRET_KEY"),
		NatsURL:       envOr("NATS_URL", "nats://localhost:4222"),
		NatsToken:     os.Getenv("NATS_TOKEN"),
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		ProviderURL:   strings.TrimSpace(os.Getenv("CATALOG_PROVIDER_URL")),
		CORSOrigins:   splitList(envOr("CORS_ORIGINS", "http://localhost:5173")),
	}

	if s.PostgresURL == "" {
		return nil, ErrMissingPostgresURL
	}

	var err error
	if s.RateLimit, err = intEnv("RATE_LIMIT", 100); err != nil {
		return nil, err
	}
	if s.RateLimit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT must be positive, got %d", s.RateLimit)
	}
	if s.RedisDB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if s.CardCacheTTL, err = durationEnv("CARD_CACHE_TTL", 6*time.Hour); err != nil {
		return nil, err
	}
	if s.FetchTimeout, err = durationEnv("CATALOG_FETCH_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}
	if s.SyncInterval, err = durationEnv("SYNC_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}

	return s, nil
}

// RequireJWTSecret is for services that verify tokens.
func (s *Settings) RequireJWTSecret() error {
	if s.JWTSecret == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	return nil
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
