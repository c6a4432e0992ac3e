package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"POSTGRES_URL", "VAULT_SERVICE_PORT", "FEED_SERVICE_PORT", "RATE_LIMIT",
		"JWT_SECRET_KEY", "NATS_URL", "NATS_TOKEN", "REDIS_ADDR", "REDIS_PASSWORD",
		"REDIS_DB", "CARD_CACHE_TTL", "CATALOG_PROVIDER_URL", "CATALOG_FETCH_TIMEOUT",
		"SYNC_INTERVAL", "CORS_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_URL", "postgres://vault@localhost/deckvault")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", s.VaultPort)
	assert.Equal(t, "8081", s.FeedPort)
	assert.Equal(t, 100, s.RateLimit)
	assert.Equal(t, 24*time.Hour, s.SyncInterval)
	assert.Equal(t, 2*time.Minute, s.FetchTimeout)
	assert.Equal(t, 6*time.Hour, s.CardCacheTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, s.CORSOrigins)
	assert.Empty(t, s.RedisAddr)
	assert.Error(t, s.RequireJWTSecret())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_URL", "postgres://vault@db/deckvault")
	t.Setenv("RATE_LIMIT", "20")
	t.Setenv("SYNC_INTERVAL", "6h")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("JWT_SECRET_KEY", "s3cret")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, s.RateLimit)
	assert.Equal(t, 6*time.Hour, s.SyncInterval)
	assert.Equal(t, "redis:6379", s.RedisAddr)
	assert.Equal(t, 2, s.RedisDB)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.CORSOrigins)
	assert.NoError(t, s.RequireJWTSecret())
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing postgres", map[string]string{}},
		{"rate limit text", map[string]string{"RATE_LIMIT": "lots"}},
		{"rate limit zero", map[string]string{"RATE_LIMIT": "0"}},
		{"bad interval", map[string]string{"SYNC_INTERVAL": "daily"}},
		{"negative ttl", map[string]string{"CARD_CACHE_TTL": "-1m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.name != "missing postgres" {
				t.Setenv("POSTGRES_URL", "postgres://x")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
