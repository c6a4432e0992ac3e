package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	KeyPrefix       = "deckvault:card:"
	DefaultTTL      = 6 * time.Hour
	connectAttempts = 5
)

func CardKey(id int64) string {
	return KeyPrefix + strconv.FormatInt(id, 10)
}

// Connect opens a redis client and pings it, backing off between attempts.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	wait := 500 * time.Millisecond
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.WithField("addr", addr).Info("connected to redis")
			return client, nil
		}

		log.WithFields(log.Fields{"addr": addr, "attempt": attempt}).Warnf("redis ping failed: %v", err)

		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}

	client.Close()
	return nil, fmt.Errorf("redis unavailable at %s after %d attempts: %w", addr, connectAttempts, err)
}

// CardCache keeps card detail lookups in redis as JSON with a TTL.
type CardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCardCache(client *redis.Client, ttl time.Duration) *CardCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CardCache{client: client, ttl: ttl}
}

// GetCard returns nil, nil on a miss.
func (c *CardCache) GetCard(ctx context.Context, id int64) (*models.Card, error) {
	data, err := c.client.Get(ctx, CardKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached card: %w", err)
	}

	var card models.Card
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached card: %w", err)
	}
	return &card, nil
}

func (c *CardCache) SetCard(ctx context.Context, card *models.Card) error {
	data, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("failed to marshal card: %w", err)
	}
	if err := c.client.Set(ctx, CardKey(card.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache card: %w", err)
	}
	return nil
}

// Flush removes every cached card. Called after a catalog sync so prices are
// never served older than the last run.
func (c *CardCache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush card cache: %w", err)
	}
	return nil
}
