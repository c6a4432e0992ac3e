package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardKey(t *testing.T) {
	assert.Equal(t, "deckvault:card:42", CardKey(42))
}

func newTestCache(t *testing.T) *CardCache {
	t.Helper()
	addr := os.Getenv("DECKVAULT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DECKVAULT_TEST_REDIS_ADDR not set")
	}

	client, err := Connect(context.Background(), addr, "", 15)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	c := NewCardCache(client, time.Minute)
	require.NoError(t, c.Flush(context.Background()))
	return c
}

func TestCardCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	got, err := c.GetCard(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)

	card := &models.Card{
		ID:             7,
		ExternalID:     46986414,
		Name:           "Dark Magician",
		CardType:       "Normal Monster",
		TCGPlayerPrice: decimal.NewNullDecimal(decimal.RequireFromString("0.25")),
	}
	require.NoError(t, c.SetCard(ctx, card))

	got, err = c.GetCard(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dark Magician", got.Name)
	assert.True(t, got.TCGPlayerPrice.Valid)
	assert.Equal(t, "0.25", got.TCGPlayerPrice.Decimal.String())
	assert.False(t, got.CardMarketPrice.Valid)

	require.NoError(t, c.Flush(ctx))
	got, err = c.GetCard(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}
