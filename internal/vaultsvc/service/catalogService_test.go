package service

import (
	"context"
	"math"
	"errors"
	"testing"

	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	cards      map[int64]*models.Card
	reads      int
	lastSearch models.CardSearch
}

func (f *fakeCatalog) GetCardByID(ctx context.Context, id int64) (*models.Card, error) {
	f.reads++
	c, ok := f.cards[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return c, nil
}

func (f *fakeCatalog) SearchCards(ctx context.Context, search models.CardSearch) ([]*models.Card, error) {
	f.lastSearch = search
	return []*models.Card{}, nil
}

func (f *fakeCatalog) CountCards(ctx context.Context) (int64, error) {
	return int64(len(f.cards)), nil
}

type mapCache struct {
	cards   map[int64]*models.Card
	failGet bool
	flushes int
}

func (c *mapCache) GetCard(ctx context.Context, id int64) (*models.Card, error) {
	if c.failGet {
		return nil, errors.New("connection refused")
	}
	return c.cards[id], nil
}

func (c *mapCache) SetCard(ctx context.Context, card *models.Card) error {
	c.cards[card.ID] = card
	return nil
}

func (c *mapCache) Flush(ctx context.Context) error {
	c.flushes++
	c.cards = map[int64]*models.Card{}
	return nil
}

func TestSearchCardsValidation(t *testing.T) {
	svc := NewCatalogService(&fakeCatalog{}, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		search models.CardSearch
		field  string
	}{
		{"short query", models.CardSearch{Query: " a "}, "q"},
		{"negative page", models.CardSearch{Query: "dark", Page: -1}, "page"},
		{"page too high", models.CardSearch{Query: "dark", Page: math.MaxInt64 / 10}, "page"},
		{"limit too high", models.CardSearch{Query: "dark", Limit: 101}, "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SearchCards(ctx, tt.search)
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestSearchCardsDefaults(t *testing.T) {
	fc := &fakeCatalog{}
	svc := NewCatalogService(fc, nil)

	_, err := svc.SearchCards(context.Background(), models.CardSearch{Query: "  Dark Magician "})
	require.NoError(t, err)
	assert.Equal(t, models.CardSearch{Query: "Dark Magician", Page: 1, Limit: 20}, fc.lastSearch)
}

func TestGetCardReadThrough(t *testing.T) {
	fc := &fakeCatalog{cards: map[int64]*models.Card{7: {ID: 7, Name: "Kuriboh"}}}
	cache := &mapCache{cards: map[int64]*models.Card{}}
	svc := NewCatalogService(fc, cache)
	ctx := context.Background()

	c, err := svc.GetCard(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Kuriboh", c.Name)

	_, err = svc.GetCard(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, fc.reads)

	require.NoError(t, svc.InvalidateCache(ctx))
	_, err = svc.GetCard(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, fc.reads)
}

func TestGetCardCacheFailureFallsBackToStore(t *testing.T) {
	fc := &fakeCatalog{cards: map[int64]*models.Card{7: {ID: 7, Name: "Kuriboh"}}}
	svc := NewCatalogService(fc, &mapCache{cards: map[int64]*models.Card{}, failGet: true})

	c, err := svc.GetCard(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.ID)
}

func TestGetCardMissing(t *testing.T) {
	svc := NewCatalogService(&fakeCatalog{cards: map[int64]*models.Card{}}, nil)

	_, err := svc.GetCard(context.Background(), 0)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.GetCard(context.Background(), 42)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.NoError(t, svc.InvalidateCache(context.Background()))

	n, err := svc.CatalogSize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
