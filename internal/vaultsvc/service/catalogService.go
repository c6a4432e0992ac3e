package service

import (
	"context"
	"strings"

	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	log "github.com/sirupsen/logrus"
)

const (
	minSearchQueryLength = 2
	defaultSearchLimit   = 20
	maxSearchLimit       = 100
	maxSearchPage        = 10000
)

type catalogReader interface {
	GetCardByID(ctx context.Context, id int64) (*models.Card, error)
	SearchCards(ctx context.Context, search models.CardSearch) ([]*models.Card, error)
	CountCards(ctx context.Context) (int64, error)
}

// CardCache is an optional read-through cache for card detail lookups.
type CardCache interface {
	GetCard(ctx context.Context, id int64) (*models.Card, error)
	SetCard(ctx context.Context, card *models.Card) error
	Flush(ctx context.Context) error
}

// CatalogService is the read side of the catalog. Writes belong to the synchronizer.
type CatalogService struct {
	store catalogReader
	cache CardCache
}

func NewCatalogService(store catalogReader, cache CardCache) *CatalogService {
	return &CatalogService{store: store, cache: cache}
}

func (s *CatalogService) SearchCards(ctx context.Context, search models.CardSearch) ([]*models.Card, error) {
	search.Query = strings.TrimSpace(search.Query)
	if len([]rune(search.Query)) < minSearchQueryLength {
		return nil, models.Invalid("q", "must be at least %d characters", minSearchQueryLength)
	}
	if search.Page == 0 {
		search.Page = 1
	}
	if search.Page < 1 || search.Page > maxSearchPage {
		return nil, models.Invalid("page", "must be between 1 and %d", maxSearchPage)
	}
	if search.Limit == 0 {
		search.Limit = defaultSearchLimit
	}
	if search.Limit < 1 || search.Limit > maxSearchLimit {
		return nil, models.Invalid("limit", "must be between 1 and %d", maxSearchLimit)
	}

	return s.store.SearchCards(ctx, search)
}

func (s *CatalogService) GetCard(ctx context.Context, id int64) (*models.Card, error) {
	if id <= 0 {
		return nil, models.ErrNotFound
	}

	if s.cache != nil {
		card, err := s.cache.GetCard(ctx, id)
		if err != nil {
			log.Warnf("card cache read failed for %d: %v", id, err)
		} else if card != nil {
			return card, nil
		}
	}

	card, err := s.store.GetCardByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetCard(ctx, card); err != nil {
			log.Warnf("card cache write failed for %d: %v", id, err)
		}
	}
	return card, nil
}

// CatalogSize is the number of cards synchronized so far.
func (s *CatalogService) CatalogSize(ctx context.Context) (int64, error) {
	return s.store.CountCards(ctx)
}

// InvalidateCache drops cached cards after the catalog has been refreshed.
func (s *CatalogService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Flush(ctx)
}
