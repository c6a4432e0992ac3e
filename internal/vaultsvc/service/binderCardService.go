package service

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/avvvet/deckvault-services/internal/comm"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/store"
)

// placementRepo is the transactional side of the binder card store.
type placementRepo interface {
	WithinTx(ctx context.Context, fn func(store.PlacementTx) error) error
}

type binderCardRepo interface {
	placementRepo
	LastPlacement(ctx context.Context, binderID int64) (*models.Placement, error)
	ListBinderCards(ctx context.Context, binderID int64) ([]*models.BinderCardView, error)
	RemoveBinderCard(ctx context.Context, ownerID, binderID, binderCardID int64) error
}

type binderReader interface {
	GetBinder(ctx context.Context, binderID int64) (*models.Binder, error)
}

type BinderCardService struct {
	cards   binderCardRepo
	binders binderReader
	events  EventPublisher
}

func NewBinderCardService(cards binderCardRepo, binders binderReader, events EventPublisher) *BinderCardService {
	return &BinderCardService{cards: cards, binders: binders, events: publisherOrNoop(events)}
}

// AddCard places a catalog card in the next free cell of the binder.
//
// Ownership check, allocation and insert share one transaction that holds the
// binder row lock, so two concurrent adds to the same binder serialize instead
// of computing the same cell. The deferred cell constraint remains as a
// backstop and surfaces as models.ErrConflict, which callers may retry.
func (s *BinderCardService) AddCard(ctx context.Context, ownerID, binderID int64, in models.NewBinderCard) (*models.BinderCard, error) {
	bc, err := newBinderCard(binderID, in)
	if err != nil {
		return nil, err
	}

	err = s.cards.WithinTx(ctx, func(tx store.PlacementTx) error {
		if err := tx.LockOwnedBinder(ctx, ownerID, binderID); err != nil {
			return err
		}

		last, err := tx.LastPlacement(ctx, binderID)
		if err != nil {
			return err
		}

		next := NextPlacement(last)
		if !ValidPlacement(next) {
			return models.Invalid("binder", "has no free page left")
		}
		bc.PageNumber = next.Page
		bc.SlotPosition = next.Slot

		return tx.InsertBinderCard(ctx, bc)
	})
	if err != nil {
		return nil, err
	}

	p := bc.Placement()
	s.events.PublishBinderEvent(comm.TypeCardAdded, comm.BinderEvent{
		OwnerID:      ownerID,
		BinderID:     binderID,
		BinderCardID: bc.ID,
		Placement:    &p,
		At:           time.Now().UTC(),
	})

	return bc, nil
}

// NextSlot previews where the next added card would land.
func (s *BinderCardService) NextSlot(ctx context.Context, ownerID, binderID int64) (models.Placement, error) {
	b, err := s.binders.GetBinder(ctx, binderID)
	if err != nil {
		return models.Placement{}, err
	}
	if b.OwnerID != ownerID {
		return models.Placement{}, models.ErrNotFound
	}

	last, err := s.cards.LastPlacement(ctx, binderID)
	if err != nil {
		return models.Placement{}, err
	}
	return NextPlacement(last), nil
}

// ListCards returns the grid of a binder the viewer owns, or of a public binder.
func (s *BinderCardService) ListCards(ctx context.Context, viewerID, binderID int64) ([]*models.BinderCardView, error) {
	b, err := s.binders.GetBinder(ctx, binderID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != viewerID && !b.IsPublic {
		return nil, models.ErrNotFound
	}
	return s.cards.ListBinderCards(ctx, binderID)
}

// RemoveCard deletes a card from the binder. Its cell is left empty; later
// adds do not backfill it.
func (s *BinderCardService) RemoveCard(ctx context.Context, ownerID, binderID, binderCardID int64) error {
	if err := s.cards.RemoveBinderCard(ctx, ownerID, binderID, binderCardID); err != nil {
		return err
	}

	s.events.PublishBinderEvent(comm.TypeCardRemoved, comm.BinderEvent{
		OwnerID:      ownerID,
		BinderID:     binderID,
		BinderCardID: binderCardID,
		At:           time.Now().UTC(),
	})
	return nil
}

func newBinderCard(binderID int64, in models.NewBinderCard) (*models.BinderCard, error) {
	if in.CardID <= 0 {
		return nil, models.Invalid("card_id", "is required")
	}

	condition := strings.ToUpper(strings.TrimSpace(in.Condition))
	if condition == "" {
		condition = models.DefaultCondition
	}
	if !slices.Contains(models.Conditions, condition) {
		return nil, models.Invalid("condition", "must be one of %s", strings.Join(models.Conditions, ", "))
	}

	quantity := in.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 || quantity > math.MaxInt32 {
		return nil, models.Invalid("quantity", "must be between 1 and %d", math.MaxInt32)
	}

	if in.AcquisitionPrice.Valid && in.AcquisitionPrice.Decimal.IsNegative() {
		return nil, models.Invalid("acquisition_price", "must not be negative")
	}

	edition := strings.TrimSpace(in.Edition)
	if edition == "" {
		edition = models.DefaultEdition
	}

	return &models.BinderCard{
		BinderID:         binderID,
		CardID:           in.CardID,
		Condition:        condition,
		Quantity:         quantity,
		FoilType:         in.FoilType,
		AcquisitionPrice: in.AcquisitionPrice,
		Notes:            in.Notes,
		Rarity:           in.Rarity,
		SetCode:          in.SetCode,
		Edition:          edition,
	}, nil
}
