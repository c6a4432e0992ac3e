package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/deckvault-services/internal/comm"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/store"
)

// MaxReorderBatch bounds a single reorder request.
const MaxReorderBatch = 500

// ReorderService applies a batch of placement changes as one unit.
type ReorderService struct {
	cards  placementRepo
	events EventPublisher
}

func NewReorderService(cards placementRepo, events EventPublisher) *ReorderService {
	return &ReorderService{cards: cards, events: publisherOrNoop(events)}
}

// Reorder moves every card in the batch or none of them.
//
// The batch is validated before storage is touched: it must be non-empty,
// every target must be inside the grid, and no card or target cell may
// appear twice. Updates then run in caller order inside one transaction;
// readers see either the old or the new layout.
//
// Errors: *models.ValidationError, models.ErrNotFound (binder not owned, or a
// card outside the binder), models.ErrConflict (a target cell is held by a
// card outside the batch), *models.TransactionError for anything else.
func (s *ReorderService) Reorder(ctx context.Context, ownerID, binderID int64, moves []models.Move) error {
	if err := ValidateMoves(moves); err != nil {
		return err
	}

	err := s.cards.WithinTx(ctx, func(tx store.PlacementTx) error {
		if err := tx.LockOwnedBinder(ctx, ownerID, binderID); err != nil {
			return err
		}
		for _, m := range moves {
			if err := tx.MoveBinderCard(ctx, binderID, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var ve *models.ValidationError
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrConflict) || errors.As(err, &ve) {
			return err
		}
		return &models.TransactionError{Op: "reorder", Err: err}
	}

	s.events.PublishBinderEvent(comm.TypeReordered, comm.BinderEvent{
		OwnerID:  ownerID,
		BinderID: binderID,
		Moves:    moves,
		At:       time.Now().UTC(),
	})
	return nil
}

// ValidateMoves rejects batches that cannot describe a valid layout.
func ValidateMoves(moves []models.Move) error {
	if len(moves) == 0 {
		return models.Invalid("cards", "at least one card is required")
	}
	if len(moves) > MaxReorderBatch {
		return models.Invalid("cards", "at most %d cards per reorder", MaxReorderBatch)
	}

	seenCards := make(map[int64]struct{}, len(moves))
	seenCells := make(map[models.Placement]int64, len(moves))

	for i, m := range moves {
		field := fmt.Sprintf("cards[%d]", i)
		if m.BinderCardID <= 0 {
			return models.Invalid(field, "id is required")
		}
		target := models.Placement{Page: m.Page, Slot: m.Slot}
		if !ValidPlacement(target) {
			return models.Invalid(field, "page must be within 1..%d and slot within 0..%d", MaxPage, models.SlotsPerPage-1)
		}
		if _, dup := seenCards[m.BinderCardID]; dup {
			return models.Invalid(field, "card %d appears more than once", m.BinderCardID)
		}
		if other, dup := seenCells[target]; dup {
			return models.Invalid(field, "page %d slot %d is also the target of card %d", m.Page, m.Slot, other)
		}
		seenCards[m.BinderCardID] = struct{}{}
		seenCells[target] = m.BinderCardID
	}
	return nil
}
