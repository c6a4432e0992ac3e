package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlacementTx is the set of binder card operations that run inside one
// transaction: the allocate+insert unit and the reorder batch.
type PlacementTx interface {
	// LockOwnedBinder row-locks the binder for the rest of the transaction.
	// It returns models.ErrNotFound when the binder is missing or not owned.
	LockOwnedBinder(ctx context.Context, ownerID, binderID int64) error
	// LastPlacement returns the highest (page, slot) in the binder, nil when empty.
	LastPlacement(ctx context.Context, binderID int64) (*models.Placement, error)
	InsertBinderCard(ctx context.Context, bc *models.BinderCard) error
	// MoveBinderCard returns models.ErrNotFound when the card is not in the binder.
	MoveBinderCard(ctx context.Context, binderID int64, m models.Move) error
}

type BinderCardStore struct {
	db *pgxpool.Pool
}

func NewBinderCardStore(db *pgxpool.Pool) *BinderCardStore {
	return &BinderCardStore{db: db}
}

// WithinTx runs fn in a single transaction. Any error returned by fn, or a
// failed commit, rolls back everything fn did.
func (s *BinderCardStore) WithinTx(ctx context.Context, fn func(PlacementTx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	if err := fn(&placementTx{tx: tx}); err != nil {
		return err
	}

	// binder_cards_cell_key is deferred, so cell collisions surface here.
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", mapPgError(err))
	}
	return nil
}

func (s *BinderCardStore) LastPlacement(ctx context.Context, binderID int64) (*models.Placement, error) {
	return lastPlacement(ctx, s.db, binderID)
}

// ListBinderCards returns the binder's cards joined with catalog data in grid order.
func (s *BinderCardStore) ListBinderCards(ctx context.Context, binderID int64) ([]*models.BinderCardView, error) {
	query := `
		SELECT bc.id, bc.binder_id, bc.card_id, bc.page_number, bc.slot_position,
			bc.condition, bc.quantity, bc.foil_type, bc.acquisition_price, bc.notes,
			bc.rarity, bc.set_code, bc.edition, bc.created_at,
			c.name, c.card_type, c.image_url, c.tcgplayer_price, c.cardmarket_price
		FROM binder_cards bc
		JOIN cards c ON c.id = bc.card_id
		WHERE bc.binder_id = $1
		ORDER BY bc.page_number, bc.slot_position
	`

	rows, err := s.db.Query(ctx, query, binderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list binder cards: %w", err)
	}
	defer rows.Close()

	cards := []*models.BinderCardView{}
	for rows.Next() {
		var v models.BinderCardView
		err := rows.Scan(
			&v.ID,
			&v.BinderID,
			&v.CardID,
			&v.PageNumber,
			&v.SlotPosition,
			&v.Condition,
			&v.Quantity,
			&v.FoilType,
			&v.AcquisitionPrice,
			&v.Notes,
			&v.Rarity,
			&v.SetCode,
			&v.Edition,
			&v.CreatedAt,
			&v.Name,
			&v.CardType,
			&v.ImageURL,
			&v.TCGPlayerPrice,
			&v.CardMarketPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("scan binder card row: %w", err)
		}
		cards = append(cards, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return cards, nil
}

// RemoveBinderCard deletes a card from a binder the owner holds. The catalog is untouched.
func (s *BinderCardStore) RemoveBinderCard(ctx context.Context, ownerID, binderID, binderCardID int64) error {
	query := `
		DELETE FROM binder_cards bc
		USING binders b
		WHERE bc.id = $1
		  AND bc.binder_id = $2
		  AND b.id = bc.binder_id
		  AND b.owner_id = $3
	`

	tag, err := s.db.Exec(ctx, query, binderCardID, binderID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to remove binder card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

type placementTx struct {
	tx pgx.Tx
}

func (p *placementTx) LockOwnedBinder(ctx context.Context, ownerID, binderID int64) error {
	var id int64
	err := p.tx.QueryRow(ctx,
		`SELECT id FROM binders WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
		binderID, ownerID,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("lock binder %d: %w", binderID, mapPgError(err))
	}
	return nil
}

func (p *placementTx) LastPlacement(ctx context.Context, binderID int64) (*models.Placement, error) {
	return lastPlacement(ctx, p.tx, binderID)
}

func (p *placementTx) InsertBinderCard(ctx context.Context, bc *models.BinderCard) error {
	query := `
		INSERT INTO binder_cards (
			binder_id, card_id, page_number, slot_position, condition, quantity,
			foil_type, acquisition_price, notes, rarity, set_code, edition
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`

	err := p.tx.QueryRow(ctx, query,
		bc.BinderID,
		bc.CardID,
		bc.PageNumber,
		bc.SlotPosition,
		bc.Condition,
		bc.Quantity,
		bc.FoilType,
		bc.AcquisitionPrice,
		bc.Notes,
		bc.Rarity,
		bc.SetCode,
		bc.Edition,
	).Scan(&bc.ID, &bc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert binder card: %w", mapPgError(err))
	}
	return nil
}

func (p *placementTx) MoveBinderCard(ctx context.Context, binderID int64, m models.Move) error {
	tag, err := p.tx.Exec(ctx, `
		UPDATE binder_cards
		SET page_number = $1, slot_position = $2
		WHERE id = $3 AND binder_id = $4
	`, m.Page, m.Slot, m.BinderCardID, binderID)
	if err != nil {
		return fmt.Errorf("move binder card %d: %w", m.BinderCardID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("binder card %d: %w", m.BinderCardID, models.ErrNotFound)
	}
	return nil
}

func lastPlacement(ctx context.Context, q querier, binderID int64) (*models.Placement, error) {
	var p models.Placement
	err := q.QueryRow(ctx, `
		SELECT page_number, slot_position
		FROM binder_cards
		WHERE binder_id = $1
		ORDER BY page_number DESC, slot_position DESC
		LIMIT 1
	`, binderID).Scan(&p.Page, &p.Slot)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // empty binder
		}
		return nil, fmt.Errorf("failed to get last placement: %w", err)
	}
	return &p, nil
}
