package store

import (
	"context"
	"fmt"

	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const binderColumns = `b.id, b.owner_id, b.name, b.description, b.color, b.sleeve_style,
		b.is_public, b.created_at, b.updated_at`

type BinderStore struct {
	db *pgxpool.Pool
}

func NewBinderStore(db *pgxpool.Pool) *BinderStore {
	return &BinderStore{db: db}
}

func (s *BinderStore) CreateBinder(ctx context.Context, b *models.Binder) error {
	query := `
		INSERT INTO binders (owner_id, name, description, color, sleeve_style, is_public)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRow(ctx, query,
		b.OwnerID, b.Name, b.Description, b.Color, b.SleeveStyle, b.IsPublic,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("could not create binder: %w", mapPgError(err))
	}

	return nil
}

// ListBindersByOwner returns the owner's binders, newest first, with card counts.
func (s *BinderStore) ListBindersByOwner(ctx context.Context, ownerID int64) ([]*models.Binder, error) {
	query := `SELECT ` + binderColumns + `, COUNT(bc.id)
		FROM binders b
		LEFT JOIN binder_cards bc ON bc.binder_id = b.id
		WHERE b.owner_id = $1
		GROUP BY b.id
		ORDER BY b.created_at DESC, b.id DESC`

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list binders: %w", err)
	}
	defer rows.Close()

	binders := []*models.Binder{}
	for rows.Next() {
		b, err := scanBinder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan binder row: %w", err)
		}
		binders = append(binders, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return binders, nil
}

func (s *BinderStore) GetBinder(ctx context.Context, binderID int64) (*models.Binder, error) {
	query := `SELECT ` + binderColumns + `,
			(SELECT COUNT(*) FROM binder_cards bc WHERE bc.binder_id = b.id)
		FROM binders b
		WHERE b.id = $1`

	b, err := scanBinder(s.db.QueryRow(ctx, query, binderID))
	if err != nil {
		return nil, fmt.Errorf("failed to get binder: %w", mapPgError(err))
	}
	return b, nil
}

// UpdateBinder applies a partial update to a binder the owner holds.
func (s *BinderStore) UpdateBinder(ctx context.Context, ownerID, binderID int64, p models.BinderPatch) (*models.Binder, error) {
	query := `
		UPDATE binders b SET
			name = COALESCE($1, b.name),
			description = COALESCE($2, b.description),
			color = COALESCE($3, b.color),
			sleeve_style = COALESCE($4, b.sleeve_style),
			is_public = COALESCE($5, b.is_public),
			updated_at = now()
		WHERE b.id = $6 AND b.owner_id = $7
		RETURNING ` + binderColumns + `,
			(SELECT COUNT(*) FROM binder_cards bc WHERE bc.binder_id = b.id)`

	b, err := scanBinder(s.db.QueryRow(ctx, query,
		p.Name, p.Description, p.Color, p.SleeveStyle, p.IsPublic, binderID, ownerID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update binder: %w", mapPgError(err))
	}
	return b, nil
}

// DeleteBinder removes the binder and, by cascade, all of its cards.
func (s *BinderStore) DeleteBinder(ctx context.Context, ownerID, binderID int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM binders WHERE id = $1 AND owner_id = $2`, binderID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete binder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanBinder(row pgx.Row) (*models.Binder, error) {
	var b models.Binder
	err := row.Scan(
		&b.ID,
		&b.OwnerID,
		&b.Name,
		&b.Description,
		&b.Color,
		&b.SleeveStyle,
		&b.IsPublic,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.CardCount,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
