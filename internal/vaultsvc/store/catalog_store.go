package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const cardColumns = `id, external_id, name, card_type, attribute, sub_type, attack, defense,
		description, image_url, tcgplayer_price, cardmarket_price, price_refreshed_at, created_at`

type CatalogStore struct {
	db *pgxpool.Pool
}

func NewCatalogStore(db *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{db: db}
}

// UpsertCard inserts a card by external id. When the id already exists only
// the name, both prices and the refresh timestamp are overwritten; type, stats
// and description are reference data and keep their first value.
// It reports whether a new row was created.
func (s *CatalogStore) UpsertCard(ctx context.Context, c *models.Card, refreshedAt time.Time) (bool, error) {
	const query = `
		INSERT INTO cards (
			external_id, name, card_type, attribute, sub_type,
			attack, defense, description, image_url,
			tcgplayer_price, cardmarket_price, price_refreshed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			tcgplayer_price = EXCLUDED.tcgplayer_price,
			cardmarket_price = EXCLUDED.cardmarket_price,
			price_refreshed_at = EXCLUDED.price_refreshed_at
		RETURNING id, (xmax = 0) AS inserted
	`

	var inserted bool
	err := s.db.QueryRow(ctx, query,
		c.ExternalID,
		c.Name,
		c.CardType,
		c.Attribute,
		c.SubType,
		c.Attack,
		c.Defense,
		c.Description,
		c.ImageURL,
		c.TCGPlayerPrice,
		c.CardMarketPrice,
		refreshedAt,
	).Scan(&c.ID, &inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert card %d: %w", c.ExternalID, mapPgError(err))
	}

	c.PriceRefreshedAt = refreshedAt
	return inserted, nil
}

func (s *CatalogStore) GetCardByID(ctx context.Context, id int64) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	card, err := scanCard(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get card by id: %w", mapPgError(err))
	}
	return card, nil
}

func (s *CatalogStore) GetCardByExternalID(ctx context.Context, externalID int64) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE external_id = $1`

	card, err := scanCard(s.db.QueryRow(ctx, query, externalID))
	if err != nil {
		return nil, fmt.Errorf("failed to get card by external id: %w", mapPgError(err))
	}
	return card, nil
}

// SearchCards matches names case-insensitively by substring, ordered by name.
func (s *CatalogStore) SearchCards(ctx context.Context, search models.CardSearch) ([]*models.Card, error) {
	query := `SELECT ` + cardColumns + `
		FROM cards
		WHERE name ILIKE $1
		ORDER BY name, id
		LIMIT $2 OFFSET $3`

	pattern := "%" + escapeLike(search.Query) + "%"
	offset := (search.Page - 1) * search.Limit

	rows, err := s.db.Query(ctx, query, pattern, search.Limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search cards: %w", err)
	}
	defer rows.Close()

	cards := make([]*models.Card, 0, search.Limit)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card row: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return cards, nil
}

// syncLockKey names the session advisory lock held for a whole catalog sync.
const syncLockKey int64 = 0x6465636b73796e63

// TryLockSync takes the catalog sync advisory lock on a dedicated connection.
// The lock lives as long as that connection's session; unlock releases both.
func (s *CatalogStore) TryLockSync(ctx context.Context) (func(), bool, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, syncLockKey).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("failed to try sync lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, syncLockKey); err != nil {
			// closing the session drops the lock
			conn.Conn().Close(ctx)
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *CatalogStore) CountCards(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return n, nil
}

func scanCard(row pgx.Row) (*models.Card, error) {
	var c models.Card
	err := row.Scan(
		&c.ID,
		&c.ExternalID,
		&c.Name,
		&c.CardType,
		&c.Attribute,
		&c.SubType,
		&c.Attack,
		&c.Defense,
		&c.Description,
		&c.ImageURL,
		&c.TCGPlayerPrice,
		&c.CardMarketPrice,
		&c.PriceRefreshedAt,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
