package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is the full database schema.
//
// binder_cards_cell_key is deferred so a reorder transaction can move cards
// through temporarily shared cells (swaps); it is checked at commit.
const schema = `
CREATE TABLE IF NOT EXISTS cards (
    id                 BIGSERIAL PRIMARY KEY,
    external_id        BIGINT NOT NULL,
    name               TEXT NOT NULL,
    card_type          TEXT NOT NULL DEFAULT '',
    attribute          TEXT,
    sub_type           TEXT,
    attack             INTEGER,
    defense            INTEGER,
    description        TEXT NOT NULL DEFAULT '',
    image_url          TEXT,
    tcgplayer_price    NUMERIC(12, 2),
    cardmarket_price   NUMERIC(12, 2),
    price_refreshed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT cards_external_id_key UNIQUE (external_id)
);

CREATE INDEX IF NOT EXISTS idx_cards_name_lower ON cards (lower(name));

CREATE TABLE IF NOT EXISTS binders (
    id           BIGSERIAL PRIMARY KEY,
    owner_id     BIGINT NOT NULL,
    name         TEXT NOT NULL,
    description  TEXT,
    color        TEXT NOT NULL DEFAULT '#1a1a2e',
    sleeve_style TEXT NOT NULL DEFAULT 'standard',
    is_public    BOOLEAN NOT NULL DEFAULT false,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_binders_owner ON binders (owner_id);

CREATE TABLE IF NOT EXISTS binder_cards (
    id                BIGSERIAL PRIMARY KEY,
    binder_id         BIGINT NOT NULL REFERENCES binders(id) ON DELETE CASCADE,
    card_id           BIGINT NOT NULL REFERENCES cards(id),
    page_number       INTEGER NOT NULL CHECK (page_number >= 1),
    slot_position     INTEGER NOT NULL CHECK (slot_position BETWEEN 0 AND 8),
    condition         TEXT NOT NULL DEFAULT 'NM',
    quantity          INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
    foil_type         TEXT,
    acquisition_price NUMERIC(12, 2),
    notes             TEXT,
    rarity            TEXT,
    set_code          TEXT,
    edition           TEXT NOT NULL DEFAULT 'unlimited',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT binder_cards_cell_key UNIQUE (binder_id, page_number, slot_position)
        DEFERRABLE INITIALLY DEFERRED
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: ordered placement reads for the allocator and the grid listing.
	`CREATE INDEX IF NOT EXISTS idx_binder_cards_placement
	     ON binder_cards (binder_id, page_number DESC, slot_position DESC)`,
}

// Migrate creates the schema and applies migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
