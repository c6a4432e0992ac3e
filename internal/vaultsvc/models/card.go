package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card is a catalog entry. Rows are written only by the catalog synchronizer.
type Card struct {
	ID               int64               `json:"id"`
	ExternalID       int64               `json:"external_id"` // stable provider id, unique
	Name             string              `json:"name"`
	CardType         string              `json:"card_type"`
	Attribute        *string             `json:"attribute"`
	SubType          *string             `json:"sub_type"`
	Attack           *int32              `json:"attack"`
	Defense          *int32              `json:"defense"`
	Description      string              `json:"description"`
	ImageURL         *string             `json:"image_url"`
	TCGPlayerPrice   decimal.NullDecimal `json:"tcgplayer_price"`
	CardMarketPrice  decimal.NullDecimal `json:"cardmarket_price"`
	PriceRefreshedAt time.Time           `json:"price_refreshed_at"`
	CreatedAt        time.Time           `json:"created_at"`
}

// CardSearch holds the paging parameters of a catalog name search.
type CardSearch struct {
	Query string
	Page  int
	Limit int
}
