package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SlotsPerPage is fixed: every binder page is a 3x3 grid.
const SlotsPerPage = 9

const (
	DefaultCondition = "NM"
	DefaultEdition   = "unlimited"
)

// Conditions lists the accepted physical condition codes.
var Conditions = []string{"M", "NM", "LP", "MP", "HP", "DMG"}

// Placement is a cell of a binder: page numbers start at 1, slots run 0..8.
type Placement struct {
	Page int `json:"page"`
	Slot int `json:"slot"`
}

// BinderCard places one catalog card in one binder cell.
type BinderCard struct {
	ID               int64               `json:"id"`
	BinderID         int64               `json:"binder_id"`
	CardID           int64               `json:"card_id"`
	PageNumber       int                 `json:"page_number"`
	SlotPosition     int                 `json:"slot_position"`
	Condition        string              `json:"condition"`
	Quantity         int                 `json:"quantity"`
	FoilType         *string             `json:"foil_type"`
	AcquisitionPrice decimal.NullDecimal `json:"acquisition_price"`
	Notes            *string             `json:"notes"`
	Rarity           *string             `json:"rarity"`
	SetCode          *string             `json:"set_code"`
	Edition          string              `json:"edition"`
	CreatedAt        time.Time           `json:"created_at"`
}

// Placement returns the cell the card occupies.
func (bc *BinderCard) Placement() Placement {
	return Placement{Page: bc.PageNumber, Slot: bc.SlotPosition}
}

// BinderCardView is a binder card joined with its catalog entry.
type BinderCardView struct {
	BinderCard
	Name            string              `json:"name"`
	CardType        string              `json:"card_type"`
	ImageURL        *string             `json:"image_url"`
	TCGPlayerPrice  decimal.NullDecimal `json:"tcgplayer_price"`
	CardMarketPrice decimal.NullDecimal `json:"cardmarket_price"`
}

// NewBinderCard is the caller supplied part of an add-card request.
type NewBinderCard struct {
	CardID           int64               `json:"card_id"`
	Condition        string              `json:"condition"`
	Quantity         int                 `json:"quantity"`
	FoilType         *string             `json:"foil_type"`
	AcquisitionPrice decimal.NullDecimal `json:"acquisition_price"`
	Notes            *string             `json:"notes"`
	Rarity           *string             `json:"rarity"`
	SetCode          *string             `json:"set_code"`
	Edition          string              `json:"edition"`
}

// Move reassigns one binder card to a target cell.
type Move struct {
	BinderCardID int64 `json:"id"`
	Page         int   `json:"page"`
	Slot         int   `json:"slot"`
}
