package models

import "time"

const (
	DefaultBinderColor  = "#1a1a2e"
	DefaultSleeveStyle  = "standard"
	MaxBinderNameLength = 100
)

// Binder is a user owned, paginated container of placed cards.
type Binder struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Color       string    `json:"color"`
	SleeveStyle string    `json:"sleeve_style"`
	IsPublic    bool      `json:"is_public"`
	CardCount   int64     `json:"card_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BinderPatch carries a partial binder update; nil fields are left untouched.
type BinderPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	SleeveStyle *string `json:"sleeve_style"`
	IsPublic    *bool   `json:"is_public"`
}
