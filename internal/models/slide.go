package models

import "time"

// Slide is a homepage slideshow entry.
type Slide struct {
	ID         string    `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Caption    string    `db:"caption" json:"caption"`
	LinkURL    string    `db:"link_url" json:"link_url"`
	ImageURL   string    `db:"image_url" json:"image_url"`
	StorageKey string    `db:"storage_key" json:"-"`
	Position   int       `db:"position" json:"position"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// PositionUpdate assigns a display position to a row.
type PositionUpdate struct {
	ID       string `json:"id" validate:"required"`
	Position int    `json:"position" validate:"gte=0"`
}
