package models

import "time"

type GalleryCategory struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	Position    int       `db:"position" json:"position"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GalleryCategorySummary adds the image count and a cover thumbnail.
type GalleryCategorySummary struct {
	GalleryCategory
	ImageCount int     `db:"image_count" json:"image_count"`
	CoverURL   *string `db:"cover_url" json:"cover_url,omitempty"`
}

// GalleryImage is a stored photo with its thumbnail rendition.
type GalleryImage struct {
	ID           string    `db:"id" json:"id"`
	CategoryID   string    `db:"category_id" json:"category_id"`
	Title        string    `db:"title" json:"title"`
	ImageURL     string    `db:"image_url" json:"image_url"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnail_url"`
	StorageKey   string    `db:"storage_key" json:"-"`
	ThumbnailKey string    `db:"thumbnail_key" json:"-"`
	Position     int       `db:"position" json:"position"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
