package models

import "time"

// News is a school announcement shown on the public site once published.
type News struct {
	ID            string     `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Slug          string     `db:"slug" json:"slug"`
	Summary       string     `db:"summary" json:"summary"`
	Content       string     `db:"content" json:"content"`
	CoverImageURL string     `db:"cover_image_url" json:"cover_image_url"`
	CoverImageKey string     `db:"cover_image_key" json:"-"`
	IsPublished   bool       `db:"is_published" json:"is_published"`
	PublishedAt   *time.Time `db:"published_at" json:"published_at,omitempty"`
	CreatedBy     *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

type NewsFilter struct {
	Published *bool
	Search    string
	Page      int
	PageSize  int
}
