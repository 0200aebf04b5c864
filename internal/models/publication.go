package models

import "time"

// ResultPublication gates public access to an academic year's results.
type ResultPublication struct {
	ID           string    `db:"id" json:"id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	PublishDate  time.Time `db:"publish_date" json:"publish_date"`
	IsPublished  bool      `db:"is_published" json:"is_published"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsVisible reports whether results are public at now: either explicitly
// published or the publish date has been reached.
func (p *ResultPublication) IsVisible(now time.Time) bool {
	if p == nil {
		return false
	}
	return p.IsPublished || !now.Before(p.PublishDate)
}

// PublicationStatus is the admin view of a gate.
type PublicationStatus struct {
	ResultPublication
	Visible bool `json:"visible"`
}
