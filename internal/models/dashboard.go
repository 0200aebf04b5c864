package models

import "time"

// DashboardSummary is the admin landing page counters.
type DashboardSummary struct {
	AcademicYear   string    `json:"academic_year,omitempty"`
	Classes        int       `db:"classes" json:"classes"`
	Students       int       `db:"students" json:"students"`
	Results        int       `db:"results" json:"results"`
	PassedResults  int       `db:"passed_results" json:"passed_results"`
	PublishedNews  int       `db:"published_news" json:"published_news"`
	GalleryImages  int       `db:"gallery_images" json:"gallery_images"`
	OpenEnquiries  int       `db:"open_enquiries" json:"open_enquiries"`
	ResultsVisible bool      `json:"results_visible"`
	GeneratedAt    time.Time `json:"generated_at"`
}
