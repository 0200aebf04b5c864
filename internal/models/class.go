package models

import "time"

// Class is an academic grade level. Subjects hang off a class.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail is a class with its ordered subjects.
type ClassDetail struct {
	Class
	Subjects []Subject `json:"subjects"`
}

type ClassFilter struct {
	Search   string
	Page     int
	PageSize int
}

// ClassDependents counts rows that block deleting a class.
type ClassDependents struct {
	Subjects int `db:"subjects"`
	Students int `db:"students"`
}
