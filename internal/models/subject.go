package models

import "time"

// Subject belongs to a class. Split subjects carry independent theory and
// practical thresholds; MaxMarks and PassingMarks are then their sums.
type Subject struct {
	ID                    string    `db:"id" json:"id"`
	ClassID               string    `db:"class_id" json:"class_id"`
	Name                  string    `db:"name" json:"name"`
	Code                  string    `db:"code" json:"code"`
	Position              int       `db:"position" json:"position"`
	IsAdditional          bool      `db:"is_additional" json:"is_additional"`
	HasPractical          bool      `db:"has_practical" json:"has_practical"`
	MaxMarks              float64   `db:"max_marks" json:"max_marks"`
	PassingMarks          float64   `db:"passing_marks" json:"passing_marks"`
	TheoryMaxMarks        *float64  `db:"theory_max_marks" json:"theory_max_marks,omitempty"`
	TheoryPassingMarks    *float64  `db:"theory_passing_marks" json:"theory_passing_marks,omitempty"`
	PracticalMaxMarks     *float64  `db:"practical_max_marks" json:"practical_max_marks,omitempty"`
	PracticalPassingMarks *float64  `db:"practical_passing_marks" json:"practical_passing_marks,omitempty"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// TheoryMax returns the theory maximum or zero.
func (s Subject) TheoryMax() float64 { return deref(s.TheoryMaxMarks) }

func (s Subject) TheoryPassing() float64 { return deref(s.TheoryPassingMarks) }

func (s Subject) PracticalMax() float64 { return deref(s.PracticalMaxMarks) }

func (s Subject) PracticalPassing() float64 { return deref(s.PracticalPassingMarks) }

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// SubjectOrder assigns a display position to a subject.
type SubjectOrder struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Position  int    `json:"position" validate:"gte=0"`
}
